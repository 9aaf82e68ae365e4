// Package uuid wraps google/uuid behind a string-backed domain type.
package uuid

import (
	"github.com/google/uuid"
)

// UUID is a string-backed UUID used for user identities.
type UUID string

// NewUUID creates a new random UUID.
func NewUUID() UUID {
	return UUID(uuid.New().String())
}

// ParseUUID parses a string into a UUID.
func ParseUUID(s string) (UUID, error) {
	_, err := uuid.Parse(s)
	if err != nil {
		return "", err
	}
	return UUID(s), nil
}

// MustParseUUID parses a string into a UUID or panics.
func MustParseUUID(s string) UUID {
	id, err := ParseUUID(s)
	if err != nil {
		panic(err)
	}
	return id
}

// String returns the string representation.
func (u UUID) String() string {
	return string(u)
}

// IsZero reports whether the UUID is the zero value.
func (u UUID) IsZero() bool {
	return u == ""
}
