// Package user holds the identity snapshot consumed from the external user directory.
// Registration, credentials and profile data are owned elsewhere; messaging only
// needs a stable ID and the canonical username.
package user

import (
	"strings"

	"github.com/dialog-app/dialog/internal/domain/errs"
	"github.com/dialog-app/dialog/internal/domain/uuid"
)

// User is a read-only identity resolved from the directory.
type User struct {
	id       uuid.UUID
	username string
}

// New creates a User snapshot. The username is normalized to lower case so that
// identity comparisons are case-insensitive everywhere.
func New(id uuid.UUID, username string) (User, error) {
	if id.IsZero() {
		return User{}, errs.ErrInvalidInput
	}
	username = strings.ToLower(strings.TrimSpace(username))
	if username == "" {
		return User{}, errs.ErrInvalidInput
	}
	return User{id: id, username: username}, nil
}

// ID returns the stable user identity.
func (u User) ID() uuid.UUID {
	return u.id
}

// Username returns the canonical (lower-cased) username.
func (u User) Username() string {
	return u.username
}

// IsZero reports whether the snapshot is empty.
func (u User) IsZero() bool {
	return u.id.IsZero()
}
