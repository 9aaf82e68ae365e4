package message

import (
	"time"

	"github.com/dialog-app/dialog/internal/domain/errs"
	"github.com/dialog-app/dialog/internal/domain/user"
	"github.com/dialog-app/dialog/internal/domain/uuid"
)

// Side identifies which party of a message a user is.
type Side int

// Message sides.
const (
	SideNone Side = iota
	SideSender
	SideRecipient
)

// State is the observable deletion state of a message.
// A fully purged message has no state: the entity no longer exists.
type State string

// Deletion states.
const (
	// StateActive means neither party has deleted the message.
	StateActive State = "active"

	// StateOneSided means exactly one party has deleted the message.
	// The other party still sees it.
	StateOneSided State = "one_sided"
)

// Message is a direct message between two users. Usernames are denormalized
// snapshots taken at send time and never follow later renames.
type Message struct {
	id                int64
	senderID          uuid.UUID
	recipientID       uuid.UUID
	senderUsername    string
	recipientUsername string
	content           string
	sentAt            time.Time
	senderDeleted     bool
	recipientDeleted  bool
}

// NewMessage creates a new message between two distinct users.
func NewMessage(id int64, sender, recipient user.User, content string) (*Message, error) {
	if id <= 0 {
		return nil, errs.ErrInvalidInput
	}
	if sender.IsZero() || recipient.IsZero() {
		return nil, errs.ErrInvalidInput
	}
	if sender.ID() == recipient.ID() {
		return nil, errs.ErrInvalidInput
	}
	if content == "" {
		return nil, errs.ErrInvalidInput
	}

	return &Message{
		id:                id,
		senderID:          sender.ID(),
		recipientID:       recipient.ID(),
		senderUsername:    sender.Username(),
		recipientUsername: recipient.Username(),
		content:           content,
		sentAt:            time.Now().UTC(),
	}, nil
}

// Restore rehydrates a message from persistence. It bypasses creation
// validation and is intended for repository implementations only.
func Restore(
	id int64,
	senderID, recipientID uuid.UUID,
	senderUsername, recipientUsername string,
	content string,
	sentAt time.Time,
	senderDeleted, recipientDeleted bool,
) *Message {
	return &Message{
		id:                id,
		senderID:          senderID,
		recipientID:       recipientID,
		senderUsername:    senderUsername,
		recipientUsername: recipientUsername,
		content:           content,
		sentAt:            sentAt,
		senderDeleted:     senderDeleted,
		recipientDeleted:  recipientDeleted,
	}
}

// SideOf returns which party of the message the user is, or SideNone.
func (m *Message) SideOf(userID uuid.UUID) Side {
	switch userID {
	case m.senderID:
		return SideSender
	case m.recipientID:
		return SideRecipient
	default:
		return SideNone
	}
}

// MarkDeletedFor flips the deleted flag of the user's own side.
// Flags only ever move false to true. Marking by a non-party is a no-op;
// authorization is the caller's concern.
func (m *Message) MarkDeletedFor(userID uuid.UUID) {
	switch m.SideOf(userID) {
	case SideSender:
		m.senderDeleted = true
	case SideRecipient:
		m.recipientDeleted = true
	case SideNone:
	}
}

// IsFullyDeleted reports whether both parties have deleted the message,
// making it eligible for permanent removal.
func (m *Message) IsFullyDeleted() bool {
	return m.senderDeleted && m.recipientDeleted
}

// VisibleTo reports whether the message appears in the user's listings:
// the user must be a party and their own side must not be deleted.
func (m *Message) VisibleTo(userID uuid.UUID) bool {
	switch m.SideOf(userID) {
	case SideSender:
		return !m.senderDeleted
	case SideRecipient:
		return !m.recipientDeleted
	default:
		return false
	}
}

// State returns the observable deletion state.
func (m *Message) State() State {
	if m.senderDeleted || m.recipientDeleted {
		return StateOneSided
	}
	return StateActive
}

// Getters

// ID returns the message id.
func (m *Message) ID() int64 {
	return m.id
}

// SenderID returns the sender's user ID.
func (m *Message) SenderID() uuid.UUID {
	return m.senderID
}

// RecipientID returns the recipient's user ID.
func (m *Message) RecipientID() uuid.UUID {
	return m.recipientID
}

// SenderUsername returns the sender's username snapshot.
func (m *Message) SenderUsername() string {
	return m.senderUsername
}

// RecipientUsername returns the recipient's username snapshot.
func (m *Message) RecipientUsername() string {
	return m.recipientUsername
}

// Content returns the message text.
func (m *Message) Content() string {
	return m.content
}

// SentAt returns the creation timestamp.
func (m *Message) SentAt() time.Time {
	return m.sentAt
}

// SenderDeleted reports whether the sender has deleted the message.
func (m *Message) SenderDeleted() bool {
	return m.senderDeleted
}

// RecipientDeleted reports whether the recipient has deleted the message.
func (m *Message) RecipientDeleted() bool {
	return m.recipientDeleted
}
