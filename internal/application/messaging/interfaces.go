package messaging

import (
	"context"

	"github.com/dialog-app/dialog/internal/domain/message"
	"github.com/dialog-app/dialog/internal/domain/user"
	"github.com/dialog-app/dialog/internal/domain/uuid"
)

// Scope selects which half of the mailbox a listing covers.
type Scope string

// Listing scopes.
const (
	// ScopeAll is the combined inbox/outbox (default).
	ScopeAll Scope = "all"

	// ScopeInbox limits the listing to received messages.
	ScopeInbox Scope = "inbox"

	// ScopeOutbox limits the listing to sent messages.
	ScopeOutbox Scope = "outbox"
)

// Valid reports whether the scope is one of the known values.
func (s Scope) Valid() bool {
	switch s {
	case ScopeAll, ScopeInbox, ScopeOutbox:
		return true
	default:
		return false
	}
}

// Pagination describes a 1-based page over a sorted result set.
type Pagination struct {
	Page      int
	PageSize  int
	Ascending bool // sort by sentAt ascending instead of the default descending
}

// Offset returns the number of items to skip for the page.
func (p Pagination) Offset() int {
	if p.Page <= 1 {
		return 0
	}
	return (p.Page - 1) * p.PageSize
}

// MessageStore owns Message persistence. The interface is declared on the
// consumer side; the MongoDB implementation lives in infrastructure.
// All mutating calls are expected to run inside a UnitOfWork transaction.
type MessageStore interface {
	// NextID allocates the next monotonically increasing message id.
	// Ids are never reused, even after a purge.
	NextID(ctx context.Context) (int64, error)

	// Save persists a message.
	Save(ctx context.Context, msg *message.Message) error

	// FindByID loads a message, errs.ErrNotFound when absent.
	FindByID(ctx context.Context, id int64) (*message.Message, error)

	// MarkDeleted atomically sets one side's deleted flag and returns the
	// updated message. errs.ErrNotFound when the message no longer exists.
	MarkDeleted(ctx context.Context, id int64, side message.Side) (*message.Message, error)

	// Delete permanently removes a fully deleted message.
	// errs.ErrNotFound when nothing was removed.
	Delete(ctx context.Context, id int64) error

	// FindForUser returns the page of messages where userID is a party whose
	// own deleted flag is false, ordered by sentAt (descending unless
	// p.Ascending), plus the total count before slicing. Out-of-range pages
	// yield an empty slice with the true total.
	FindForUser(ctx context.Context, userID uuid.UUID, scope Scope, p Pagination) ([]*message.Message, int, error)

	// FindBetween returns the two-party conversation visible to userID,
	// ordered by sentAt ascending.
	FindBetween(ctx context.Context, userID, otherID uuid.UUID) ([]*message.Message, error)
}

// UnitOfWork runs fn inside a single atomic commit. The context passed to fn
// carries the transaction, so store calls made with it join the commit.
// If Execute returns an error the use case has not happened: no partial state
// is observable.
type UnitOfWork interface {
	Execute(ctx context.Context, fn func(ctx context.Context) error) error
}

// UserDirectory resolves usernames to stable identities. It is owned
// externally and consulted read-only.
type UserDirectory interface {
	// Resolve returns the identity for a username (case-insensitive),
	// errs.ErrNotFound when unknown.
	Resolve(ctx context.Context, username string) (user.User, error)
}
