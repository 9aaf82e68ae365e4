package messaging

import (
	"errors"
	"net/http"

	"github.com/dialog-app/dialog/internal/domain/errs"
)

// appError is a helper type that implements httpserver.HTTPError interface.
type appError struct {
	msg        string
	httpStatus int
	httpCode   string
	httpMsg    string
}

func (e *appError) Error() string       { return e.msg }
func (e *appError) HTTPStatus() int     { return e.httpStatus }
func (e *appError) HTTPCode() string    { return e.httpCode }
func (e *appError) HTTPMessage() string { return e.httpMsg }

var (
	// ErrEmptyContent indicates that message content cannot be empty
	ErrEmptyContent = &appError{
		msg:        "message content cannot be empty",
		httpStatus: http.StatusBadRequest,
		httpCode:   "EMPTY_CONTENT",
		httpMsg:    "message content cannot be empty",
	}
	ErrContentTooLong = &appError{
		msg:        "message content too long",
		httpStatus: http.StatusBadRequest,
		httpCode:   "CONTENT_TOO_LONG",
		httpMsg:    "message content is too long",
	}

	// ErrSelfMessage indicates an attempt to message oneself
	ErrSelfMessage = &appError{
		msg:        "cannot send messages to yourself",
		httpStatus: http.StatusBadRequest,
		httpCode:   "SELF_MESSAGE",
		httpMsg:    "you cannot send messages to yourself",
	}
	ErrRecipientNotFound = &appError{
		msg:        "recipient not found",
		httpStatus: http.StatusNotFound,
		httpCode:   "RECIPIENT_NOT_FOUND",
		httpMsg:    "recipient not found",
	}
	ErrMessageNotFound = &appError{
		msg:        "message not found",
		httpStatus: http.StatusNotFound,
		httpCode:   "MESSAGE_NOT_FOUND",
		httpMsg:    "message not found",
	}

	// ErrNotParticipant indicates that the caller is neither sender nor
	// recipient of the message. Deliberately distinct from not-found: the
	// API never lists foreign mailboxes, so revealing bare existence of an
	// id is an accepted trade-off for clearer client behavior.
	ErrNotParticipant = &appError{
		msg:        "user is not a participant of this message",
		httpStatus: http.StatusForbidden,
		httpCode:   "MESSAGE_ACCESS_DENIED",
		httpMsg:    "you are not a party to this message",
	}
	ErrInvalidScope = &appError{
		msg:        "invalid listing scope",
		httpStatus: http.StatusBadRequest,
		httpCode:   "INVALID_SCOPE",
		httpMsg:    "scope must be one of: all, inbox, outbox",
	}

	// ErrCommitFailed indicates the transactional commit did not succeed.
	// The use case's intended effect is guaranteed not to have happened.
	ErrCommitFailed = &appError{
		msg:        "commit failed",
		httpStatus: http.StatusBadGateway,
		httpCode:   "COMMIT_FAILED",
		httpMsg:    "the operation could not be committed",
	}
)

const (
	// MaxContentLength is the maximum message length (4k characters).
	MaxContentLength = 4000
	// DefaultPageSize is the page size used when the caller does not ask for one.
	DefaultPageSize = 10
	// MaxPageSize bounds a single page to prevent unbounded result sets.
	MaxPageSize = 50
)

// commitFailure maps a unit-of-work failure to the public contract: errors the
// use case raised itself (application or domain errors) pass through, anything
// else (driver failures, aborted transactions) collapses into ErrCommitFailed.
func commitFailure(err error) error {
	var app *appError
	if errors.As(err, &app) {
		return err
	}
	if errors.Is(err, errs.ErrNotFound) ||
		errors.Is(err, errs.ErrInvalidInput) ||
		errors.Is(err, errs.ErrForbidden) {
		return err
	}
	return ErrCommitFailed
}
