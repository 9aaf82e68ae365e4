package messaging

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dialog-app/dialog/internal/domain/errs"
	"github.com/dialog-app/dialog/internal/domain/message"
)

// DeleteMessageUseCase handles the dual soft-delete of a message.
// Each party hides only its own copy; the row is purged in the same commit
// that sets the second flag, never by a deferred sweep.
type DeleteMessageUseCase struct {
	store     MessageStore
	directory UserDirectory
	uow       UnitOfWork
	logger    *slog.Logger
}

// NewDeleteMessageUseCase creates new DeleteMessageUseCase
func NewDeleteMessageUseCase(
	store MessageStore,
	directory UserDirectory,
	uow UnitOfWork,
	logger *slog.Logger,
) *DeleteMessageUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &DeleteMessageUseCase{
		store:     store,
		directory: directory,
		uow:       uow,
		logger:    logger,
	}
}

// Execute marks the caller's side deleted and purges the message once both
// sides are gone. Everything happens inside one unit of work, so a concurrent
// delete by the other party serializes against this one: whichever commits
// second observes the first flag and performs the purge exactly once.
func (uc *DeleteMessageUseCase) Execute(
	ctx context.Context,
	cmd DeleteMessageCommand,
) error {
	if cmd.MessageID <= 0 {
		return ErrMessageNotFound
	}

	u, err := uc.directory.Resolve(ctx, cmd.Username)
	if err != nil {
		return fmt.Errorf("failed to resolve user: %w", err)
	}

	purged := false
	err = uc.uow.Execute(ctx, func(ctx context.Context) error {
		msg, findErr := uc.store.FindByID(ctx, cmd.MessageID)
		if findErr != nil {
			if errors.Is(findErr, errs.ErrNotFound) {
				return ErrMessageNotFound
			}
			return fmt.Errorf("failed to load message: %w", findErr)
		}

		side := msg.SideOf(u.ID())
		if side == message.SideNone {
			return ErrNotParticipant
		}

		updated, markErr := uc.store.MarkDeleted(ctx, cmd.MessageID, side)
		if markErr != nil {
			if errors.Is(markErr, errs.ErrNotFound) {
				return ErrMessageNotFound
			}
			return fmt.Errorf("failed to mark message deleted: %w", markErr)
		}

		if updated.IsFullyDeleted() {
			if delErr := uc.store.Delete(ctx, cmd.MessageID); delErr != nil {
				if errors.Is(delErr, errs.ErrNotFound) {
					// Already purged inside this transaction's view; the
					// caller's delete still succeeded.
					return nil
				}
				return fmt.Errorf("failed to purge message: %w", delErr)
			}
			purged = true
		}

		return nil
	})
	if err != nil {
		return commitFailure(err)
	}

	uc.logger.DebugContext(ctx, "message deleted",
		slog.Int64("message_id", cmd.MessageID),
		slog.String("username", cmd.Username),
		slog.Bool("purged", purged),
	)

	return nil
}
