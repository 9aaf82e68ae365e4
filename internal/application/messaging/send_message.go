package messaging

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dialog-app/dialog/internal/domain/errs"
	"github.com/dialog-app/dialog/internal/domain/message"
	"github.com/dialog-app/dialog/internal/domain/user"
)

// SendMessageUseCase handles sending direct messages
type SendMessageUseCase struct {
	store     MessageStore
	directory UserDirectory
	uow       UnitOfWork
	logger    *slog.Logger
}

// NewSendMessageUseCase creates new SendMessageUseCase
func NewSendMessageUseCase(
	store MessageStore,
	directory UserDirectory,
	uow UnitOfWork,
	logger *slog.Logger,
) *SendMessageUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &SendMessageUseCase{
		store:     store,
		directory: directory,
		uow:       uow,
		logger:    logger,
	}
}

// Execute performs message sending. The created message is durable only after
// the unit of work commits; on any failure nothing has been sent.
func (uc *SendMessageUseCase) Execute(
	ctx context.Context,
	cmd SendMessageCommand,
) (Result, error) {
	if err := uc.validate(cmd); err != nil {
		return Result{}, err
	}

	sender, err := uc.directory.Resolve(ctx, cmd.SenderUsername)
	if err != nil {
		// The sender comes from the authenticated identity; failing to
		// resolve it is an infrastructure problem, not a client error.
		return Result{}, fmt.Errorf("failed to resolve sender: %w", err)
	}

	recipient, err := uc.directory.Resolve(ctx, cmd.RecipientUsername)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return Result{}, ErrRecipientNotFound
		}
		return Result{}, fmt.Errorf("failed to resolve recipient: %w", err)
	}

	msg, err := uc.create(ctx, sender, recipient, cmd.Content)
	if err != nil {
		return Result{}, err
	}

	uc.logger.DebugContext(ctx, "message sent",
		slog.Int64("message_id", msg.ID()),
		slog.String("sender", sender.Username()),
		slog.String("recipient", recipient.Username()),
	)

	return Result{Value: msg}, nil
}

// create builds and persists the message inside one unit of work.
func (uc *SendMessageUseCase) create(
	ctx context.Context,
	sender, recipient user.User,
	content string,
) (*message.Message, error) {
	var msg *message.Message

	err := uc.uow.Execute(ctx, func(ctx context.Context) error {
		id, idErr := uc.store.NextID(ctx)
		if idErr != nil {
			return fmt.Errorf("failed to allocate message id: %w", idErr)
		}

		m, newErr := message.NewMessage(id, sender, recipient, content)
		if newErr != nil {
			return newErr
		}

		if saveErr := uc.store.Save(ctx, m); saveErr != nil {
			return fmt.Errorf("failed to save message: %w", saveErr)
		}

		msg = m
		return nil
	})
	if err != nil {
		return nil, commitFailure(err)
	}

	return msg, nil
}

func (uc *SendMessageUseCase) validate(cmd SendMessageCommand) error {
	if strings.TrimSpace(cmd.Content) == "" {
		return ErrEmptyContent
	}
	if len(cmd.Content) > MaxContentLength {
		return ErrContentTooLong
	}
	if strings.EqualFold(cmd.SenderUsername, cmd.RecipientUsername) {
		return ErrSelfMessage
	}
	return nil
}
