package messaging

import (
	"context"
	"errors"
	"fmt"

	"github.com/dialog-app/dialog/internal/domain/errs"
)

// GetThreadUseCase handles retrieval of a two-party conversation
type GetThreadUseCase struct {
	store     MessageStore
	directory UserDirectory
}

// NewGetThreadUseCase creates new GetThreadUseCase
func NewGetThreadUseCase(store MessageStore, directory UserDirectory) *GetThreadUseCase {
	return &GetThreadUseCase{
		store:     store,
		directory: directory,
	}
}

// Execute returns the conversation between the requester and another user,
// oldest first, limited to messages the requester has not deleted.
func (uc *GetThreadUseCase) Execute(
	ctx context.Context,
	query ThreadQuery,
) (ThreadResult, error) {
	u, err := uc.directory.Resolve(ctx, query.Username)
	if err != nil {
		return ThreadResult{}, fmt.Errorf("failed to resolve user: %w", err)
	}

	other, err := uc.directory.Resolve(ctx, query.OtherUsername)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return ThreadResult{}, ErrRecipientNotFound
		}
		return ThreadResult{}, fmt.Errorf("failed to resolve user: %w", err)
	}

	items, err := uc.store.FindBetween(ctx, u.ID(), other.ID())
	if err != nil {
		return ThreadResult{}, fmt.Errorf("failed to find thread: %w", err)
	}

	return ThreadResult{Items: items}, nil
}
