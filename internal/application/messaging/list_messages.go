package messaging

import (
	"context"
	"fmt"
)

// ListMessagesUseCase handles paging through a user's mailbox
type ListMessagesUseCase struct {
	store     MessageStore
	directory UserDirectory
}

// NewListMessagesUseCase creates new ListMessagesUseCase
func NewListMessagesUseCase(store MessageStore, directory UserDirectory) *ListMessagesUseCase {
	return &ListMessagesUseCase{
		store:     store,
		directory: directory,
	}
}

// Execute returns one page of the requester's combined inbox/outbox, most
// recent first. Pages past the end are not an error: they come back empty
// with the true total.
func (uc *ListMessagesUseCase) Execute(
	ctx context.Context,
	query ListMessagesQuery,
) (PagedResult, error) {
	if err := uc.validate(&query); err != nil {
		return PagedResult{}, err
	}

	u, err := uc.directory.Resolve(ctx, query.Username)
	if err != nil {
		return PagedResult{}, fmt.Errorf("failed to resolve user: %w", err)
	}

	items, total, err := uc.store.FindForUser(ctx, u.ID(), query.Scope, Pagination{
		Page:     query.Page,
		PageSize: query.PageSize,
	})
	if err != nil {
		return PagedResult{}, fmt.Errorf("failed to find messages: %w", err)
	}

	return PagedResult{
		Items:       items,
		CurrentPage: query.Page,
		PageSize:    query.PageSize,
		TotalCount:  total,
		TotalPages:  (total + query.PageSize - 1) / query.PageSize,
	}, nil
}

func (uc *ListMessagesUseCase) validate(query *ListMessagesQuery) error {
	if query.Scope == "" {
		query.Scope = ScopeAll
	}
	if !query.Scope.Valid() {
		return ErrInvalidScope
	}

	if query.Page < 1 {
		query.Page = 1
	}
	if query.PageSize <= 0 {
		query.PageSize = DefaultPageSize
	}
	if query.PageSize > MaxPageSize {
		query.PageSize = MaxPageSize
	}

	return nil
}
