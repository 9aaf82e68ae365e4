// Package messaging contains the direct-messaging use cases: sending,
// listing, conversation threads and the dual soft-delete state machine.
// Persistence and identity resolution are consumed through interfaces
// declared here; every mutation commits through a UnitOfWork.
package messaging

import (
	"context"
	"log/slog"
)

// Service bundles the messaging use cases behind one facade for the
// transport layer.
type Service struct {
	send   *SendMessageUseCase
	list   *ListMessagesUseCase
	thread *GetThreadUseCase
	delete *DeleteMessageUseCase
}

// NewService wires the use cases over a store, directory and unit of work.
func NewService(
	store MessageStore,
	directory UserDirectory,
	uow UnitOfWork,
	logger *slog.Logger,
) *Service {
	return &Service{
		send:   NewSendMessageUseCase(store, directory, uow, logger),
		list:   NewListMessagesUseCase(store, directory),
		thread: NewGetThreadUseCase(store, directory),
		delete: NewDeleteMessageUseCase(store, directory, uow, logger),
	}
}

// Send sends a direct message.
func (s *Service) Send(ctx context.Context, cmd SendMessageCommand) (Result, error) {
	return s.send.Execute(ctx, cmd)
}

// List pages through the requester's mailbox.
func (s *Service) List(ctx context.Context, query ListMessagesQuery) (PagedResult, error) {
	return s.list.Execute(ctx, query)
}

// Thread returns the conversation with another user.
func (s *Service) Thread(ctx context.Context, query ThreadQuery) (ThreadResult, error) {
	return s.thread.Execute(ctx, query)
}

// Delete removes the caller's side of a message.
func (s *Service) Delete(ctx context.Context, cmd DeleteMessageCommand) error {
	return s.delete.Execute(ctx, cmd)
}
