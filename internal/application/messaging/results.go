package messaging

import (
	"github.com/dialog-app/dialog/internal/domain/message"
)

// Result holds a single message outcome.
type Result struct {
	Value *message.Message
}

// PagedResult is a slice of an ordered result set plus its position metadata.
type PagedResult struct {
	Items       []*message.Message
	CurrentPage int
	PageSize    int
	TotalCount  int
	TotalPages  int
}

// ThreadResult holds a two-party conversation.
type ThreadResult struct {
	Items []*message.Message
}
