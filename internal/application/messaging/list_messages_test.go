package messaging_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dialog-app/dialog/internal/application/messaging"
)

// sendMessages sends n messages from sender to recipient and returns the service.
func setupMailbox(t *testing.T, n int) (*messaging.Service, *messaging.MockMessageStore, *messaging.MockUserDirectory) {
	t.Helper()

	store := messaging.NewMockMessageStore()
	directory := messaging.NewMockUserDirectory()
	directory.AddUser("alice")
	directory.AddUser("bob")

	svc := messaging.NewService(store, directory, messaging.NewMockUnitOfWork(), nil)

	for i := range n {
		_, err := svc.Send(context.Background(), messaging.SendMessageCommand{
			SenderUsername:    "alice",
			RecipientUsername: "bob",
			Content:           fmt.Sprintf("message %d", i+1),
		})
		require.NoError(t, err)
	}

	return svc, store, directory
}

func TestListMessagesUseCase_BothPartiesSeeNewMessage(t *testing.T) {
	svc, _, _ := setupMailbox(t, 1)

	for _, username := range []string{"alice", "bob"} {
		result, err := svc.List(context.Background(), messaging.ListMessagesQuery{
			Username: username,
			Page:     1,
			PageSize: 10,
		})
		require.NoError(t, err)
		require.Len(t, result.Items, 1)
		assert.Equal(t, "message 1", result.Items[0].Content())
	}
}

func TestListMessagesUseCase_Pagination(t *testing.T) {
	svc, _, _ := setupMailbox(t, 25)

	seen := make(map[int64]int)
	pageSizes := []int{10, 10, 5}

	for page := 1; page <= 3; page++ {
		result, err := svc.List(context.Background(), messaging.ListMessagesQuery{
			Username: "bob",
			Page:     page,
			PageSize: 10,
		})
		require.NoError(t, err)
		assert.Len(t, result.Items, pageSizes[page-1])
		assert.Equal(t, page, result.CurrentPage)
		assert.Equal(t, 10, result.PageSize)
		assert.Equal(t, 25, result.TotalCount)
		assert.Equal(t, 3, result.TotalPages)

		for _, msg := range result.Items {
			seen[msg.ID()]++
		}
	}

	// pages are disjoint and together cover all 25 exactly once
	assert.Len(t, seen, 25)
	for id, count := range seen {
		assert.Equalf(t, 1, count, "message %d appeared %d times", id, count)
	}
}

func TestListMessagesUseCase_NewestFirst(t *testing.T) {
	svc, _, _ := setupMailbox(t, 5)

	result, err := svc.List(context.Background(), messaging.ListMessagesQuery{
		Username: "alice",
		Page:     1,
		PageSize: 10,
	})
	require.NoError(t, err)
	require.Len(t, result.Items, 5)

	for i := 1; i < len(result.Items); i++ {
		prev, cur := result.Items[i-1], result.Items[i]
		assert.False(t, cur.SentAt().After(prev.SentAt()))
	}
}

func TestListMessagesUseCase_OutOfRangePage(t *testing.T) {
	svc, _, _ := setupMailbox(t, 3)

	result, err := svc.List(context.Background(), messaging.ListMessagesQuery{
		Username: "bob",
		Page:     7,
		PageSize: 10,
	})

	require.NoError(t, err)
	assert.Empty(t, result.Items)
	assert.Equal(t, 3, result.TotalCount)
	assert.Equal(t, 1, result.TotalPages)
}

func TestListMessagesUseCase_Defaults(t *testing.T) {
	svc, _, _ := setupMailbox(t, 12)

	result, err := svc.List(context.Background(), messaging.ListMessagesQuery{
		Username: "bob",
	})

	require.NoError(t, err)
	assert.Equal(t, 1, result.CurrentPage)
	assert.Equal(t, messaging.DefaultPageSize, result.PageSize)
	assert.Len(t, result.Items, messaging.DefaultPageSize)
}

func TestListMessagesUseCase_PageSizeClamped(t *testing.T) {
	svc, _, _ := setupMailbox(t, 1)

	result, err := svc.List(context.Background(), messaging.ListMessagesQuery{
		Username: "bob",
		Page:     1,
		PageSize: 500,
	})

	require.NoError(t, err)
	assert.Equal(t, messaging.MaxPageSize, result.PageSize)
}

func TestListMessagesUseCase_Scopes(t *testing.T) {
	store := messaging.NewMockMessageStore()
	directory := messaging.NewMockUserDirectory()
	directory.AddUser("alice")
	directory.AddUser("bob")
	svc := messaging.NewService(store, directory, messaging.NewMockUnitOfWork(), nil)

	_, err := svc.Send(context.Background(), messaging.SendMessageCommand{
		SenderUsername: "alice", RecipientUsername: "bob", Content: "from alice",
	})
	require.NoError(t, err)
	_, err = svc.Send(context.Background(), messaging.SendMessageCommand{
		SenderUsername: "bob", RecipientUsername: "alice", Content: "from bob",
	})
	require.NoError(t, err)

	inbox, err := svc.List(context.Background(), messaging.ListMessagesQuery{
		Username: "alice", Scope: messaging.ScopeInbox,
	})
	require.NoError(t, err)
	require.Len(t, inbox.Items, 1)
	assert.Equal(t, "from bob", inbox.Items[0].Content())

	outbox, err := svc.List(context.Background(), messaging.ListMessagesQuery{
		Username: "alice", Scope: messaging.ScopeOutbox,
	})
	require.NoError(t, err)
	require.Len(t, outbox.Items, 1)
	assert.Equal(t, "from alice", outbox.Items[0].Content())

	all, err := svc.List(context.Background(), messaging.ListMessagesQuery{
		Username: "alice",
	})
	require.NoError(t, err)
	assert.Len(t, all.Items, 2)
}

func TestListMessagesUseCase_InvalidScope(t *testing.T) {
	svc, _, _ := setupMailbox(t, 1)

	_, err := svc.List(context.Background(), messaging.ListMessagesQuery{
		Username: "bob",
		Scope:    "unread",
	})

	require.ErrorIs(t, err, messaging.ErrInvalidScope)
}
