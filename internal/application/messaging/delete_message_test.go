package messaging_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dialog-app/dialog/internal/application/messaging"
	"github.com/dialog-app/dialog/internal/domain/errs"
)

func setupConversation(t *testing.T) (*messaging.Service, *messaging.MockMessageStore, int64) {
	t.Helper()

	store := messaging.NewMockMessageStore()
	directory := messaging.NewMockUserDirectory()
	directory.AddUser("alice")
	directory.AddUser("bob")
	directory.AddUser("carol")

	svc := messaging.NewService(store, directory, messaging.NewMockUnitOfWork(), nil)

	result, err := svc.Send(context.Background(), messaging.SendMessageCommand{
		SenderUsername:    "alice",
		RecipientUsername: "bob",
		Content:           "hello",
	})
	require.NoError(t, err)

	return svc, store, result.Value.ID()
}

func listIDs(t *testing.T, svc *messaging.Service, username string) []int64 {
	t.Helper()
	result, err := svc.List(context.Background(), messaging.ListMessagesQuery{
		Username: username,
		Page:     1,
		PageSize: 50,
	})
	require.NoError(t, err)
	ids := make([]int64, 0, len(result.Items))
	for _, msg := range result.Items {
		ids = append(ids, msg.ID())
	}
	return ids
}

func TestDeleteMessageUseCase_OneSided(t *testing.T) {
	svc, store, msgID := setupConversation(t)

	err := svc.Delete(context.Background(), messaging.DeleteMessageCommand{
		Username:  "alice",
		MessageID: msgID,
	})
	require.NoError(t, err)

	// sender no longer sees it, recipient still does
	assert.NotContains(t, listIDs(t, svc, "alice"), msgID)
	assert.Contains(t, listIDs(t, svc, "bob"), msgID)

	// the entity survives, one-sided
	msg, err := store.FindByID(context.Background(), msgID)
	require.NoError(t, err)
	assert.True(t, msg.SenderDeleted())
	assert.False(t, msg.RecipientDeleted())
}

func TestDeleteMessageUseCase_PurgeAfterBothSides(t *testing.T) {
	orders := [][]string{
		{"alice", "bob"},
		{"bob", "alice"},
	}

	for _, order := range orders {
		svc, store, msgID := setupConversation(t)

		for _, username := range order {
			err := svc.Delete(context.Background(), messaging.DeleteMessageCommand{
				Username:  username,
				MessageID: msgID,
			})
			require.NoError(t, err)
		}

		_, err := store.FindByID(context.Background(), msgID)
		require.ErrorIs(t, err, errs.ErrNotFound)

		// any further delete fails with not-found, whoever asks
		for _, username := range []string{"alice", "bob", "carol"} {
			err = svc.Delete(context.Background(), messaging.DeleteMessageCommand{
				Username:  username,
				MessageID: msgID,
			})
			require.ErrorIs(t, err, messaging.ErrMessageNotFound)
		}
	}
}

func TestDeleteMessageUseCase_NotParticipant(t *testing.T) {
	svc, store, msgID := setupConversation(t)

	err := svc.Delete(context.Background(), messaging.DeleteMessageCommand{
		Username:  "carol",
		MessageID: msgID,
	})
	require.ErrorIs(t, err, messaging.ErrNotParticipant)

	// both flags untouched
	msg, err := store.FindByID(context.Background(), msgID)
	require.NoError(t, err)
	assert.False(t, msg.SenderDeleted())
	assert.False(t, msg.RecipientDeleted())
}

func TestDeleteMessageUseCase_UnknownID(t *testing.T) {
	svc, _, _ := setupConversation(t)

	err := svc.Delete(context.Background(), messaging.DeleteMessageCommand{
		Username:  "alice",
		MessageID: 999,
	})

	require.ErrorIs(t, err, messaging.ErrMessageNotFound)
}

func TestDeleteMessageUseCase_CommitFailure(t *testing.T) {
	store := messaging.NewMockMessageStore()
	directory := messaging.NewMockUserDirectory()
	directory.AddUser("alice")
	directory.AddUser("bob")

	sendSvc := messaging.NewService(store, directory, messaging.NewMockUnitOfWork(), nil)
	result, err := sendSvc.Send(context.Background(), messaging.SendMessageCommand{
		SenderUsername: "alice", RecipientUsername: "bob", Content: "hello",
	})
	require.NoError(t, err)

	failing := messaging.NewMockUnitOfWork()
	failing.CommitErr = assert.AnError
	useCase := messaging.NewDeleteMessageUseCase(store, directory, failing, nil)

	err = useCase.Execute(context.Background(), messaging.DeleteMessageCommand{
		Username:  "alice",
		MessageID: result.Value.ID(),
	})

	require.ErrorIs(t, err, messaging.ErrCommitFailed)
}

func TestDeleteMessageUseCase_ConcurrentTwoPartyDelete(t *testing.T) {
	svc, store, msgID := setupConversation(t)

	var wg sync.WaitGroup
	errs2 := make([]error, 2)
	for i, username := range []string{"alice", "bob"} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs2[i] = svc.Delete(context.Background(), messaging.DeleteMessageCommand{
				Username:  username,
				MessageID: msgID,
			})
		}()
	}
	wg.Wait()

	// both deletes report success and the message is gone
	require.NoError(t, errs2[0])
	require.NoError(t, errs2[1])

	_, err := store.FindByID(context.Background(), msgID)
	require.ErrorIs(t, err, errs.ErrNotFound)
}

// The walkthrough from the public contract: send, both sides list, one-sided
// delete, purge, and the trailing not-found.
func TestMessagingLifecycle(t *testing.T) {
	store := messaging.NewMockMessageStore()
	directory := messaging.NewMockUserDirectory()
	directory.AddUser("alice")
	directory.AddUser("bob")
	svc := messaging.NewService(store, directory, messaging.NewMockUnitOfWork(), nil)

	sent, err := svc.Send(context.Background(), messaging.SendMessageCommand{
		SenderUsername: "alice", RecipientUsername: "bob", Content: "hello",
	})
	require.NoError(t, err)
	msgID := sent.Value.ID()

	bobView := listIDs(t, svc, "bob")
	require.Contains(t, bobView, msgID)

	require.NoError(t, svc.Delete(context.Background(), messaging.DeleteMessageCommand{
		Username: "bob", MessageID: msgID,
	}))
	assert.NotContains(t, listIDs(t, svc, "bob"), msgID)
	assert.Contains(t, listIDs(t, svc, "alice"), msgID)

	require.NoError(t, svc.Delete(context.Background(), messaging.DeleteMessageCommand{
		Username: "alice", MessageID: msgID,
	}))

	err = svc.Delete(context.Background(), messaging.DeleteMessageCommand{
		Username: "alice", MessageID: msgID,
	})
	require.ErrorIs(t, err, messaging.ErrMessageNotFound)
}
