package message_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dialog-app/dialog/internal/domain/errs"
	"github.com/dialog-app/dialog/internal/domain/message"
	"github.com/dialog-app/dialog/internal/domain/user"
	"github.com/dialog-app/dialog/internal/domain/uuid"
)

func testUser(t *testing.T, username string) user.User {
	t.Helper()
	u, err := user.New(uuid.NewUUID(), username)
	require.NoError(t, err)
	return u
}

func TestNewMessage(t *testing.T) {
	alice := testUser(t, "alice")
	bob := testUser(t, "bob")

	msg, err := message.NewMessage(1, alice, bob, "hello")

	require.NoError(t, err)
	assert.Equal(t, int64(1), msg.ID())
	assert.Equal(t, alice.ID(), msg.SenderID())
	assert.Equal(t, bob.ID(), msg.RecipientID())
	assert.Equal(t, "alice", msg.SenderUsername())
	assert.Equal(t, "bob", msg.RecipientUsername())
	assert.Equal(t, "hello", msg.Content())
	assert.False(t, msg.SenderDeleted())
	assert.False(t, msg.RecipientDeleted())
	assert.Equal(t, message.StateActive, msg.State())
	assert.False(t, msg.SentAt().IsZero())
}

func TestNewMessage_EmptyContent(t *testing.T) {
	alice := testUser(t, "alice")
	bob := testUser(t, "bob")

	_, err := message.NewMessage(1, alice, bob, "")

	require.ErrorIs(t, err, errs.ErrInvalidInput)
}

func TestNewMessage_SameParty(t *testing.T) {
	alice := testUser(t, "alice")

	_, err := message.NewMessage(1, alice, alice, "hi")

	require.ErrorIs(t, err, errs.ErrInvalidInput)
}

func TestMessage_SideOf(t *testing.T) {
	alice := testUser(t, "alice")
	bob := testUser(t, "bob")
	msg, err := message.NewMessage(1, alice, bob, "hello")
	require.NoError(t, err)

	assert.Equal(t, message.SideSender, msg.SideOf(alice.ID()))
	assert.Equal(t, message.SideRecipient, msg.SideOf(bob.ID()))
	assert.Equal(t, message.SideNone, msg.SideOf(uuid.NewUUID()))
}

func TestMessage_MarkDeletedFor(t *testing.T) {
	alice := testUser(t, "alice")
	bob := testUser(t, "bob")
	msg, err := message.NewMessage(1, alice, bob, "hello")
	require.NoError(t, err)

	msg.MarkDeletedFor(alice.ID())
	assert.True(t, msg.SenderDeleted())
	assert.False(t, msg.RecipientDeleted())
	assert.Equal(t, message.StateOneSided, msg.State())
	assert.False(t, msg.IsFullyDeleted())

	// non-party marking changes nothing
	msg.MarkDeletedFor(uuid.NewUUID())
	assert.True(t, msg.SenderDeleted())
	assert.False(t, msg.RecipientDeleted())

	msg.MarkDeletedFor(bob.ID())
	assert.True(t, msg.RecipientDeleted())
	assert.True(t, msg.IsFullyDeleted())
}

func TestMessage_VisibleTo(t *testing.T) {
	alice := testUser(t, "alice")
	bob := testUser(t, "bob")
	stranger := uuid.NewUUID()

	msg, err := message.NewMessage(1, alice, bob, "hello")
	require.NoError(t, err)

	assert.True(t, msg.VisibleTo(alice.ID()))
	assert.True(t, msg.VisibleTo(bob.ID()))
	assert.False(t, msg.VisibleTo(stranger))

	msg.MarkDeletedFor(alice.ID())
	assert.False(t, msg.VisibleTo(alice.ID()))
	assert.True(t, msg.VisibleTo(bob.ID()))
}

func TestRestore(t *testing.T) {
	senderID := uuid.NewUUID()
	recipientID := uuid.NewUUID()

	msg, err := message.NewMessage(7, testUser(t, "alice"), testUser(t, "bob"), "hi")
	require.NoError(t, err)

	restored := message.Restore(
		7, senderID, recipientID,
		"alice", "bob", "hi", msg.SentAt(),
		true, false,
	)

	assert.Equal(t, int64(7), restored.ID())
	assert.True(t, restored.SenderDeleted())
	assert.False(t, restored.RecipientDeleted())
	assert.Equal(t, message.StateOneSided, restored.State())
}
