package services

import (
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doubtmate/doubtmate/internal/app/models"
	"github.com/doubtmate/doubtmate/internal/app/models/dto"
	"github.com/doubtmate/doubtmate/internal/pkg/apperrors"
)

type chatTestEnv struct {
	users       *fakeUserStore
	doubts      *fakeDoubtStore
	messages    *fakeMessageStore
	broadcaster *fakeBroadcaster
	service     *ChatService
}

func newChatTestEnv(t *testing.T) *chatTestEnv {
	t.Helper()
	users := newFakeUserStore()
	doubts := newFakeDoubtStore(users)
	messages := newFakeMessageStore()
	broadcaster := &fakeBroadcaster{}
	return &chatTestEnv{
		users:       users,
		doubts:      doubts,
		messages:    messages,
		broadcaster: broadcaster,
		service:     NewChatService(messages, users, doubts, broadcaster, zerolog.Nop()),
	}
}

func (e *chatTestEnv) createUser(t *testing.T, name string) *models.User {
	t.Helper()
	u := &models.User{Email: name + "@example.com", Password: "hash", Name: name}
	require.NoError(t, e.users.Create(context.Background(), u))
	return u
}

func (e *chatTestEnv) createDoubt(t *testing.T, authorID int64, title string) *models.Doubt {
	t.Helper()
	d := &models.Doubt{
		AuthorID:    authorID,
		Subject:     "Mathematics",
		Title:       title,
		Description: "A sufficiently long description",
		Priority:    models.DoubtPriorityMedium,
	}
	require.NoError(t, e.doubts.Create(context.Background(), d))
	return d
}

func TestSendMessage(t *testing.T) {
	env := newChatTestEnv(t)
	sender := env.createUser(t, "alice")
	receiver := env.createUser(t, "bob")
	doubt := env.createDoubt(t, receiver.ID, "Need help with limits")

	msg, err := env.service.SendMessage(context.Background(), sender.ID, &dto.SendMessageRequest{
		Receiver: receiver.ID,
		DoubtID:  doubt.ID,
		Content:  "  Can you explain step 2?  ",
	})
	require.NoError(t, err)

	assert.Equal(t, "Can you explain step 2?", msg.Content)
	assert.Equal(t, sender.ID, msg.SenderID)
	assert.Equal(t, "alice", msg.SenderName)
	assert.Equal(t, receiver.ID, msg.ReceiverID)
	assert.Equal(t, "bob", msg.ReceiverName)
	assert.Equal(t, doubt.ID, msg.DoubtID)
	assert.Equal(t, "Need help with limits", msg.DoubtTitle)
	assert.False(t, msg.IsRead)
	assert.Nil(t, msg.ReadAt)
}

func TestSendMessageBroadcastsToConversationRoom(t *testing.T) {
	env := newChatTestEnv(t)
	sender := env.createUser(t, "alice")
	receiver := env.createUser(t, "bob")
	doubt := env.createDoubt(t, receiver.ID, "Need help with limits")

	_, err := env.service.SendMessage(context.Background(), sender.ID, &dto.SendMessageRequest{
		Receiver: receiver.ID,
		DoubtID:  doubt.ID,
		Content:  "hello",
	})
	require.NoError(t, err)

	records := env.broadcaster.records()
	require.Len(t, records, 1)
	// Room id orders the pair lowest id first regardless of who sends
	assert.Equal(t, "1_2_1", records[0].roomID)
}

func TestSendMessageWithoutHub(t *testing.T) {
	env := newChatTestEnv(t)
	env.service = NewChatService(env.messages, env.users, env.doubts, nil, zerolog.Nop())
	sender := env.createUser(t, "alice")
	receiver := env.createUser(t, "bob")
	doubt := env.createDoubt(t, receiver.ID, "Need help with limits")

	msg, err := env.service.SendMessage(context.Background(), sender.ID, &dto.SendMessageRequest{
		Receiver: receiver.ID,
		DoubtID:  doubt.ID,
		Content:  "hello",
	})
	require.NoError(t, err)
	assert.NotZero(t, msg.ID, "persistence does not depend on the relay")
}

func TestSendMessageValidation(t *testing.T) {
	env := newChatTestEnv(t)
	sender := env.createUser(t, "alice")
	receiver := env.createUser(t, "bob")
	doubt := env.createDoubt(t, receiver.ID, "Need help with limits")

	cases := []struct {
		name string
		req  dto.SendMessageRequest
	}{
		{"empty content", dto.SendMessageRequest{Receiver: receiver.ID, DoubtID: doubt.ID, Content: "   "}},
		{"content too long", dto.SendMessageRequest{Receiver: receiver.ID, DoubtID: doubt.ID, Content: strings.Repeat("x", 1001)}},
		{"content too long in runes", dto.SendMessageRequest{Receiver: receiver.ID, DoubtID: doubt.ID, Content: strings.Repeat("ü", 1001)}},
		{"self message", dto.SendMessageRequest{Receiver: sender.ID, DoubtID: doubt.ID, Content: "hello"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := env.service.SendMessage(context.Background(), sender.ID, &tc.req)
			assert.ErrorIs(t, err, apperrors.ErrValidationFailed)
		})
	}
}

func TestSendMessageCountsCharactersNotBytes(t *testing.T) {
	env := newChatTestEnv(t)
	sender := env.createUser(t, "alice")
	receiver := env.createUser(t, "bob")
	doubt := env.createDoubt(t, receiver.ID, "Need help with limits")

	// 1000 two-byte runes: exactly at the character limit
	msg, err := env.service.SendMessage(context.Background(), sender.ID, &dto.SendMessageRequest{
		Receiver: receiver.ID,
		DoubtID:  doubt.ID,
		Content:  strings.Repeat("ü", 1000),
	})
	require.NoError(t, err)
	assert.Equal(t, strings.Repeat("ü", 1000), msg.Content)
}

func TestSendMessageUnknownTargets(t *testing.T) {
	env := newChatTestEnv(t)
	sender := env.createUser(t, "alice")
	receiver := env.createUser(t, "bob")
	doubt := env.createDoubt(t, receiver.ID, "Need help with limits")

	_, err := env.service.SendMessage(context.Background(), sender.ID, &dto.SendMessageRequest{
		Receiver: 999,
		DoubtID:  doubt.ID,
		Content:  "hello",
	})
	assert.ErrorIs(t, err, apperrors.ErrUserNotFound)

	_, err = env.service.SendMessage(context.Background(), sender.ID, &dto.SendMessageRequest{
		Receiver: receiver.ID,
		DoubtID:  999,
		Content:  "hello",
	})
	assert.ErrorIs(t, err, apperrors.ErrDoubtNotFound)

	// Nothing was written and nothing was relayed
	count, err := env.messages.CountUnread(context.Background(), receiver.ID)
	require.NoError(t, err)
	assert.Zero(t, count)
	assert.Empty(t, env.broadcaster.records())
}

func TestGetConversationMarksRead(t *testing.T) {
	env := newChatTestEnv(t)
	alice := env.createUser(t, "alice")
	bob := env.createUser(t, "bob")
	doubt := env.createDoubt(t, bob.ID, "Need help with limits")

	for _, content := range []string{"first", "second", "third"} {
		_, err := env.service.SendMessage(context.Background(), alice.ID, &dto.SendMessageRequest{
			Receiver: bob.ID,
			DoubtID:  doubt.ID,
			Content:  content,
		})
		require.NoError(t, err)
	}

	count, err := env.service.CountUnread(context.Background(), bob.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count.UnreadCount)

	conv, err := env.service.GetConversation(context.Background(), bob.ID, alice.ID, doubt.ID)
	require.NoError(t, err)
	require.Len(t, conv.Messages, 3)
	assert.Equal(t, "first", conv.Messages[0].Content)
	assert.Equal(t, "third", conv.Messages[2].Content)

	count, err = env.service.CountUnread(context.Background(), bob.ID)
	require.NoError(t, err)
	assert.Zero(t, count.UnreadCount, "fetching the conversation marks received messages read")

	// Alice's side stays untouched: she has nothing unread either way
	count, err = env.service.CountUnread(context.Background(), alice.ID)
	require.NoError(t, err)
	assert.Zero(t, count.UnreadCount)
}

func TestGetConversationScopedByDoubt(t *testing.T) {
	env := newChatTestEnv(t)
	alice := env.createUser(t, "alice")
	bob := env.createUser(t, "bob")
	first := env.createDoubt(t, bob.ID, "First doubt")
	second := env.createDoubt(t, bob.ID, "Second doubt")

	_, err := env.service.SendMessage(context.Background(), alice.ID, &dto.SendMessageRequest{
		Receiver: bob.ID, DoubtID: first.ID, Content: "about the first",
	})
	require.NoError(t, err)
	_, err = env.service.SendMessage(context.Background(), alice.ID, &dto.SendMessageRequest{
		Receiver: bob.ID, DoubtID: second.ID, Content: "about the second",
	})
	require.NoError(t, err)

	conv, err := env.service.GetConversation(context.Background(), bob.ID, alice.ID, first.ID)
	require.NoError(t, err)
	require.Len(t, conv.Messages, 1)
	assert.Equal(t, "about the first", conv.Messages[0].Content)

	// Reading the first conversation leaves the second one unread
	count, err := env.service.CountUnread(context.Background(), bob.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count.UnreadCount)
}

func TestMarkRead(t *testing.T) {
	env := newChatTestEnv(t)
	alice := env.createUser(t, "alice")
	bob := env.createUser(t, "bob")
	doubt := env.createDoubt(t, bob.ID, "Need help with limits")

	sent, err := env.service.SendMessage(context.Background(), alice.ID, &dto.SendMessageRequest{
		Receiver: bob.ID, DoubtID: doubt.ID, Content: "hello",
	})
	require.NoError(t, err)

	// Only the receiver may mark it read
	_, err = env.service.MarkRead(context.Background(), sent.ID, alice.ID)
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)

	msg, err := env.service.MarkRead(context.Background(), sent.ID, bob.ID)
	require.NoError(t, err)
	assert.True(t, msg.IsRead)
	require.NotNil(t, msg.ReadAt)
	firstReadAt := *msg.ReadAt

	// Marking again is a no-op and keeps the original read time
	msg, err = env.service.MarkRead(context.Background(), sent.ID, bob.ID)
	require.NoError(t, err)
	assert.True(t, msg.IsRead)
	require.NotNil(t, msg.ReadAt)
	assert.Equal(t, firstReadAt, *msg.ReadAt)
}

func TestMarkReadUnknownMessage(t *testing.T) {
	env := newChatTestEnv(t)
	bob := env.createUser(t, "bob")

	_, err := env.service.MarkRead(context.Background(), 999, bob.ID)
	assert.ErrorIs(t, err, apperrors.ErrMessageNotFound)
}
