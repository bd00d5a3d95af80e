package services

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doubtmate/doubtmate/internal/app/models"
	"github.com/doubtmate/doubtmate/internal/app/models/dto"
)

// Walks the full help flow across services: ask, respond, chat, accept,
// review. The stores are shared so the side effects compose like they do
// against the real database.
func TestHelpFlowEndToEnd(t *testing.T) {
	ctx := context.Background()
	users := newFakeUserStore()
	doubts := newFakeDoubtStore(users)
	messages := newFakeMessageStore()
	broadcaster := &fakeBroadcaster{}

	reputation := NewReputationService(users, zerolog.Nop())
	doubtService := NewDoubtService(doubts, users, reputation, zerolog.Nop())
	chatService := NewChatService(messages, users, doubts, broadcaster, zerolog.Nop())

	asker := &models.User{Email: "asker@example.com", Password: "hash", Name: "Asker"}
	helper := &models.User{Email: "helper@example.com", Password: "hash", Name: "Helper"}
	require.NoError(t, users.Create(ctx, asker))
	require.NoError(t, users.Create(ctx, helper))

	// Asker posts a doubt
	created, err := doubtService.CreateDoubt(ctx, asker.ID, &dto.CreateDoubtRequest{
		Subject:     "Mathematics",
		Title:       "Stuck on integration by parts",
		Description: "I keep going in circles on the integral of x*e^x.",
	})
	require.NoError(t, err)
	assert.Equal(t, string(models.DoubtStatusOpen), created.Status)

	// Helper finds it, which counts as a view
	viewed, err := doubtService.GetDoubt(ctx, created.ID, helper.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, viewed.Views)

	// Helper responds
	withResponse, err := doubtService.AddResponse(ctx, created.ID, helper.ID, &dto.AddResponseRequest{
		Content: "Pick u = x and dv = e^x dx, then it falls out in one step.",
	})
	require.NoError(t, err)
	require.Len(t, withResponse.Responses, 1)

	// They discuss it over chat; the relay sees the message too
	_, err = chatService.SendMessage(ctx, asker.ID, &dto.SendMessageRequest{
		Receiver: helper.ID,
		DoubtID:  created.ID,
		Content:  "Why does dv = e^x dx work better here?",
	})
	require.NoError(t, err)
	_, err = chatService.SendMessage(ctx, helper.ID, &dto.SendMessageRequest{
		Receiver: asker.ID,
		DoubtID:  created.ID,
		Content:  "Because integrating e^x is free, differentiating x kills it.",
	})
	require.NoError(t, err)
	assert.Len(t, broadcaster.records(), 2)

	// Both directions share one room
	assert.Equal(t, broadcaster.records()[0].roomID, broadcaster.records()[1].roomID)

	unread, err := chatService.CountUnread(ctx, asker.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), unread.UnreadCount)

	conv, err := chatService.GetConversation(ctx, asker.ID, helper.ID, created.ID)
	require.NoError(t, err)
	require.Len(t, conv.Messages, 2)

	unread, err = chatService.CountUnread(ctx, asker.ID)
	require.NoError(t, err)
	assert.Zero(t, unread.UnreadCount)

	// Asker accepts the response
	resolved, err := doubtService.AcceptResponse(ctx, created.ID, withResponse.Responses[0].ID, asker.ID)
	require.NoError(t, err)
	assert.Equal(t, string(models.DoubtStatusResolved), resolved.Status)
	require.NotNil(t, resolved.SolvedBy)
	assert.Equal(t, helper.ID, *resolved.SolvedBy)

	// And leaves a review
	profile, err := reputation.AddReview(ctx, helper.ID, asker.ID, &dto.ReviewRequest{Rating: 5})
	require.NoError(t, err)
	assert.Equal(t, 1, profile.TotalReviews)
	assert.Equal(t, 1, profile.DoubtsSolved)
	assert.Zero(t, profile.HelpfulResponses)
}
