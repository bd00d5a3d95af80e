package services

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/doubtmate/doubtmate/internal/app/models"
	"github.com/doubtmate/doubtmate/internal/app/models/dto"
	"github.com/doubtmate/doubtmate/internal/pkg/apperrors"
	"github.com/doubtmate/doubtmate/internal/pkg/websocket"
)

const (
	messageMaxLen      = 1000
	conversationWindow = 100
)

// ChatService persists direct messages between two users about one doubt
// and forwards them to the realtime relay on a best-effort basis
type ChatService struct {
	messages MessageStore
	users    UserStore
	doubts   DoubtStore
	hub      RoomBroadcaster
	logger   zerolog.Logger
}

// NewChatService creates a new ChatService
func NewChatService(messages MessageStore, users UserStore, doubts DoubtStore, hub RoomBroadcaster, logger zerolog.Logger) *ChatService {
	return &ChatService{
		messages: messages,
		users:    users,
		doubts:   doubts,
		hub:      hub,
		logger:   logger.With().Str("service", "chat").Logger(),
	}
}

// SendMessage persists a message and pushes it to the conversation's relay
// room. Both participants' names and the doubt title are captured as
// snapshots; later renames do not rewrite history. The relay push happens
// only after the message is durably stored, and its failure or an empty
// room never affects the stored result.
func (s *ChatService) SendMessage(ctx context.Context, senderID int64, req *dto.SendMessageRequest) (*dto.MessageResponse, error) {
	content := strings.TrimSpace(req.Content)
	if content == "" {
		return nil, apperrors.NewValidationError("content", "content is required")
	}
	if utf8.RuneCountInString(content) > messageMaxLen {
		return nil, apperrors.NewValidationError("content", "content must be at most 1000 characters")
	}
	if req.Receiver == senderID {
		return nil, apperrors.NewValidationError("receiver", "receiver must be another user")
	}

	sender, err := s.users.FindByID(ctx, senderID)
	if err != nil {
		return nil, err
	}
	receiver, err := s.users.FindByID(ctx, req.Receiver)
	if err != nil {
		return nil, err
	}
	doubt, err := s.doubts.GetByID(ctx, req.DoubtID)
	if err != nil {
		return nil, err
	}

	message := &models.Message{
		SenderID:     sender.ID,
		SenderName:   sender.Name,
		ReceiverID:   receiver.ID,
		ReceiverName: receiver.Name,
		Content:      content,
		DoubtID:      doubt.ID,
		DoubtTitle:   doubt.Title,
		Sender:       sender,
		Receiver:     receiver,
	}
	if err := s.messages.Create(ctx, message); err != nil {
		return nil, err
	}

	resp := dto.ToMessageResponse(message)

	if s.hub != nil {
		roomID := websocket.ChatRoomID(sender.ID, receiver.ID, doubt.ID)
		s.hub.BroadcastToRoom(roomID, struct {
			Event   string              `json:"event"`
			RoomID  string              `json:"roomId"`
			Message dto.MessageResponse `json:"message"`
		}{
			Event:   websocket.EventMessage,
			RoomID:  roomID,
			Message: resp,
		})
	}

	s.logger.Info().
		Int64("messageID", message.ID).
		Int64("senderID", sender.ID).
		Int64("receiverID", receiver.ID).
		Int64("doubtID", doubt.ID).
		Msg("Message sent")
	return &resp, nil
}

// GetConversation returns the most recent window of the conversation
// between the caller and another user about one doubt, oldest first, and
// marks the unread messages addressed to the caller in it as read
func (s *ChatService) GetConversation(ctx context.Context, callerID, otherID, doubtID int64) (*dto.ConversationResponse, error) {
	messages, err := s.messages.Conversation(ctx, doubtID, callerID, otherID, conversationWindow)
	if err != nil {
		return nil, err
	}

	if err := s.messages.MarkConversationRead(ctx, doubtID, callerID, otherID); err != nil {
		s.logger.Warn().
			Err(err).
			Int64("doubtID", doubtID).
			Int64("callerID", callerID).
			Msg("Failed to mark conversation read")
	}

	items := make([]dto.MessageResponse, 0, len(messages))
	for _, m := range messages {
		items = append(items, dto.ToMessageResponse(m))
	}
	return &dto.ConversationResponse{Messages: items}, nil
}

// MarkRead flags a single message as read. Only the receiver may do so;
// repeating the call changes nothing.
func (s *ChatService) MarkRead(ctx context.Context, messageID, requesterID int64) (*dto.MessageResponse, error) {
	message, err := s.messages.GetByID(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if message.ReceiverID != requesterID {
		return nil, apperrors.NewUnauthorizedError("Only the receiver can mark a message as read")
	}

	if err := s.messages.MarkRead(ctx, messageID); err != nil {
		return nil, err
	}

	message, err = s.messages.GetByID(ctx, messageID)
	if err != nil {
		return nil, err
	}
	resp := dto.ToMessageResponse(message)
	return &resp, nil
}

// CountUnread reports how many messages addressed to the user are unread
func (s *ChatService) CountUnread(ctx context.Context, userID int64) (*dto.UnreadCountResponse, error) {
	count, err := s.messages.CountUnread(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &dto.UnreadCountResponse{UnreadCount: count}, nil
}
