package dto

import (
	"time"

	"github.com/doubtmate/doubtmate/internal/app/models"
)

// --- Request DTOs ---

// SendMessageRequest represents data for sending a chat message
type SendMessageRequest struct {
	Receiver int64  `json:"receiver" binding:"required" example:"2"`
	DoubtID  int64  `json:"doubtId" binding:"required" example:"1"`
	Content  string `json:"content" binding:"required" example:"thanks!"`
}

// --- Response DTOs ---

// MessageResponse represents a persisted chat message
type MessageResponse struct {
	ID           int64        `json:"id"`
	SenderID     int64        `json:"senderId"`
	SenderName   string       `json:"senderName"`
	ReceiverID   int64        `json:"receiverId"`
	ReceiverName string       `json:"receiverName"`
	Content      string       `json:"content"`
	DoubtID      int64        `json:"doubtId"`
	DoubtTitle   string       `json:"doubtTitle"`
	IsRead       bool         `json:"isRead"`
	ReadAt       *time.Time   `json:"readAt,omitempty"`
	CreatedAt    time.Time    `json:"createdAt"`
	Sender       *UserSummary `json:"sender,omitempty"`
	Receiver     *UserSummary `json:"receiver,omitempty"`
}

// ConversationResponse is the chronological message window of one conversation
type ConversationResponse struct {
	Messages []MessageResponse `json:"messages"`
}

// UnreadCountResponse reports the caller's unread message count
type UnreadCountResponse struct {
	UnreadCount int64 `json:"unreadCount" example:"3"`
}

// ToMessageResponse maps a message model to the API shape
func ToMessageResponse(message *models.Message) MessageResponse {
	return MessageResponse{
		ID:           message.ID,
		SenderID:     message.SenderID,
		SenderName:   message.SenderName,
		ReceiverID:   message.ReceiverID,
		ReceiverName: message.ReceiverName,
		Content:      message.Content,
		DoubtID:      message.DoubtID,
		DoubtTitle:   message.DoubtTitle,
		IsRead:       message.IsRead,
		ReadAt:       message.ReadAt,
		CreatedAt:    message.CreatedAt,
		Sender:       ToUserSummary(message.Sender),
		Receiver:     ToUserSummary(message.Receiver),
	}
}
