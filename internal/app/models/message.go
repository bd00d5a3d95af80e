package models

import "time"

// Message is a persisted chat turn between two users about one doubt.
// SenderName, ReceiverName and DoubtTitle are snapshots captured at send
// time; they are intentionally not refreshed if the user or doubt is
// later renamed.
type Message struct {
	ID           int64      `json:"id" db:"id"`
	SenderID     int64      `json:"senderId" db:"sender_id"`
	SenderName   string     `json:"senderName" db:"sender_name"`
	ReceiverID   int64      `json:"receiverId" db:"receiver_id"`
	ReceiverName string     `json:"receiverName" db:"receiver_name"`
	Content      string     `json:"content" db:"content"` // 1-1000 chars after trim
	DoubtID      int64      `json:"doubtId" db:"doubt_id"`
	DoubtTitle   string     `json:"doubtTitle" db:"doubt_title"`
	IsRead       bool       `json:"isRead" db:"is_read"`
	ReadAt       *time.Time `json:"readAt,omitempty" db:"read_at"`
	CreatedAt    time.Time  `json:"createdAt" db:"created_at"`

	// Related entities
	Sender   *User `json:"sender,omitempty"`
	Receiver *User `json:"receiver,omitempty"`
}
