package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/doubtmate/doubtmate/internal/app/models"
	"github.com/doubtmate/doubtmate/internal/pkg/apperrors"
)

// MessageRepository handles database operations for chat messages
type MessageRepository struct {
	db *pgxpool.Pool
}

// NewMessageRepository creates a new MessageRepository
func NewMessageRepository(db *pgxpool.Pool) *MessageRepository {
	return &MessageRepository{db: db}
}

const messageColumns = `
	id, sender_id, sender_name, receiver_id, receiver_name,
	content, doubt_id, doubt_title, is_read, read_at, created_at
`

func scanMessage(row pgx.Row) (*models.Message, error) {
	var m models.Message
	err := row.Scan(
		&m.ID,
		&m.SenderID,
		&m.SenderName,
		&m.ReceiverID,
		&m.ReceiverName,
		&m.Content,
		&m.DoubtID,
		&m.DoubtTitle,
		&m.IsRead,
		&m.ReadAt,
		&m.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrMessageNotFound
		}
		return nil, fmt.Errorf("error scanning message: %w", err)
	}
	return &m, nil
}

// Create inserts a new message with its denormalized name snapshots
func (r *MessageRepository) Create(ctx context.Context, message *models.Message) error {
	query := `
		INSERT INTO messages (
			sender_id, sender_name, receiver_id, receiver_name,
			content, doubt_id, doubt_title
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, is_read, created_at
	`

	err := r.db.QueryRow(ctx, query,
		message.SenderID,
		message.SenderName,
		message.ReceiverID,
		message.ReceiverName,
		message.Content,
		message.DoubtID,
		message.DoubtTitle,
	).Scan(&message.ID, &message.IsRead, &message.CreatedAt)
	if err != nil {
		return fmt.Errorf("error creating message: %w", err)
	}
	return nil
}

// GetByID retrieves a message by its ID
func (r *MessageRepository) GetByID(ctx context.Context, id int64) (*models.Message, error) {
	return scanMessage(r.db.QueryRow(ctx, `SELECT `+messageColumns+` FROM messages WHERE id = $1`, id))
}

// Conversation returns the most recent `limit` messages exchanged between
// two users about one doubt, in chronological order
func (r *MessageRepository) Conversation(ctx context.Context, doubtID, userA, userB int64, limit int) ([]*models.Message, error) {
	query := `
		SELECT ` + messageColumns + ` FROM (
			SELECT ` + messageColumns + `
			FROM messages
			WHERE doubt_id = $1
			  AND ((sender_id = $2 AND receiver_id = $3) OR (sender_id = $3 AND receiver_id = $2))
			ORDER BY created_at DESC, id DESC
			LIMIT $4
		) recent
		ORDER BY created_at ASC, id ASC
	`

	rows, err := r.db.Query(ctx, query, doubtID, userA, userB, limit)
	if err != nil {
		return nil, fmt.Errorf("error retrieving conversation: %w", err)
	}
	defer rows.Close()

	var messages []*models.Message
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

// MarkConversationRead flags every unread message sent by `other` to
// `reader` within one doubt's conversation as read
func (r *MessageRepository) MarkConversationRead(ctx context.Context, doubtID, readerID, otherID int64) error {
	_, err := r.db.Exec(ctx, `
		UPDATE messages
		SET is_read = TRUE, read_at = NOW()
		WHERE doubt_id = $1 AND sender_id = $2 AND receiver_id = $3 AND is_read = FALSE`,
		doubtID, otherID, readerID)
	if err != nil {
		return fmt.Errorf("error marking conversation read: %w", err)
	}
	return nil
}

// MarkRead flags one message as read. Safe to repeat.
func (r *MessageRepository) MarkRead(ctx context.Context, messageID int64) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE messages
		SET is_read = TRUE, read_at = COALESCE(read_at, NOW())
		WHERE id = $1`, messageID)
	if err != nil {
		return fmt.Errorf("error marking message read: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrMessageNotFound
	}
	return nil
}

// CountUnread counts messages addressed to the user that are still unread
func (r *MessageRepository) CountUnread(ctx context.Context, userID int64) (int64, error) {
	var count int64
	err := r.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM messages
		WHERE receiver_id = $1 AND is_read = FALSE`, userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("error counting unread messages: %w", err)
	}
	return count, nil
}
