package repositories

import (
	"context"

	"github.com/jmoiron/sqlx"

	"social-service/internal/models"
	"social-service/internal/pagination"
)

// MessageRepository defines interactions for chat messages. The sequence is
// append-only; ordering is the caller-visible (created_at, id) sort key.
type MessageRepository interface {
	Create(ctx context.Context, msg models.Message) (models.Message, error)
	ListByChat(ctx context.Context, chatID string, after pagination.Cursor, pageSize int) ([]models.Message, error)
}

// MessageRepo is a sqlx-backed repository.
type MessageRepo struct {
	db *sqlx.DB
}

// NewMessageRepo constructs MessageRepo.
func NewMessageRepo(db *sqlx.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

// Create appends a message to its chat.
func (r *MessageRepo) Create(ctx context.Context, msg models.Message) (models.Message, error) {
	var created models.Message
	err := r.db.QueryRowxContext(ctx,
		`INSERT INTO messages (id, chat_id, sender_id, recipient_id, content, file_url, file_type, file_size, file_name)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
        RETURNING id, chat_id, sender_id, recipient_id, content, file_url, file_type, file_size, file_name, created_at`,
		msg.ID, msg.ChatID, msg.SenderID, msg.RecipientID, msg.Content,
		msg.FileURL, msg.FileType, msg.FileSize, msg.FileName).StructScan(&created)
	return created, err
}

// ListByChat returns a page of messages, most recent first.
func (r *MessageRepo) ListByChat(ctx context.Context, chatID string, after pagination.Cursor, pageSize int) ([]models.Message, error) {
	var msgs []models.Message
	if after.IsFirst() {
		err := r.db.SelectContext(ctx, &msgs,
			`SELECT id, chat_id, sender_id, recipient_id, content, file_url, file_type, file_size, file_name, created_at
            FROM messages WHERE chat_id=$1
            ORDER BY created_at DESC, id DESC LIMIT $2`,
			chatID, pageSize)
		return msgs, err
	}
	err := r.db.SelectContext(ctx, &msgs,
		`SELECT id, chat_id, sender_id, recipient_id, content, file_url, file_type, file_size, file_name, created_at
        FROM messages WHERE chat_id=$1 AND (created_at, id) < ($2, $3)
        ORDER BY created_at DESC, id DESC LIMIT $4`,
		chatID, after.CreatedAt, after.ID, pageSize)
	return msgs, err
}
