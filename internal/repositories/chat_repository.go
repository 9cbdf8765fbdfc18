package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"social-service/internal/models"
	"social-service/internal/pagination"
)

var ErrChatNotFound = errors.New("chat not found")

// ChatRepository abstracts chat and chat-summary persistence.
type ChatRepository interface {
	CreateIfAbsent(ctx context.Context, chat models.Chat) (models.Chat, error)
	GetChat(ctx context.Context, chatID string) (models.Chat, error)
	IsParticipant(ctx context.Context, chatID, userID string) (bool, error)
	UpsertSummaries(ctx context.Context, chat models.Chat, peerNames map[string]string) error
	ListSummaries(ctx context.Context, ownerID string, after pagination.Cursor, pageSize int) ([]models.ChatSummary, error)
}

// ChatRepo is a sqlx implementation of ChatRepository.
type ChatRepo struct {
	db *sqlx.DB
}

// NewChatRepo constructs a ChatRepo.
func NewChatRepo(db *sqlx.DB) *ChatRepo {
	return &ChatRepo{db: db}
}

// CreateIfAbsent inserts the chat row keyed by its deterministic pair id.
// Racing callers converge on one row: the insert is guarded by the primary
// key, and the subsequent read returns whichever row won.
func (r *ChatRepo) CreateIfAbsent(ctx context.Context, chat models.Chat) (models.Chat, error) {
	user1, user2 := models.SortPair(chat.User1ID, chat.User2ID)
	if _, err := r.db.ExecContext(ctx,
		`INSERT INTO chats (id, user1_id, user2_id) VALUES ($1, $2, $3)
        ON CONFLICT (id) DO NOTHING`,
		chat.ID, user1, user2); err != nil {
		return models.Chat{}, err
	}
	return r.GetChat(ctx, chat.ID)
}

// GetChat fetches a chat by id.
func (r *ChatRepo) GetChat(ctx context.Context, chatID string) (models.Chat, error) {
	var chat models.Chat
	err := r.db.GetContext(ctx, &chat,
		`SELECT id, user1_id, user2_id, created_at FROM chats WHERE id=$1`, chatID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Chat{}, ErrChatNotFound
	}
	return chat, err
}

// IsParticipant checks whether a user belongs to the chat.
func (r *ChatRepo) IsParticipant(ctx context.Context, chatID, userID string) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists,
		`SELECT EXISTS(SELECT 1 FROM chats WHERE id=$1 AND (user1_id=$2 OR user2_id=$2))`,
		chatID, userID)
	return exists, err
}

// UpsertSummaries writes the fan-out summary row into both participants'
// scopes in one transaction, so either both list views see the chat or
// neither does. Re-upserting an existing summary is a no-op.
func (r *ChatRepo) UpsertSummaries(ctx context.Context, chat models.Chat, peerNames map[string]string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, owner := range []string{chat.User1ID, chat.User2ID} {
		peer := chat.PeerOf(owner)
		// Re-upserting is a no-op except that a previously unknown peer
		// name gets filled in.
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO chat_summaries (owner_id, chat_id, peer_id, peer_name) VALUES ($1, $2, $3, $4)
            ON CONFLICT (owner_id, chat_id) DO UPDATE
            SET peer_name = CASE WHEN EXCLUDED.peer_name = '' THEN chat_summaries.peer_name ELSE EXCLUDED.peer_name END`,
			owner, chat.ID, peer, peerNames[peer]); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// ListSummaries returns a page of the owner's chat summaries, newest first.
func (r *ChatRepo) ListSummaries(ctx context.Context, ownerID string, after pagination.Cursor, pageSize int) ([]models.ChatSummary, error) {
	var summaries []models.ChatSummary
	if after.IsFirst() {
		err := r.db.SelectContext(ctx, &summaries,
			`SELECT owner_id, chat_id, peer_id, peer_name, created_at FROM chat_summaries
            WHERE owner_id=$1
            ORDER BY created_at DESC, chat_id DESC LIMIT $2`,
			ownerID, pageSize)
		return summaries, err
	}
	err := r.db.SelectContext(ctx, &summaries,
		`SELECT owner_id, chat_id, peer_id, peer_name, created_at FROM chat_summaries
        WHERE owner_id=$1 AND (created_at, chat_id) < ($2, $3)
        ORDER BY created_at DESC, chat_id DESC LIMIT $4`,
		ownerID, after.CreatedAt, after.ID, pageSize)
	return summaries, err
}
