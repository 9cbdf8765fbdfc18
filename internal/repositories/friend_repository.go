package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"social-service/internal/models"
	"social-service/internal/pagination"
)

var (
	ErrSelfFriendship    = errors.New("cannot befriend yourself")
	ErrRequestNotFound   = errors.New("friend request not found")
	ErrDuplicateRequest  = errors.New("friend request already exists")
	ErrRequestNotPending = errors.New("friend request already resolved")
)

// FriendRepository abstracts friendship and friend-request persistence.
// A friendship is one shared row keyed by the sorted pair id, so adding or
// removing it from either side converges on the same record.
type FriendRepository interface {
	AddFriendship(ctx context.Context, userA, userB string) error
	RemoveFriendship(ctx context.Context, userA, userB string) error
	AreFriends(ctx context.Context, userA, userB string) (bool, error)
	ListFriends(ctx context.Context, userID string, after pagination.Cursor, pageSize int) ([]models.FriendEntry, error)

	CreateRequest(ctx context.Context, req models.FriendRequest) (models.FriendRequest, error)
	GetRequest(ctx context.Context, id string) (models.FriendRequest, error)
	AcceptRequest(ctx context.Context, id string) (models.FriendRequest, error)
	RejectRequest(ctx context.Context, id string) (models.FriendRequest, error)
	ListIncomingRequests(ctx context.Context, recipientID string, after pagination.Cursor, pageSize int) ([]models.FriendRequest, error)
}

// FriendRepo is a sqlx implementation of FriendRepository.
type FriendRepo struct {
	db *sqlx.DB
}

// NewFriendRepo constructs a FriendRepo.
func NewFriendRepo(db *sqlx.DB) *FriendRepo {
	return &FriendRepo{db: db}
}

// AddFriendship inserts the shared pair row. Adding an existing friendship
// is a no-op, so concurrent mutual adds converge on one row.
func (r *FriendRepo) AddFriendship(ctx context.Context, userA, userB string) error {
	if userA == userB {
		return ErrSelfFriendship
	}
	user1, user2 := models.SortPair(userA, userB)
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO friendships (pair_id, user1_id, user2_id) VALUES ($1, $2, $3)
        ON CONFLICT (pair_id) DO NOTHING`,
		models.PairID(userA, userB), user1, user2)
	return err
}

// RemoveFriendship deletes the pair row. Removing a non-friend is a no-op.
func (r *FriendRepo) RemoveFriendship(ctx context.Context, userA, userB string) error {
	if userA == userB {
		return ErrSelfFriendship
	}
	_, err := r.db.ExecContext(ctx, `DELETE FROM friendships WHERE pair_id=$1`, models.PairID(userA, userB))
	return err
}

// AreFriends reports whether the shared pair row exists.
func (r *FriendRepo) AreFriends(ctx context.Context, userA, userB string) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists,
		`SELECT EXISTS(SELECT 1 FROM friendships WHERE pair_id=$1)`, models.PairID(userA, userB))
	return exists, err
}

// ListFriends returns a page of the user's friends, most recently added
// first. The cursor keys on the friendship row, not the friend's profile.
func (r *FriendRepo) ListFriends(ctx context.Context, userID string, after pagination.Cursor, pageSize int) ([]models.FriendEntry, error) {
	base := `SELECT u.id, u.email, u.password_hash, u.name, u.username, u.birth_date, u.gender, u.bio, u.phone, u.photo_url, u.created_at,
            f.pair_id, f.created_at AS friended_at
        FROM friendships f
        JOIN users u ON u.id = CASE WHEN f.user1_id=$1 THEN f.user2_id ELSE f.user1_id END
        WHERE (f.user1_id=$1 OR f.user2_id=$1)`

	var rows *sqlx.Rows
	var err error
	if after.IsFirst() {
		rows, err = r.db.QueryxContext(ctx, base+` ORDER BY f.created_at DESC, f.pair_id DESC LIMIT $2`, userID, pageSize)
	} else {
		rows, err = r.db.QueryxContext(ctx,
			base+` AND (f.created_at, f.pair_id) < ($2, $3) ORDER BY f.created_at DESC, f.pair_id DESC LIMIT $4`,
			userID, after.CreatedAt, after.ID, pageSize)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []models.FriendEntry
	for rows.Next() {
		var entry models.FriendEntry
		if err := rows.Scan(
			&entry.User.ID, &entry.User.Email, &entry.User.PasswordHash, &entry.User.Name,
			&entry.User.Username, &entry.User.BirthDate, &entry.User.Gender, &entry.User.Bio,
			&entry.User.Phone, &entry.User.PhotoURL, &entry.User.CreatedAt,
			&entry.PairID, &entry.FriendedAt,
		); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// CreateRequest stores a pending friend request.
func (r *FriendRepo) CreateRequest(ctx context.Context, req models.FriendRequest) (models.FriendRequest, error) {
	if req.SenderID == req.RecipientID {
		return models.FriendRequest{}, ErrSelfFriendship
	}
	var created models.FriendRequest
	err := r.db.QueryRowxContext(ctx,
		`INSERT INTO friend_requests (id, sender_id, recipient_id, status) VALUES ($1, $2, $3, $4)
        RETURNING id, sender_id, recipient_id, status, created_at`,
		req.ID, req.SenderID, req.RecipientID, models.FriendRequestPending).StructScan(&created)
	if isUniqueViolation(err) {
		return models.FriendRequest{}, ErrDuplicateRequest
	}
	return created, err
}

// GetRequest fetches a friend request by id.
func (r *FriendRepo) GetRequest(ctx context.Context, id string) (models.FriendRequest, error) {
	var req models.FriendRequest
	err := r.db.GetContext(ctx, &req,
		`SELECT id, sender_id, recipient_id, status, created_at FROM friend_requests WHERE id=$1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return models.FriendRequest{}, ErrRequestNotFound
	}
	return req, err
}

// AcceptRequest marks the request accepted and inserts the friendship in
// one transaction, so the relationship and its provenance never diverge.
func (r *FriendRepo) AcceptRequest(ctx context.Context, id string) (models.FriendRequest, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return models.FriendRequest{}, err
	}
	defer tx.Rollback()

	var req models.FriendRequest
	err = tx.QueryRowxContext(ctx,
		`UPDATE friend_requests SET status=$2 WHERE id=$1 AND status=$3
        RETURNING id, sender_id, recipient_id, status, created_at`,
		id, models.FriendRequestAccepted, models.FriendRequestPending).StructScan(&req)
	if errors.Is(err, sql.ErrNoRows) {
		return models.FriendRequest{}, resolveRequestError(ctx, tx, id)
	}
	if err != nil {
		return models.FriendRequest{}, err
	}

	user1, user2 := models.SortPair(req.SenderID, req.RecipientID)
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO friendships (pair_id, user1_id, user2_id) VALUES ($1, $2, $3)
        ON CONFLICT (pair_id) DO NOTHING`,
		models.PairID(req.SenderID, req.RecipientID), user1, user2); err != nil {
		return models.FriendRequest{}, err
	}

	return req, tx.Commit()
}

// RejectRequest marks the request rejected without touching friendships.
func (r *FriendRepo) RejectRequest(ctx context.Context, id string) (models.FriendRequest, error) {
	var req models.FriendRequest
	err := r.db.QueryRowxContext(ctx,
		`UPDATE friend_requests SET status=$2 WHERE id=$1 AND status=$3
        RETURNING id, sender_id, recipient_id, status, created_at`,
		id, models.FriendRequestRejected, models.FriendRequestPending).StructScan(&req)
	if errors.Is(err, sql.ErrNoRows) {
		return models.FriendRequest{}, resolveRequestError(ctx, r.db, id)
	}
	return req, err
}

// ListIncomingRequests returns a page of pending requests addressed to the
// user, newest first.
func (r *FriendRepo) ListIncomingRequests(ctx context.Context, recipientID string, after pagination.Cursor, pageSize int) ([]models.FriendRequest, error) {
	var reqs []models.FriendRequest
	if after.IsFirst() {
		err := r.db.SelectContext(ctx, &reqs,
			`SELECT id, sender_id, recipient_id, status, created_at FROM friend_requests
            WHERE recipient_id=$1 AND status=$2
            ORDER BY created_at DESC, id DESC LIMIT $3`,
			recipientID, models.FriendRequestPending, pageSize)
		return reqs, err
	}
	err := r.db.SelectContext(ctx, &reqs,
		`SELECT id, sender_id, recipient_id, status, created_at FROM friend_requests
        WHERE recipient_id=$1 AND status=$2 AND (created_at, id) < ($3, $4)
        ORDER BY created_at DESC, id DESC LIMIT $5`,
		recipientID, models.FriendRequestPending, after.CreatedAt, after.ID, pageSize)
	return reqs, err
}

type rowQueryer interface {
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
}

// resolveRequestError distinguishes "absent" from "already resolved" after
// a guarded UPDATE matched no row.
func resolveRequestError(ctx context.Context, q rowQueryer, id string) error {
	var status string
	err := q.GetContext(ctx, &status, `SELECT status FROM friend_requests WHERE id=$1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrRequestNotFound
	}
	if err != nil {
		return err
	}
	return ErrRequestNotPending
}
