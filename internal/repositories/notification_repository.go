package repositories

import (
	"context"
	"errors"

	"github.com/jmoiron/sqlx"

	"social-service/internal/models"
	"social-service/internal/pagination"
)

var ErrNotificationNotFound = errors.New("notification not found")

// NotificationRepository abstracts owner-scoped notification persistence.
// Every mutation carries the recipient id, so a notification can only be
// flipped or deleted by its one owner.
type NotificationRepository interface {
	Create(ctx context.Context, n models.Notification) (models.Notification, error)
	ListForRecipient(ctx context.Context, recipientID string, after pagination.Cursor, pageSize int) ([]models.Notification, error)
	MarkRead(ctx context.Context, recipientID, id string) error
	Delete(ctx context.Context, recipientID, id string) error
	DeleteFriendRequestNotice(ctx context.Context, recipientID, senderID string) error
	UnreadCount(ctx context.Context, recipientID string) (int, error)
}

// NotificationRepo is a sqlx implementation of NotificationRepository.
type NotificationRepo struct {
	db *sqlx.DB
}

// NewNotificationRepo constructs a NotificationRepo.
func NewNotificationRepo(db *sqlx.DB) *NotificationRepo {
	return &NotificationRepo{db: db}
}

// Create stores a notification with read=false.
func (r *NotificationRepo) Create(ctx context.Context, n models.Notification) (models.Notification, error) {
	var created models.Notification
	err := r.db.QueryRowxContext(ctx,
		`INSERT INTO notifications (id, recipient_id, sender_id, message, type) VALUES ($1, $2, $3, $4, $5)
        RETURNING id, recipient_id, sender_id, message, type, read, created_at`,
		n.ID, n.RecipientID, n.SenderID, n.Message, n.Type).StructScan(&created)
	return created, err
}

// ListForRecipient returns a page of the owner's notifications, newest first.
func (r *NotificationRepo) ListForRecipient(ctx context.Context, recipientID string, after pagination.Cursor, pageSize int) ([]models.Notification, error) {
	var notifications []models.Notification
	if after.IsFirst() {
		err := r.db.SelectContext(ctx, &notifications,
			`SELECT id, recipient_id, sender_id, message, type, read, created_at FROM notifications
            WHERE recipient_id=$1
            ORDER BY created_at DESC, id DESC LIMIT $2`,
			recipientID, pageSize)
		return notifications, err
	}
	err := r.db.SelectContext(ctx, &notifications,
		`SELECT id, recipient_id, sender_id, message, type, read, created_at FROM notifications
        WHERE recipient_id=$1 AND (created_at, id) < ($2, $3)
        ORDER BY created_at DESC, id DESC LIMIT $4`,
		recipientID, after.CreatedAt, after.ID, pageSize)
	return notifications, err
}

// MarkRead flips the read flag, owner-scoped.
func (r *NotificationRepo) MarkRead(ctx context.Context, recipientID, id string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE notifications SET read=TRUE WHERE id=$1 AND recipient_id=$2`, id, recipientID)
	if err != nil {
		return err
	}
	return requireRow(res, ErrNotificationNotFound)
}

// Delete removes a notification, owner-scoped.
func (r *NotificationRepo) Delete(ctx context.Context, recipientID, id string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM notifications WHERE id=$1 AND recipient_id=$2`, id, recipientID)
	if err != nil {
		return err
	}
	return requireRow(res, ErrNotificationNotFound)
}

// DeleteFriendRequestNotice clears the friend-request notification left by
// a sender once the request is accepted or rejected. Absence is a no-op.
func (r *NotificationRepo) DeleteFriendRequestNotice(ctx context.Context, recipientID, senderID string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM notifications WHERE recipient_id=$1 AND sender_id=$2 AND type=$3`,
		recipientID, senderID, models.NotificationFriendRequest)
	return err
}

// UnreadCount counts the owner's unread notifications.
func (r *NotificationRepo) UnreadCount(ctx context.Context, recipientID string) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM notifications WHERE recipient_id=$1 AND read=FALSE`, recipientID)
	return count, err
}
