package models

import "time"

// Notification types.
const (
	NotificationMessage       = "message"
	NotificationFriendRequest = "friend_request"
	NotificationGlobal        = "global"
)

// Notification belongs to exactly one recipient. The recipient is the only
// party that may flip the read flag or delete it.
type Notification struct {
	ID          string    `db:"id" json:"id"`
	RecipientID string    `db:"recipient_id" json:"recipient_id"`
	SenderID    string    `db:"sender_id" json:"sender_id"`
	Message     string    `db:"message" json:"message"`
	Type        string    `db:"type" json:"type"`
	Read        bool      `db:"read" json:"read"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// FeedEvent is pushed over a user's websocket feed when a notification or
// presence change lands.
type FeedEvent struct {
	Type         string        `json:"type"`
	Notification *Notification `json:"notification,omitempty"`
	Presence     *Presence     `json:"presence,omitempty"`
	UserID       string        `json:"user_id,omitempty"`
}
