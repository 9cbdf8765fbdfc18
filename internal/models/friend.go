package models

import "time"

// Friendship is the single shared record for an accepted relationship.
// It is keyed by the sorted user pair so either side derives the same row.
type Friendship struct {
	PairID    string    `db:"pair_id" json:"pair_id"`
	User1ID   string    `db:"user1_id" json:"user1_id"`
	User2ID   string    `db:"user2_id" json:"user2_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Friend request lifecycle states.
const (
	FriendRequestPending  = "pending"
	FriendRequestAccepted = "accepted"
	FriendRequestRejected = "rejected"
)

// FriendEntry pairs a friend's profile with the friendship row it came
// from, so list views can derive a resume cursor from the friendship.
type FriendEntry struct {
	User       User      `json:"user"`
	PairID     string    `db:"pair_id" json:"-"`
	FriendedAt time.Time `db:"friended_at" json:"friended_at"`
}

// FriendRequest is a pending invitation from one user to another.
type FriendRequest struct {
	ID          string    `db:"id" json:"id"`
	SenderID    string    `db:"sender_id" json:"sender_id"`
	RecipientID string    `db:"recipient_id" json:"recipient_id"`
	Status      string    `db:"status" json:"status"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}
