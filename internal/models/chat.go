package models

import "time"

// Chat represents a private chat between exactly two users. Its id is
// deterministic over the unordered participant pair, so either participant
// computes the same id independently.
type Chat struct {
	ID        string    `db:"id" json:"id"`
	User1ID   string    `db:"user1_id" json:"user1_id"`
	User2ID   string    `db:"user2_id" json:"user2_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// PeerOf returns the other participant for the given user.
func (c Chat) PeerOf(userID string) string {
	if c.User1ID == userID {
		return c.User2ID
	}
	return c.User1ID
}

// HasParticipant reports whether the user belongs to the chat.
func (c Chat) HasParticipant(userID string) bool {
	return c.User1ID == userID || c.User2ID == userID
}

// ChatSummary is the denormalized "my chats" row duplicated into each
// participant's own scope by the fan-out writer. The Chat row stays the
// source of truth.
type ChatSummary struct {
	OwnerID   string    `db:"owner_id" json:"-"`
	ChatID    string    `db:"chat_id" json:"chat_id"`
	PeerID    string    `db:"peer_id" json:"peer_id"`
	PeerName  string    `db:"peer_name" json:"peer_name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
