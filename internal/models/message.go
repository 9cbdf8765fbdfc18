package models

import "time"

// Message represents a chat message. Either Content or the file reference
// may be empty, never both.
type Message struct {
	ID          string    `db:"id" json:"id"`
	ChatID      string    `db:"chat_id" json:"chat_id"`
	SenderID    string    `db:"sender_id" json:"sender_id"`
	RecipientID string    `db:"recipient_id" json:"recipient_id"`
	Content     string    `db:"content" json:"content,omitempty"`
	FileURL     string    `db:"file_url" json:"file_url,omitempty"`
	FileType    string    `db:"file_type" json:"file_type,omitempty"`
	FileSize    int64     `db:"file_size" json:"file_size,omitempty"`
	FileName    string    `db:"file_name" json:"file_name,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// HasFile reports whether the message carries a file reference.
func (m Message) HasFile() bool {
	return m.FileURL != ""
}

// ChatEvent is broadcasted through websockets.
type ChatEvent struct {
	Type    string   `json:"type"`
	Message *Message `json:"message,omitempty"`
}
