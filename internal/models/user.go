package models

import "time"

// User is a registered account with its public profile fields.
type User struct {
	ID           string     `db:"id" json:"id"`
	Email        string     `db:"email" json:"email"`
	PasswordHash string     `db:"password_hash" json:"-"`
	Name         string     `db:"name" json:"name"`
	Username     string     `db:"username" json:"username"`
	BirthDate    *time.Time `db:"birth_date" json:"birth_date,omitempty"`
	Gender       string     `db:"gender" json:"gender,omitempty"`
	Bio          string     `db:"bio" json:"bio,omitempty"`
	Phone        string     `db:"phone" json:"phone,omitempty"`
	PhotoURL     string     `db:"photo_url" json:"photo_url,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
}

// ProfileUpdate carries the mutable profile fields of a user.
type ProfileUpdate struct {
	Name      *string    `json:"name,omitempty"`
	BirthDate *time.Time `json:"birth_date,omitempty"`
	Gender    *string    `json:"gender,omitempty"`
	Bio       *string    `json:"bio,omitempty"`
	Phone     *string    `json:"phone,omitempty"`
	PhotoURL  *string    `json:"photo_url,omitempty"`
}
