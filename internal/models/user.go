package models

import "time"

// User is an account held by the portal directory.
type User struct {
	ID           string     `db:"id" json:"id"`
	Email        string     `db:"email" json:"email"`
	PasswordHash string     `db:"password_hash" json:"-"`
	FullName     string     `db:"full_name" json:"full_name"`
	Active       bool       `db:"active" json:"active"`
	LastLogin    *time.Time `db:"last_login" json:"last_login,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

// UserProfile is the profile record shown on the attendee's page.
type UserProfile struct {
	ID           string    `db:"id" json:"id"`
	Email        string    `db:"email" json:"email"`
	ProfileOwner string    `db:"profile_owner" json:"profile_owner"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// ProfileFilter holds equality filters for profile listing.
type ProfileFilter struct {
	Email        string
	ProfileOwner string
}

// Tip is a short quote shown on the portal.
type Tip struct {
	Content  string `json:"content"`
	Author   string `json:"author"`
	Fallback bool   `json:"fallback"`
}
