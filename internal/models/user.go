package models

import (
	"database/sql"
	"time"
)

// User is the row shape of the users table.
type User struct {
	UserID       string         `db:"user_id"`
	Username     string         `db:"username"`
	FullName     string         `db:"full_name"`
	Email        string         `db:"email"`
	PasswordHash sql.NullString `db:"password_hash"` // NULL for OAuth-only accounts
	IsVerified   bool           `db:"is_verified"`
	Role         string         `db:"role"`
	AuthProvider string         `db:"auth_provider"`
	AvatarURL    sql.NullString `db:"avatar_url"`
	LastLoginAt  sql.NullTime   `db:"last_login_at"`

	// Password reset fields
	PasswordResetTokenHash sql.NullString `db:"password_reset_token_hash"`
	PasswordResetExpiresAt sql.NullTime   `db:"password_reset_expires_at"`

	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// UserLogin is one row of the user_logins table.
type UserLogin struct {
	UserID     string    `db:"user_id"`
	Address    string    `db:"address"`
	UserAgent  string    `db:"user_agent"`
	LoggedInAt time.Time `db:"logged_in_at"`
}
