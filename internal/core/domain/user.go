package domain

import "time"

// UserRole enumerates the privilege levels a user can hold.
type UserRole string

const (
	RoleUser       UserRole = "user"
	RoleAdmin      UserRole = "admin"
	RoleSuperAdmin UserRole = "superadmin"
)

// AuthProvider identifies how an account was created.
type AuthProvider string

const (
	ProviderLocal  AuthProvider = "local"
	ProviderGoogle AuthProvider = "google"
	ProviderGitHub AuthProvider = "github"
)

// MaxLoginHistory bounds the number of login records kept per user.
const MaxLoginHistory = 20

// LoginRecord is one entry of a user's login history.
type LoginRecord struct {
	Address   string    `json:"address"`
	UserAgent string    `json:"userAgent"`
	Timestamp time.Time `json:"timestamp"`
}

// User represents an account of the application in the domain.
// PasswordHash is nil for OAuth-only accounts.
type User struct {
	UserID       string       `json:"userID"` // Primary Key (ObjectID hex or UUID depending on store)
	Username     string       `json:"username"`
	FullName     string       `json:"fullName"`
	Email        string       `json:"email"` // lower-cased
	PasswordHash *string      `json:"-"`
	IsVerified   bool         `json:"isVerified"`
	Role         UserRole     `json:"role"`
	AuthProvider AuthProvider `json:"authProvider"`
	AvatarURL    string       `json:"avatarURL,omitempty"`

	LoginHistory []LoginRecord `json:"loginHistory,omitempty"`
	LastLoginAt  *time.Time    `json:"lastLoginAt,omitempty"`

	PasswordResetTokenHash string     `json:"-"`
	PasswordResetExpiresAt *time.Time `json:"-"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// HasPassword reports whether the account can log in with a local password.
func (u *User) HasPassword() bool {
	return u.PasswordHash != nil && *u.PasswordHash != ""
}

// HasAnyRole reports whether the user's role is one of roles.
func (u *User) HasAnyRole(roles ...UserRole) bool {
	for _, r := range roles {
		if u.Role == r {
			return true
		}
	}
	return false
}

// AppendLogin adds rec to the login history, dropping the oldest entries
// beyond MaxLoginHistory, and updates LastLoginAt.
func (u *User) AppendLogin(rec LoginRecord) {
	u.LoginHistory = append(u.LoginHistory, rec)
	if n := len(u.LoginHistory); n > MaxLoginHistory {
		u.LoginHistory = u.LoginHistory[n-MaxLoginHistory:]
	}
	ts := rec.Timestamp
	u.LastLoginAt = &ts
}
