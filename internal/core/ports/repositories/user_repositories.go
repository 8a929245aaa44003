package repositories

import (
	"context"
	"time"

	"github.com/SscSPs/cyberlearn_backend/internal/core/domain"
)

// UserReader defines read operations for user data
type UserReader interface {
	// FindUserByID retrieves a specific user by their ID.
	FindUserByID(ctx context.Context, userID string) (*domain.User, error)

	// FindUserByEmail retrieves a user by their lower-cased email.
	FindUserByEmail(ctx context.Context, email string) (*domain.User, error)

	// FindUserByUsername retrieves a user by username.
	FindUserByUsername(ctx context.Context, username string) (*domain.User, error)

	// FindUserByPasswordResetToken retrieves the user holding the given reset token hash.
	FindUserByPasswordResetToken(ctx context.Context, tokenHash string) (*domain.User, error)

	// FindUsers retrieves a paginated list of users.
	FindUsers(ctx context.Context, limit int, offset int) ([]domain.User, error)
}

// UserWriter defines write operations for user data
type UserWriter interface {
	// SaveUser persists a new user. The store assigns user.UserID when empty.
	// Email or username collisions return apperrors.ErrDuplicate.
	SaveUser(ctx context.Context, user *domain.User) error

	// RecordLogin appends a login record and updates the last login timestamp.
	RecordLogin(ctx context.Context, userID string, record domain.LoginRecord) error

	// SetPasswordResetToken stores a reset token hash and its expiry.
	SetPasswordResetToken(ctx context.Context, userID string, tokenHash string, expiresAt time.Time) error

	// UpdatePassword replaces the password hash and clears any reset token.
	UpdatePassword(ctx context.Context, userID string, passwordHash string) error
}

// UserRepositoryFacade combines all user-related repository interfaces
// This is a facade for clients that need access to all operations
type UserRepositoryFacade interface {
	UserReader
	UserWriter
}
