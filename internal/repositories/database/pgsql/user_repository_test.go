package pgsql

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/SscSPs/cyberlearn_backend/internal/apperrors"
	"github.com/SscSPs/cyberlearn_backend/internal/core/domain"
	"github.com/SscSPs/cyberlearn_backend/pkg/database"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserModelConversion_RoundTrip(t *testing.T) {
	hash := "$2a$10$abc"
	last := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	d := domain.User{
		UserID:       "3f0c7a8e-8f5f-4d8e-9b8c-0d1f0c2a9e11",
		Username:     "alice",
		FullName:     "Alice Example",
		Email:        "alice@example.com",
		PasswordHash: &hash,
		IsVerified:   true,
		Role:         domain.RoleAdmin,
		AuthProvider: domain.ProviderLocal,
		LastLoginAt:  &last,
		CreatedAt:    last,
		UpdatedAt:    last,
	}

	m := toModelUser(d)
	assert.True(t, m.PasswordHash.Valid)
	assert.False(t, m.AvatarURL.Valid)
	assert.False(t, m.PasswordResetExpiresAt.Valid)

	back := toDomainUser(m)
	assert.Equal(t, d, back)
}

func TestUserModelConversion_OAuthOnlyHasNoPassword(t *testing.T) {
	m := toModelUser(domain.User{Username: "octo", AuthProvider: domain.ProviderGitHub})
	assert.False(t, m.PasswordHash.Valid)
	assert.Nil(t, toDomainUser(m).PasswordHash)
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, isUniqueViolation(fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"})))
	assert.False(t, isUniqueViolation(&pgconn.PgError{Code: "23503"}))
	assert.False(t, isUniqueViolation(errors.New("boom")))
}

// TestPgxUserRepository runs against a live server when TEST_PGSQL_URL is set.
func TestPgxUserRepository(t *testing.T) {
	url := os.Getenv("TEST_PGSQL_URL")
	if url == "" {
		t.Skip("TEST_PGSQL_URL not set")
	}
	ctx := context.Background()
	require.NoError(t, database.RunMigrations(url, "file://../../../../migrations", slog.Default()))
	pool, err := pgxpool.New(ctx, url)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	repo := newPgxUserRepository(pool)
	suffix := uuid.NewString()[:8]
	email := "alice-" + suffix + "@example.com"

	hash := "hash"
	user := &domain.User{Username: "alice" + suffix, FullName: "Alice", Email: email, PasswordHash: &hash, IsVerified: true, Role: domain.RoleUser, AuthProvider: domain.ProviderLocal}
	require.NoError(t, repo.SaveUser(ctx, user))
	require.NotEmpty(t, user.UserID)
	t.Cleanup(func() { _, _ = pool.Exec(ctx, "DELETE FROM users WHERE user_id = $1", user.UserID) })

	dupe := &domain.User{Username: "other" + suffix, FullName: "Other", Email: email, Role: domain.RoleUser, AuthProvider: domain.ProviderGoogle}
	err = repo.SaveUser(ctx, dupe)
	assert.True(t, errors.Is(err, apperrors.ErrDuplicate))
	assert.Empty(t, dupe.UserID, "failed insert must not leave an id behind")

	for i := 0; i < domain.MaxLoginHistory+5; i++ {
		require.NoError(t, repo.RecordLogin(ctx, user.UserID, domain.LoginRecord{Address: "10.0.0.1", Timestamp: time.Now()}))
	}
	found, err := repo.FindUserByID(ctx, user.UserID)
	require.NoError(t, err)
	assert.Equal(t, email, found.Email)
	assert.Len(t, found.LoginHistory, domain.MaxLoginHistory)
	assert.NotNil(t, found.LastLoginAt)
}
