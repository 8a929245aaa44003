package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/SscSPs/cyberlearn_backend/internal/apperrors"
	"github.com/SscSPs/cyberlearn_backend/internal/core/domain"
	"github.com/SscSPs/cyberlearn_backend/internal/core/services"
	"github.com/SscSPs/cyberlearn_backend/internal/platform/config"
	"github.com/SscSPs/cyberlearn_backend/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	return &config.Config{
		JWTSecret:                   "test-secret",
		JWTIssuer:                   "cyberlearn-api",
		JWTAudience:                 "cyberlearn-client",
		JWTExpiryDuration:           time.Hour,
		PendingTokenExpiryDuration:  15 * time.Minute,
		PasswordResetExpiryDuration: 30 * time.Minute,
		ClientURL:                   "http://localhost:5173",
	}
}

func TestTokenService_AccessTokenRoundTrip(t *testing.T) {
	svc := services.NewTokenService(testConfig())

	token, expiresAt, err := svc.GenerateAccessToken(context.Background(), &domain.User{UserID: "user-42"})
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, 5*time.Second)

	subject, err := svc.ParseAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-42", subject)
}

func TestTokenService_AccessTokenRequiresUserID(t *testing.T) {
	svc := services.NewTokenService(testConfig())

	_, _, err := svc.GenerateAccessToken(context.Background(), &domain.User{})
	assert.Error(t, err)
}

func TestTokenService_RejectsForeignTokens(t *testing.T) {
	cfg := testConfig()
	svc := services.NewTokenService(cfg)

	tests := []struct {
		name  string
		token func(t *testing.T) string
	}{
		{"wrong secret", func(t *testing.T) string {
			tok, err := utils.GenerateJWT("u", "other-secret", time.Hour, cfg.JWTIssuer, cfg.JWTAudience)
			require.NoError(t, err)
			return tok
		}},
		{"wrong issuer", func(t *testing.T) string {
			tok, err := utils.GenerateJWT("u", cfg.JWTSecret, time.Hour, "someone-else", cfg.JWTAudience)
			require.NoError(t, err)
			return tok
		}},
		{"wrong audience", func(t *testing.T) string {
			tok, err := utils.GenerateJWT("u", cfg.JWTSecret, time.Hour, cfg.JWTIssuer, "another-client")
			require.NoError(t, err)
			return tok
		}},
		{"expired", func(t *testing.T) string {
			tok, err := utils.GenerateJWT("u", cfg.JWTSecret, -time.Minute, cfg.JWTIssuer, cfg.JWTAudience)
			require.NoError(t, err)
			return tok
		}},
		{"garbage", func(t *testing.T) string { return "not-a-jwt" }},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.ParseAccessToken(tc.token(t))
			require.Error(t, err)
			assert.True(t, errors.Is(err, apperrors.ErrUnauthorized))
		})
	}
}

func TestTokenService_PendingTokenRoundTrip(t *testing.T) {
	svc := services.NewTokenService(testConfig())
	reg := domain.PendingRegistration{
		Username:     "alice",
		FullName:     "Alice Example",
		Email:        "alice@example.com",
		PasswordHash: "$2a$10$hash",
		OTP:          "123456",
	}

	token, expiresAt, err := svc.IssuePendingToken(reg)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), expiresAt, 5*time.Second)

	ticket, err := svc.ParsePendingToken(token)
	require.NoError(t, err)
	assert.NotEmpty(t, ticket.ID)
	assert.Equal(t, reg.Username, ticket.Registration.Username)
	assert.Equal(t, reg.FullName, ticket.Registration.FullName)
	assert.Equal(t, reg.Email, ticket.Registration.Email)
	assert.Equal(t, reg.PasswordHash, ticket.Registration.PasswordHash)
	assert.Empty(t, ticket.Registration.OTP)
	assert.True(t, svc.MatchPendingOTP(ticket, "123456"))
	assert.False(t, svc.MatchPendingOTP(ticket, "654321"))
	assert.WithinDuration(t, expiresAt, ticket.ExpiresAt, time.Second)
}

func TestTokenService_PendingTokenFromAnotherSecret(t *testing.T) {
	other := testConfig()
	other.JWTSecret = "other-secret"
	reg := domain.PendingRegistration{Email: "a@example.com", PasswordHash: "$2a$10$hash", OTP: "123456"}

	token, _, err := services.NewTokenService(other).IssuePendingToken(reg)
	require.NoError(t, err)

	_, err = services.NewTokenService(testConfig()).ParsePendingToken(token)
	assert.True(t, errors.Is(err, apperrors.ErrUnauthorized))
}

func TestTokenService_PendingTokenIDsAreUnique(t *testing.T) {
	svc := services.NewTokenService(testConfig())
	reg := domain.PendingRegistration{Email: "a@example.com", OTP: "111111"}

	first, _, err := svc.IssuePendingToken(reg)
	require.NoError(t, err)
	second, _, err := svc.IssuePendingToken(reg)
	require.NoError(t, err)

	t1, err := svc.ParsePendingToken(first)
	require.NoError(t, err)
	t2, err := svc.ParsePendingToken(second)
	require.NoError(t, err)
	assert.NotEqual(t, t1.ID, t2.ID)
}

func TestTokenService_TokenKindsDoNotCross(t *testing.T) {
	svc := services.NewTokenService(testConfig())

	pending, _, err := svc.IssuePendingToken(domain.PendingRegistration{Email: "a@example.com", OTP: "111111"})
	require.NoError(t, err)
	_, err = svc.ParseAccessToken(pending)
	assert.Error(t, err, "pending token must not authenticate a session")

	session, _, err := svc.GenerateAccessToken(context.Background(), &domain.User{UserID: "u"})
	require.NoError(t, err)
	_, err = svc.ParsePendingToken(session)
	assert.Error(t, err, "session token must not redeem a registration")
}

func TestTokenService_ExpiredPendingToken(t *testing.T) {
	svc := services.NewTokenService(testConfig())

	token, _, err := svc.IssuePendingToken(domain.PendingRegistration{
		Email:     "a@example.com",
		OTP:       "111111",
		CreatedAt: time.Now().Add(-time.Hour),
	})
	require.NoError(t, err)

	_, err = svc.ParsePendingToken(token)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrUnauthorized))
}
