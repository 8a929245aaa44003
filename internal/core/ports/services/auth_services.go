package services

import (
	"context"
	"time"

	"github.com/SscSPs/cyberlearn_backend/internal/core/domain"
	"github.com/SscSPs/cyberlearn_backend/internal/dto"
)

// TokenSvcFacade issues and verifies the signed tokens used by the auth flows.
type TokenSvcFacade interface {
	// GenerateAccessToken mints a session token bound to the user's ID.
	GenerateAccessToken(ctx context.Context, user *domain.User) (string, time.Time, error)
	// ParseAccessToken verifies signature, issuer, audience and expiry and returns the subject.
	ParseAccessToken(tokenString string) (string, error)
	// IssuePendingToken signs a pending registration.
	IssuePendingToken(reg domain.PendingRegistration) (string, time.Time, error)
	// ParsePendingToken verifies a pending token and decodes its registration.
	ParsePendingToken(tokenString string) (*domain.PendingTicket, error)
	// MatchPendingOTP checks a submitted code against a parsed pending token.
	MatchPendingOTP(ticket *domain.PendingTicket, otp string) bool
}

// RegistrationSvc implements the OTP-gated signup.
type RegistrationSvc interface {
	// Register validates the signup, mails an OTP and returns the pending token.
	Register(ctx context.Context, req dto.RegisterRequest) (string, error)
	// VerifyOTP redeems a pending token and creates the verified user.
	VerifyOTP(ctx context.Context, req dto.VerifyOTPRequest) (*domain.User, error)
}

// LoginResult is the outcome of a successful authentication.
type LoginResult struct {
	User        *domain.User
	AccessToken string
	ExpiresAt   time.Time
}

// AuthSvc defines local credential operations.
type AuthSvc interface {
	// Login authenticates email/password and records the login.
	Login(ctx context.Context, email, password string, record domain.LoginRecord) (*LoginResult, error)
	// RequestPasswordReset mails a reset link when a local account exists for email.
	RequestPasswordReset(ctx context.Context, email string) error
	// ResetPassword sets a new password using a reset token.
	ResetPassword(ctx context.Context, token, newPassword string) error
}

// OAuthSvc bridges external identity providers to local sessions.
type OAuthSvc interface {
	// AuthCodeURL returns the provider consent URL for state.
	AuthCodeURL(provider domain.AuthProvider, state string) (string, error)
	// CompleteLogin exchanges the callback code and returns a local session.
	CompleteLogin(ctx context.Context, provider domain.AuthProvider, code string, record domain.LoginRecord) (*LoginResult, error)
	// ResolveUser finds or creates the local account for an external identity.
	ResolveUser(ctx context.Context, identity domain.OAuthIdentity) (*domain.User, error)
}

// Mailer delivers transactional mail.
type Mailer interface {
	SendOTP(ctx context.Context, to, fullName, code string, validFor time.Duration) error
	SendPasswordReset(ctx context.Context, to, fullName, resetLink string, validFor time.Duration) error
}
