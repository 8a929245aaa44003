package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/SscSPs/cyberlearn_backend/internal/apperrors"
	"github.com/SscSPs/cyberlearn_backend/internal/core/domain"
	portsrepo "github.com/SscSPs/cyberlearn_backend/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/cyberlearn_backend/internal/core/ports/services"
	"github.com/SscSPs/cyberlearn_backend/internal/utils"
)

const (
	MsgInvalidCredentials = "Invalid email or password"
	MsgUnverifiedAccount  = "Verify your email before login"
	MsgInvalidResetToken  = "Invalid or expired reset token"
)

type authService struct {
	BaseService
	userRepo  portsrepo.UserRepositoryFacade
	tokens    portssvc.TokenSvcFacade
	mailer    portssvc.Mailer
	clientURL string
	resetTTL  time.Duration

	// dummyHash is compared against when the email is unknown so both
	// failure branches cost one bcrypt comparison.
	dummyOnce sync.Once
	dummyHash string
}

// NewAuthService creates the local credential service.
func NewAuthService(
	userRepo portsrepo.UserRepositoryFacade,
	tokens portssvc.TokenSvcFacade,
	mailer portssvc.Mailer,
	clientURL string,
	resetTTL time.Duration,
) portssvc.AuthSvc {
	return &authService{
		userRepo:  userRepo,
		tokens:    tokens,
		mailer:    mailer,
		clientURL: clientURL,
		resetTTL:  resetTTL,
	}
}

// Login authenticates a local account. Unknown email, password-less accounts
// and wrong passwords all produce the same failure.
func (s *authService) Login(ctx context.Context, email, password string, record domain.LoginRecord) (*portssvc.LoginResult, error) {
	user, err := s.userRepo.FindUserByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			s.burnComparison(password)
			return nil, apperrors.NewBadRequestError(MsgInvalidCredentials)
		}
		return nil, fmt.Errorf("failed to look up user for login: %w", err)
	}

	if !user.HasPassword() {
		s.burnComparison(password)
		return nil, apperrors.NewBadRequestError(MsgInvalidCredentials)
	}
	if !utils.CheckPasswordHash(password, *user.PasswordHash) {
		return nil, apperrors.NewBadRequestError(MsgInvalidCredentials)
	}
	if !user.IsVerified {
		return nil, apperrors.NewUnauthorizedError(MsgUnverifiedAccount)
	}

	s.recordLogin(ctx, user, record)

	token, expiresAt, err := s.tokens.GenerateAccessToken(ctx, user)
	if err != nil {
		return nil, err
	}
	return &portssvc.LoginResult{User: user, AccessToken: token, ExpiresAt: expiresAt}, nil
}

// RequestPasswordReset mails a reset link to local accounts. Unknown or
// OAuth-only emails succeed silently.
func (s *authService) RequestPasswordReset(ctx context.Context, email string) error {
	email = NormalizeEmail(email)
	user, err := s.userRepo.FindUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			s.LogInfo(ctx, "Password reset requested for unknown email")
			return nil
		}
		return fmt.Errorf("failed to look up user for password reset: %w", err)
	}
	if !user.HasPassword() {
		s.LogInfo(ctx, "Password reset requested for OAuth-only account", slog.String("user_id", user.UserID))
		return nil
	}

	rawToken, err := utils.GenerateSecureRandomString(32)
	if err != nil {
		return err
	}
	expiresAt := time.Now().Add(s.resetTTL)
	if err := s.userRepo.SetPasswordResetToken(ctx, user.UserID, utils.HashResetToken(rawToken), expiresAt); err != nil {
		return fmt.Errorf("failed to store password reset token: %w", err)
	}

	link := s.clientURL + "/reset-password?token=" + url.QueryEscape(rawToken)
	if err := s.mailer.SendPasswordReset(ctx, user.Email, user.FullName, link, s.resetTTL); err != nil {
		s.LogError(ctx, err, "Failed to send password reset email", slog.String("user_id", user.UserID))
		return fmt.Errorf("failed to send password reset email: %w", err)
	}
	return nil
}

// ResetPassword replaces the password of the account holding token.
func (s *authService) ResetPassword(ctx context.Context, token, newPassword string) error {
	if !utils.IsStrongPassword(newPassword) {
		return apperrors.NewBadRequestError(MsgWeakPassword)
	}

	user, err := s.userRepo.FindUserByPasswordResetToken(ctx, utils.HashResetToken(token))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return apperrors.NewBadRequestError(MsgInvalidResetToken)
		}
		return fmt.Errorf("failed to look up password reset token: %w", err)
	}
	if user.PasswordResetExpiresAt == nil || time.Now().After(*user.PasswordResetExpiresAt) {
		return apperrors.NewBadRequestError(MsgInvalidResetToken)
	}

	hash, err := utils.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	if err := s.userRepo.UpdatePassword(ctx, user.UserID, hash); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	s.LogInfo(ctx, "Password reset completed", slog.String("user_id", user.UserID))
	return nil
}

// recordLogin appends to the login history. A failure here never blocks the login.
func (s *authService) recordLogin(ctx context.Context, user *domain.User, record domain.LoginRecord) {
	if err := appendLogin(ctx, s.userRepo, user, record); err != nil {
		s.LogError(ctx, err, "Failed to record login", slog.String("user_id", user.UserID))
	}
}

// appendLogin persists record and mirrors it onto user.
func appendLogin(ctx context.Context, repo portsrepo.UserWriter, user *domain.User, record domain.LoginRecord) error {
	if record.Timestamp.IsZero() {
		record.Timestamp = time.Now()
	}
	if err := repo.RecordLogin(ctx, user.UserID, record); err != nil {
		return err
	}
	user.AppendLogin(record)
	return nil
}

func (s *authService) burnComparison(password string) {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = utils.HashPassword("timing-equalizer-password")
	})
	utils.CheckPasswordHash(password, s.dummyHash)
}
