package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/SscSPs/cyberlearn_backend/internal/apperrors"
	"github.com/SscSPs/cyberlearn_backend/internal/core/domain"
	portsrepo "github.com/SscSPs/cyberlearn_backend/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/cyberlearn_backend/internal/core/ports/services"
	"github.com/SscSPs/cyberlearn_backend/internal/dto"
	"github.com/SscSPs/cyberlearn_backend/internal/utils"
)

// Client-facing messages of the registration flow.
const (
	MsgEmailInUse          = "Email is already in use"
	MsgUsernameTaken       = "Username is already taken"
	MsgWeakPassword        = "Password must be at least 8 characters and include an uppercase letter, a lowercase letter, a number and one of @$!%*?&"
	MsgInvalidPendingToken = "Invalid or expired verification token"
	MsgInvalidOTP          = "Invalid OTP"
	MsgPendingTokenUsed    = "Verification token already used"
	MsgAccountExists       = "An account with this email or username already exists"
	MsgTooManyOTPAttempts  = "Too many invalid codes, please register again"
)

// MaxOTPAttempts is the number of wrong codes after which a pending token is burned.
const MaxOTPAttempts = 5

type registrationService struct {
	BaseService
	userRepo      portsrepo.UserRepositoryFacade
	pendingLedger portsrepo.PendingTokenLedger
	tokens        portssvc.TokenSvcFacade
	mailer        portssvc.Mailer
	pendingTTL    time.Duration
}

// NewRegistrationService creates the OTP-gated signup service.
func NewRegistrationService(
	userRepo portsrepo.UserRepositoryFacade,
	pendingLedger portsrepo.PendingTokenLedger,
	tokens portssvc.TokenSvcFacade,
	mailer portssvc.Mailer,
	pendingTTL time.Duration,
) portssvc.RegistrationSvc {
	return &registrationService{
		userRepo:      userRepo,
		pendingLedger: pendingLedger,
		tokens:        tokens,
		mailer:        mailer,
		pendingTTL:    pendingTTL,
	}
}

// Register checks uniqueness and password strength, then mails an OTP and
// returns the signed pending token. Nothing is persisted.
func (s *registrationService) Register(ctx context.Context, req dto.RegisterRequest) (string, error) {
	email := NormalizeEmail(req.Email)
	username := strings.TrimSpace(req.UserName)

	if taken, err := s.emailTaken(ctx, email); err != nil {
		return "", err
	} else if taken {
		return "", apperrors.NewConflictError(MsgEmailInUse)
	}
	if taken, err := s.usernameTaken(ctx, username); err != nil {
		return "", err
	} else if taken {
		return "", apperrors.NewConflictError(MsgUsernameTaken)
	}

	if !utils.IsStrongPassword(req.Password) {
		return "", apperrors.NewBadRequestError(MsgWeakPassword)
	}

	passwordHash, err := utils.HashPassword(req.Password)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	otp, err := utils.GenerateOTP()
	if err != nil {
		return "", err
	}

	pendingToken, _, err := s.tokens.IssuePendingToken(domain.PendingRegistration{
		Username:     username,
		FullName:     strings.TrimSpace(req.FullName),
		Email:        email,
		PasswordHash: passwordHash,
		OTP:          otp,
		CreatedAt:    time.Now(),
	})
	if err != nil {
		return "", err
	}

	if err := s.mailer.SendOTP(ctx, email, req.FullName, otp, s.pendingTTL); err != nil {
		s.LogError(ctx, err, "Failed to send OTP email", slog.String("email", email))
		return "", fmt.Errorf("failed to send otp email: %w", err)
	}

	s.LogInfo(ctx, "OTP issued for pending registration", slog.String("email", email))
	return pendingToken, nil
}

// VerifyOTP redeems a pending token exactly once and creates the verified user.
func (s *registrationService) VerifyOTP(ctx context.Context, req dto.VerifyOTPRequest) (*domain.User, error) {
	ticket, err := s.tokens.ParsePendingToken(req.PendingToken)
	if err != nil {
		s.LogWarn(ctx, "Pending token rejected", slog.String("error", err.Error()))
		return nil, apperrors.NewUnauthorizedError(MsgInvalidPendingToken)
	}

	ttl := time.Until(ticket.ExpiresAt)
	if ttl <= 0 {
		return nil, apperrors.NewUnauthorizedError(MsgInvalidPendingToken)
	}

	if !s.tokens.MatchPendingOTP(ticket, req.OTP) {
		return nil, s.rejectCode(ctx, ticket.ID, ttl)
	}
	fresh, err := s.pendingLedger.MarkConsumed(ctx, ticket.ID, ttl)
	if err != nil {
		return nil, fmt.Errorf("failed to record pending token consumption: %w", err)
	}
	if !fresh {
		return nil, apperrors.NewAppError(http.StatusBadRequest, MsgPendingTokenUsed, apperrors.ErrTokenConsumed)
	}

	reg := ticket.Registration
	passwordHash := reg.PasswordHash
	now := time.Now()
	user := &domain.User{
		Username:     reg.Username,
		FullName:     reg.FullName,
		Email:        reg.Email,
		PasswordHash: &passwordHash,
		IsVerified:   true,
		Role:         domain.RoleUser,
		AuthProvider: domain.ProviderLocal,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.userRepo.SaveUser(ctx, user); err != nil {
		if releaseErr := s.pendingLedger.Release(ctx, ticket.ID); releaseErr != nil {
			s.LogError(ctx, releaseErr, "Failed to release pending token marker", slog.String("token_id", ticket.ID))
		}
		if errors.Is(err, apperrors.ErrDuplicate) {
			return nil, apperrors.NewConflictError(MsgAccountExists)
		}
		return nil, fmt.Errorf("failed to create verified user: %w", err)
	}

	s.LogInfo(ctx, "User registered", slog.String("user_id", user.UserID))
	return user, nil
}

// rejectCode counts a wrong code and burns the token once MaxOTPAttempts is reached.
func (s *registrationService) rejectCode(ctx context.Context, tokenID string, ttl time.Duration) error {
	attempts, err := s.pendingLedger.RecordFailedAttempt(ctx, tokenID, ttl)
	if err != nil {
		return fmt.Errorf("failed to record otp attempt: %w", err)
	}
	if attempts < MaxOTPAttempts {
		return apperrors.NewBadRequestError(MsgInvalidOTP)
	}
	if _, err := s.pendingLedger.MarkConsumed(ctx, tokenID, ttl); err != nil {
		return fmt.Errorf("failed to burn pending token: %w", err)
	}
	s.LogWarn(ctx, "Pending token burned after repeated invalid codes", slog.String("token_id", tokenID))
	return apperrors.NewBadRequestError(MsgTooManyOTPAttempts)
}

func (s *registrationService) emailTaken(ctx context.Context, email string) (bool, error) {
	_, err := s.userRepo.FindUserByEmail(ctx, email)
	return existsFromLookup(err)
}

func (s *registrationService) usernameTaken(ctx context.Context, username string) (bool, error) {
	_, err := s.userRepo.FindUserByUsername(ctx, username)
	return existsFromLookup(err)
}

// existsFromLookup turns a repository lookup error into an existence answer.
func existsFromLookup(err error) (bool, error) {
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, apperrors.ErrNotFound):
		return false, nil
	default:
		return false, fmt.Errorf("failed to check user existence: %w", err)
	}
}
