package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/SscSPs/cyberlearn_backend/internal/apperrors"
	"github.com/SscSPs/cyberlearn_backend/internal/core/domain"
	portssvc "github.com/SscSPs/cyberlearn_backend/internal/core/ports/services"
	"github.com/SscSPs/cyberlearn_backend/internal/platform/config"
	"github.com/SscSPs/cyberlearn_backend/internal/utils"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// pendingAudienceSuffix keeps pending tokens from ever validating as session tokens.
const pendingAudienceSuffix = ":pending"

// Key derivation labels for the pending token payload.
const (
	otpDigestPurpose  = "cyberlearn pending otp digest"
	sealedHashPurpose = "cyberlearn pending password seal"
)

// pendingClaims is the signed carrier of a not-yet-committed registration.
// The client can read it, so the code is stored as a digest and the password
// hash is sealed.
type pendingClaims struct {
	UserName       string `json:"userName"`
	FullName       string `json:"fullName"`
	SealedPassword string `json:"sealedPassword"`
	OTPDigest      string `json:"otpDigest"`
	jwt.RegisteredClaims
}

// tokenService implements the TokenSvcFacade for session and pending tokens.
type tokenService struct {
	cfg *config.Config
}

// NewTokenService creates a new instance of tokenService.
func NewTokenService(cfg *config.Config) portssvc.TokenSvcFacade {
	return &tokenService{cfg: cfg}
}

// GenerateAccessToken creates a new session token for the given user.
func (s *tokenService) GenerateAccessToken(ctx context.Context, user *domain.User) (string, time.Time, error) {
	if user == nil || user.UserID == "" {
		return "", time.Time{}, errors.New("cannot issue a token without a user id")
	}
	expiryTime := time.Now().Add(s.cfg.JWTExpiryDuration)

	accessToken, err := utils.GenerateJWT(user.UserID, s.cfg.JWTSecret, s.cfg.JWTExpiryDuration, s.cfg.JWTIssuer, s.cfg.JWTAudience)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign access token: %w", err)
	}
	return accessToken, expiryTime, nil
}

// ParseAccessToken validates a session token and returns its subject.
func (s *tokenService) ParseAccessToken(tokenString string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	if err := utils.ParseAndValidateJWT(tokenString, s.cfg.JWTSecret, s.cfg.JWTIssuer, s.cfg.JWTAudience, claims); err != nil {
		return "", fmt.Errorf("%w: %w", apperrors.ErrUnauthorized, err)
	}
	if claims.Subject == "" {
		return "", fmt.Errorf("%w: subject missing", apperrors.ErrUnauthorized)
	}
	return claims.Subject, nil
}

// IssuePendingToken signs reg with the pending-token lifetime.
func (s *tokenService) IssuePendingToken(reg domain.PendingRegistration) (string, time.Time, error) {
	now := time.Now()
	if !reg.CreatedAt.IsZero() {
		now = reg.CreatedAt
	}
	expiresAt := now.Add(s.cfg.PendingTokenExpiryDuration)
	tokenID := uuid.NewString()

	digestKey, err := utils.DeriveKey(s.cfg.JWTSecret, otpDigestPurpose)
	if err != nil {
		return "", time.Time{}, err
	}
	sealer, err := s.passwordSealer()
	if err != nil {
		return "", time.Time{}, err
	}
	sealedPassword, err := sealer.Seal(reg.PasswordHash, tokenID)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to seal password hash: %w", err)
	}

	claims := pendingClaims{
		UserName:       reg.Username,
		FullName:       reg.FullName,
		SealedPassword: sealedPassword,
		OTPDigest:      utils.OTPDigest(digestKey, tokenID, reg.OTP),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        tokenID,
			Issuer:    s.cfg.JWTIssuer,
			Subject:   reg.Email,
			Audience:  jwt.ClaimStrings{s.cfg.JWTAudience + pendingAudienceSuffix},
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign pending token: %w", err)
	}
	return signed, expiresAt, nil
}

// ParsePendingToken verifies a pending token and returns its contents.
func (s *tokenService) ParsePendingToken(tokenString string) (*domain.PendingTicket, error) {
	claims := &pendingClaims{}
	if err := utils.ParseAndValidateJWT(tokenString, s.cfg.JWTSecret, s.cfg.JWTIssuer, s.cfg.JWTAudience+pendingAudienceSuffix, claims); err != nil {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrUnauthorized, err)
	}
	if claims.ID == "" || claims.Subject == "" || claims.OTPDigest == "" || claims.SealedPassword == "" {
		return nil, fmt.Errorf("%w: pending token is missing required claims", apperrors.ErrUnauthorized)
	}
	sealer, err := s.passwordSealer()
	if err != nil {
		return nil, err
	}
	passwordHash, err := sealer.Open(claims.SealedPassword, claims.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrUnauthorized, err)
	}
	ticket := &domain.PendingTicket{
		ID:        claims.ID,
		ExpiresAt: claims.ExpiresAt.Time,
		OTPDigest: claims.OTPDigest,
		Registration: domain.PendingRegistration{
			Username:     claims.UserName,
			FullName:     claims.FullName,
			Email:        claims.Subject,
			PasswordHash: passwordHash,
		},
	}
	if claims.IssuedAt != nil {
		ticket.Registration.CreatedAt = claims.IssuedAt.Time
	}
	return ticket, nil
}

// MatchPendingOTP reports whether otp is the code the ticket was issued for.
func (s *tokenService) MatchPendingOTP(ticket *domain.PendingTicket, otp string) bool {
	if ticket == nil || ticket.OTPDigest == "" {
		return false
	}
	key, err := utils.DeriveKey(s.cfg.JWTSecret, otpDigestPurpose)
	if err != nil {
		return false
	}
	return utils.MatchOTPDigest(key, ticket.ID, otp, ticket.OTPDigest)
}

func (s *tokenService) passwordSealer() (*utils.Sealer, error) {
	key, err := utils.DeriveKey(s.cfg.JWTSecret, sealedHashPurpose)
	if err != nil {
		return nil, err
	}
	return utils.NewSealer(key)
}
