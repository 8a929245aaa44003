package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/SscSPs/cyberlearn_backend/internal/apperrors"
	"github.com/SscSPs/cyberlearn_backend/internal/core/domain"
	portsrepo "github.com/SscSPs/cyberlearn_backend/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/cyberlearn_backend/internal/core/ports/services"
	"github.com/SscSPs/cyberlearn_backend/internal/utils"
)

const (
	// maxUsernameSuffix bounds the sequential suffix search before falling back to a random one.
	maxUsernameSuffix = 50
	// maxCreateAttempts bounds retries when a concurrent signup wins the unique index.
	maxCreateAttempts = 3

	MsgUnsupportedProvider = "Unsupported OAuth provider"
	MsgProviderNoEmail     = "The identity provider did not return an email address"
	MsgProviderUnverified  = "The identity provider has not verified this email address"
)

type oauthService struct {
	BaseService
	userRepo  portsrepo.UserRepositoryFacade
	tokens    portssvc.TokenSvcFacade
	providers map[domain.AuthProvider]portssvc.OAuthProvider
}

// NewOAuthService creates the OAuth bridge over the given providers.
// Providers that are not passed in are reported as unsupported.
func NewOAuthService(
	userRepo portsrepo.UserRepositoryFacade,
	tokens portssvc.TokenSvcFacade,
	providers ...portssvc.OAuthProvider,
) portssvc.OAuthSvc {
	byName := make(map[domain.AuthProvider]portssvc.OAuthProvider, len(providers))
	for _, p := range providers {
		if p != nil {
			byName[p.Name()] = p
		}
	}
	return &oauthService{userRepo: userRepo, tokens: tokens, providers: byName}
}

func (s *oauthService) provider(name domain.AuthProvider) (portssvc.OAuthProvider, error) {
	p, ok := s.providers[name]
	if !ok {
		return nil, apperrors.NewNotFoundError(MsgUnsupportedProvider)
	}
	return p, nil
}

func (s *oauthService) AuthCodeURL(provider domain.AuthProvider, state string) (string, error) {
	p, err := s.provider(provider)
	if err != nil {
		return "", err
	}
	return p.AuthCodeURL(state), nil
}

// CompleteLogin exchanges code with the provider, resolves the local account
// and mints a session token for it.
func (s *oauthService) CompleteLogin(ctx context.Context, provider domain.AuthProvider, code string, record domain.LoginRecord) (*portssvc.LoginResult, error) {
	p, err := s.provider(provider)
	if err != nil {
		return nil, err
	}

	profile, err := p.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%s exchange failed: %w", provider, err)
	}

	user, err := s.ResolveUser(ctx, profile.Canonical())
	if err != nil {
		return nil, err
	}

	if err := appendLogin(ctx, s.userRepo, user, record); err != nil {
		s.LogError(ctx, err, "Failed to record OAuth login", slog.String("user_id", user.UserID))
	}

	token, expiresAt, err := s.tokens.GenerateAccessToken(ctx, user)
	if err != nil {
		return nil, err
	}
	return &portssvc.LoginResult{User: user, AccessToken: token, ExpiresAt: expiresAt}, nil
}

// ResolveUser returns the account owning identity.Email, creating a verified,
// password-less account with a unique username when none exists. Identities
// whose email the provider has not verified are refused.
func (s *oauthService) ResolveUser(ctx context.Context, identity domain.OAuthIdentity) (*domain.User, error) {
	email := NormalizeEmail(identity.Email)
	if email == "" {
		return nil, apperrors.NewBadRequestError(MsgProviderNoEmail)
	}
	if !identity.EmailVerified {
		s.LogWarn(ctx, "Refused OAuth identity with unverified email", slog.String("provider", string(identity.Provider)))
		return nil, apperrors.NewBadRequestError(MsgProviderUnverified)
	}

	for attempt := 0; attempt < maxCreateAttempts; attempt++ {
		existing, err := s.userRepo.FindUserByEmail(ctx, email)
		if err == nil {
			return existing, nil
		}
		if !errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("failed to look up OAuth user: %w", err)
		}

		username, err := s.uniqueUsername(ctx, usernameBase(identity))
		if err != nil {
			return nil, err
		}

		now := time.Now()
		user := &domain.User{
			Username:     username,
			FullName:     identity.DisplayName,
			Email:        email,
			IsVerified:   true,
			Role:         domain.RoleUser,
			AuthProvider: identity.Provider,
			AvatarURL:    identity.AvatarURL,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		err = s.userRepo.SaveUser(ctx, user)
		if err == nil {
			s.LogInfo(ctx, "Created user from OAuth identity",
				slog.String("user_id", user.UserID),
				slog.String("provider", string(identity.Provider)))
			return user, nil
		}
		if !errors.Is(err, apperrors.ErrDuplicate) {
			return nil, fmt.Errorf("failed to create OAuth user: %w", err)
		}
		s.LogWarn(ctx, "OAuth user creation collided, retrying", slog.Int("attempt", attempt+1))
	}
	return nil, apperrors.NewConflictError(MsgAccountExists)
}

// uniqueUsername returns base when free, otherwise base1 .. base50, then base
// with a random hex suffix. Every candidate fits MaxUsernameLength.
func (s *oauthService) uniqueUsername(ctx context.Context, base string) (string, error) {
	for i := 0; i <= maxUsernameSuffix; i++ {
		candidate := base
		if i > 0 {
			candidate = withSuffix(base, strconv.Itoa(i))
		}
		_, lookupErr := s.userRepo.FindUserByUsername(ctx, candidate)
		taken, err := existsFromLookup(lookupErr)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
	}

	suffix, err := utils.GenerateSecureRandomString(2)
	if err != nil {
		return "", err
	}
	return withSuffix(base, suffix), nil
}

// usernameBase derives the slug seed from the display name, then the email local part.
func usernameBase(identity domain.OAuthIdentity) string {
	seed := identity.DisplayName
	if utils.SlugifyUsername(seed) == utils.DefaultUsernameBase {
		seed, _, _ = strings.Cut(identity.Email, "@")
	}
	base := utils.SlugifyUsername(seed)
	if len(base) < utils.MinUsernameLength {
		base += utils.DefaultUsernameBase
	}
	return withSuffix(base, "")
}

// withSuffix truncates base so base+suffix stays within MaxUsernameLength.
// Slugs are ASCII, so byte truncation is safe.
func withSuffix(base, suffix string) string {
	if limit := utils.MaxUsernameLength - len(suffix); len(base) > limit {
		base = base[:limit]
	}
	return base + suffix
}
