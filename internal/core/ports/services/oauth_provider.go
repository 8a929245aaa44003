package services

import (
	"context"

	"github.com/SscSPs/cyberlearn_backend/internal/core/domain"
)

// OAuthProvider is implemented by each external identity provider adapter.
// Implementations return identity facts only; they never create users or sessions.
type OAuthProvider interface {
	// Name returns the provider tag.
	Name() domain.AuthProvider
	// AuthCodeURL returns the consent URL carrying state.
	AuthCodeURL(state string) string
	// Exchange trades the callback code for a verified profile.
	Exchange(ctx context.Context, code string) (domain.OAuthProfile, error)
}
