package oauth

import (
	"log/slog"

	portssvc "github.com/SscSPs/cyberlearn_backend/internal/core/ports/services"
	"github.com/SscSPs/cyberlearn_backend/internal/platform/config"
)

// ConfiguredProviders builds every provider whose credentials are present.
// Providers with missing credentials are skipped and reported as unsupported at request time.
func ConfiguredProviders(cfg *config.Config, logger *slog.Logger) []portssvc.OAuthProvider {
	var providers []portssvc.OAuthProvider

	if g, err := NewGoogleProvider(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleRedirectURL); err != nil {
		logger.Warn("Google OAuth disabled", slog.String("reason", err.Error()))
	} else {
		providers = append(providers, g)
	}

	if gh, err := NewGitHubProvider(cfg.GitHubClientID, cfg.GitHubClientSecret, cfg.GitHubRedirectURL); err != nil {
		logger.Warn("GitHub OAuth disabled", slog.String("reason", err.Error()))
	} else {
		providers = append(providers, gh)
	}

	return providers
}
