package services

import (
	portsrepo "github.com/SscSPs/cyberlearn_backend/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/cyberlearn_backend/internal/core/ports/services"
	"github.com/SscSPs/cyberlearn_backend/internal/platform/config"
)

// NewServiceContainer creates a new service container with properly initialized dependencies
func NewServiceContainer(
	cfg *config.Config,
	repos portsrepo.RepositoryProvider,
	mailer portssvc.Mailer,
	providers ...portssvc.OAuthProvider,
) *portssvc.ServiceContainer {
	container := &portssvc.ServiceContainer{}

	// Token service first since every auth flow signs with it
	container.TokenService = NewTokenService(cfg)

	container.User = NewUserService(repos.UserRepo)
	container.Registration = NewRegistrationService(
		repos.UserRepo,
		repos.PendingLedger,
		container.TokenService,
		mailer,
		cfg.PendingTokenExpiryDuration,
	)
	container.Auth = NewAuthService(
		repos.UserRepo,
		container.TokenService,
		mailer,
		cfg.ClientURL,
		cfg.PasswordResetExpiryDuration,
	)
	container.OAuth = NewOAuthService(repos.UserRepo, container.TokenService, providers...)

	return container
}

// Helper to check interface implementations at compile time
var (
	_ portssvc.TokenSvcFacade  = (*tokenService)(nil)
	_ portssvc.UserSvcFacade   = (*userService)(nil)
	_ portssvc.RegistrationSvc = (*registrationService)(nil)
	_ portssvc.AuthSvc         = (*authService)(nil)
	_ portssvc.OAuthSvc        = (*oauthService)(nil)
)
