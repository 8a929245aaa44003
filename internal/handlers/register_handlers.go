package handlers

import (
	"fmt"

	"github.com/SscSPs/cyberlearn_backend/cmd/docs"
	"github.com/SscSPs/cyberlearn_backend/internal/core/domain"
	portssvc "github.com/SscSPs/cyberlearn_backend/internal/core/ports/services"
	"github.com/SscSPs/cyberlearn_backend/internal/middleware"
	"github.com/SscSPs/cyberlearn_backend/internal/platform/config"
	"github.com/SscSPs/cyberlearn_backend/internal/utils"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// RouteDeps carries the infrastructure the routes need besides services.
// A nil RedisClient keeps rate-limit counters in process memory.
type RouteDeps struct {
	Posthog     *utils.PosthogClientWrapper
	RedisClient *redis.Client
}

// RegisterRoutes sets up all application routes, injecting dependencies using interfaces
func RegisterRoutes(
	r *gin.Engine,
	cfg *config.Config,
	services *portssvc.ServiceContainer,
	deps RouteDeps,
) error {
	r.GET("/health", health)

	cookies := newSessionCookies(cfg.JWTExpiryDuration, cfg.IsProduction)

	if err := registerUserRoutes(r, cfg, services, cookies, deps); err != nil {
		return err
	}
	registerOAuthRoutes(r, cfg, services, cookies, deps)
	registerAdminRoutes(r, services)

	setupSwaggerRoutes(r, cfg)
	return nil
}

// registerUserRoutes wires the local account endpoints under /api/users.
func registerUserRoutes(r *gin.Engine, cfg *config.Config, services *portssvc.ServiceContainer, cookies sessionCookies, deps RouteDeps) error {
	loginLimiter, err := middleware.NewRateLimiter(cfg.LoginRateLimit, "limiter:login", deps.RedisClient)
	if err != nil {
		return fmt.Errorf("login rate limiter: %w", err)
	}
	otpLimiter, err := middleware.NewRateLimiter(cfg.OTPRateLimit, "limiter:otp", deps.RedisClient)
	if err != nil {
		return fmt.Errorf("otp rate limiter: %w", err)
	}
	limitLogin := middleware.RateLimit(loginLimiter)
	limitOTP := middleware.RateLimit(otpLimiter)

	h := newAuthHandler(services, cookies, deps.Posthog)

	users := r.Group("/api/users")
	{
		users.POST("/register", limitOTP, h.register)
		users.POST("/verify-otp", limitOTP, h.verifyOTP)
		users.POST("/login", limitLogin, h.login)
		users.POST("/forgot-password", limitOTP, h.forgotPassword)
		users.POST("/reset-password", h.resetPassword)
		users.GET("/me", middleware.AuthMiddleware(services.TokenService), h.me)
	}

	r.POST("/auth/logout", h.logout)
	return nil
}

// registerOAuthRoutes wires /auth/<provider> and its callback for each supported provider.
func registerOAuthRoutes(r *gin.Engine, cfg *config.Config, services *portssvc.ServiceContainer, cookies sessionCookies, deps RouteDeps) {
	h := newOAuthHandler(services.OAuth, cfg.ClientURL, cookies, deps.Posthog)

	auth := r.Group("/auth")
	for _, provider := range []domain.AuthProvider{domain.ProviderGoogle, domain.ProviderGitHub} {
		auth.GET("/"+string(provider), h.begin(provider))
		auth.GET("/"+string(provider)+"/callback", h.callback(provider))
	}
}

func registerAdminRoutes(r *gin.Engine, services *portssvc.ServiceContainer) {
	h := newUserHandler(services.User)

	admin := r.Group("/api/admin",
		middleware.AuthMiddleware(services.TokenService),
		middleware.RequireRole(services.User, domain.RoleAdmin, domain.RoleSuperAdmin),
	)
	admin.GET("/users", h.listUsers)
}

// setupSwaggerRoutes configures the swagger documentation routes
func setupSwaggerRoutes(r *gin.Engine, cfg *config.Config) {
	if cfg.IsProduction {
		//no swagger in prod
		return
	}
	docs.SwaggerInfo.BasePath = "/"
	swagger := r.Group("/swagger")
	swagger.GET("/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
}
