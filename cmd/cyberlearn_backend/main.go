package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SscSPs/cyberlearn_backend/internal/adapters/ledger"
	"github.com/SscSPs/cyberlearn_backend/internal/adapters/mailer"
	"github.com/SscSPs/cyberlearn_backend/internal/adapters/oauth"
	portsrepo "github.com/SscSPs/cyberlearn_backend/internal/core/ports/repositories"
	"github.com/SscSPs/cyberlearn_backend/internal/core/services"
	"github.com/SscSPs/cyberlearn_backend/internal/handlers"
	"github.com/SscSPs/cyberlearn_backend/internal/middleware"
	"github.com/SscSPs/cyberlearn_backend/internal/platform/config"
	mongorepo "github.com/SscSPs/cyberlearn_backend/internal/repositories/database/mongo"
	"github.com/SscSPs/cyberlearn_backend/internal/repositories/database/pgsql"
	"github.com/SscSPs/cyberlearn_backend/internal/utils"
	"github.com/SscSPs/cyberlearn_backend/pkg/database"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

const (
	migrationsPath  = "file://migrations"
	shutdownTimeout = 10 * time.Second
	startupTimeout  = 30 * time.Second
)

// @title CyberLearn Backend API
// @version 1.0
// @description Authentication and session API for the CyberLearn platform.

// @host localhost:5000
// @BasePath /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	// Initialize structured logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		logger.Error("Server exited with error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	startCtx, cancelStart := context.WithTimeout(context.Background(), startupTimeout)
	defer cancelStart()

	// --- Pending-token ledger and shared limiter store ---
	var redisClient *redis.Client
	var pendingLedger portsrepo.PendingTokenLedger
	if cfg.RedisURL != "" {
		redisClient, err = database.NewRedisClient(startCtx, cfg.RedisURL, logger)
		if err != nil {
			return err
		}
		defer database.CloseRedisClient(redisClient, logger)
		pendingLedger = ledger.NewRedisLedger(redisClient)
	} else {
		logger.Warn("REDIS_URL not set; pending-token ledger and rate limits are kept in process memory")
		pendingLedger = ledger.NewMemoryLedger()
	}

	// --- Credential store ---
	var repos portsrepo.RepositoryProvider
	switch cfg.DBDriver {
	case config.DBDriverPostgres:
		if err := database.RunMigrations(cfg.DatabaseURL, migrationsPath, logger); err != nil {
			return err
		}
		dbPool, err := database.NewPgxPool(startCtx, cfg.DatabaseURL, logger)
		if err != nil {
			return err
		}
		defer database.ClosePgxPool(dbPool, logger)
		repos = pgsql.NewRepositoryProvider(dbPool, pendingLedger)
	default:
		mongoClient, err := database.NewMongoClient(startCtx, cfg.MongoURI, logger)
		if err != nil {
			return err
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			database.CloseMongoClient(ctx, mongoClient, logger)
		}()
		repos, err = mongorepo.NewRepositoryProvider(startCtx, mongoClient.Database(cfg.MongoDatabase), pendingLedger)
		if err != nil {
			return err
		}
	}

	smtpMailer, err := mailer.NewSMTPMailer(cfg, logger)
	if err != nil {
		return err
	}

	posthogClient := utils.InitializePosthogClient(cfg.PosthogAPIKey, logger)
	defer posthogClient.Close()

	serviceContainer := services.NewServiceContainer(cfg, repos, smtpMailer, oauth.ConfiguredProviders(cfg, logger)...)

	if err := middleware.RegisterValidators(); err != nil {
		return err
	}

	if cfg.IsProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware (logging, recovery, CORS, error rendering, analytics)
	r.Use(
		middleware.StructuredLoggingMiddleware(logger),
		gin.Recovery(),
		cors.New(cors.Config{
			AllowOrigins:     []string{cfg.ClientURL},
			AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
			ExposeHeaders:    []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}),
		middleware.ErrorHandler(cfg.IsProduction),
		middleware.PosthogMiddleware(posthogClient),
	)

	if err := r.SetTrustedProxies(nil); err != nil {
		return err
	}

	if err := handlers.RegisterRoutes(r, cfg, serviceContainer, handlers.RouteDeps{
		Posthog:     posthogClient,
		RedisClient: redisClient,
	}); err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("Server starting", slog.String("port", cfg.Port), slog.String("db_driver", cfg.DBDriver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		return err
	case sig := <-quit:
		logger.Info("Shutting down server", slog.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return err
	}
	logger.Info("Server stopped")
	return nil
}
