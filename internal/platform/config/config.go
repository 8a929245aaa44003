package config

import (
	"errors"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	DBDriverMongo    = "mongo"
	DBDriverPostgres = "postgres"
)

// Config holds application configuration.
type Config struct {
	Port         string
	Environment  string
	IsProduction bool

	// Storage
	DBDriver      string
	MongoURI      string
	MongoDatabase string
	DatabaseURL   string
	RedisURL      string

	// Session tokens
	JWTSecret         string
	JWTIssuer         string
	JWTAudience       string
	JWTExpiryDuration time.Duration

	// Pending registration tokens
	PendingTokenExpiryDuration time.Duration

	PasswordResetExpiryDuration time.Duration

	ClientURL string

	// External OAuth Providers
	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string
	GitHubClientID     string
	GitHubClientSecret string
	GitHubRedirectURL  string

	// Outbound mail
	EmailHost string
	EmailPort int
	EmailUser string
	EmailPass string

	// Rate limits in ulule/limiter format, e.g. "5-M"
	LoginRateLimit string
	OTPRateLimit   string

	PosthogAPIKey string
}

const defaultJWTSecret = "a-very-secret-key-should-be-longer-and-random"

// ErrMissingJWTSecret is returned when production starts without JWT_SECRET.
var ErrMissingJWTSecret = errors.New("JWT_SECRET must be set when NODE_ENV is production")

// LoadConfig loads configuration from environment variables and .env file if present.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	viper.SetDefault("PORT", "5000")
	viper.SetDefault("NODE_ENV", "development")
	viper.SetDefault("DB_DRIVER", DBDriverMongo)
	viper.SetDefault("MONGO_URI", "mongodb://localhost:27017")
	viper.SetDefault("MONGO_DATABASE", "cyberlearn")
	viper.SetDefault("PGSQL_URL", "")
	viper.SetDefault("REDIS_URL", "")
	viper.SetDefault("JWT_SECRET", "")
	viper.SetDefault("JWT_ISSUER", "cyberlearn-api")
	viper.SetDefault("JWT_AUDIENCE", "cyberlearn-client")
	viper.SetDefault("JWT_EXPIRY_DURATION", "1h")
	viper.SetDefault("PENDING_TOKEN_EXPIRY_DURATION", "15m")
	viper.SetDefault("PASSWORD_RESET_EXPIRY_DURATION", "30m")
	viper.SetDefault("CLIENT_URL", "http://localhost:5173")
	viper.SetDefault("GOOGLE_CLIENT_ID", "")
	viper.SetDefault("GOOGLE_CLIENT_SECRET", "")
	viper.SetDefault("GOOGLE_REDIRECT_URL", "http://localhost:5000/auth/google/callback")
	viper.SetDefault("GITHUB_CLIENT_ID", "")
	viper.SetDefault("GITHUB_CLIENT_SECRET", "")
	viper.SetDefault("GITHUB_REDIRECT_URL", "http://localhost:5000/auth/github/callback")
	viper.SetDefault("EMAIL_HOST", "smtp.gmail.com")
	viper.SetDefault("EMAIL_PORT", 587)
	viper.SetDefault("EMAIL_USER", "")
	viper.SetDefault("EMAIL_PASS", "")
	viper.SetDefault("LOGIN_RATE_LIMIT", "5-M")
	viper.SetDefault("OTP_RATE_LIMIT", "3-M")
	viper.SetDefault("POSTHOG_API_KEY", "")

	viper.AutomaticEnv()

	cfg := &Config{}

	cfg.Port = viper.GetString("PORT")
	cfg.Environment = strings.ToLower(viper.GetString("NODE_ENV"))
	cfg.IsProduction = cfg.Environment == "production"

	cfg.DBDriver = strings.ToLower(viper.GetString("DB_DRIVER"))
	if cfg.DBDriver != DBDriverMongo && cfg.DBDriver != DBDriverPostgres {
		log.Printf("Warning: Unknown DB_DRIVER ('%s'). Defaulting to %s.\n", cfg.DBDriver, DBDriverMongo)
		cfg.DBDriver = DBDriverMongo
	}
	cfg.MongoURI = viper.GetString("MONGO_URI")
	cfg.MongoDatabase = viper.GetString("MONGO_DATABASE")
	cfg.DatabaseURL = viper.GetString("PGSQL_URL")
	if cfg.DBDriver == DBDriverPostgres && cfg.DatabaseURL == "" {
		log.Println("Warning: DB_DRIVER is postgres but PGSQL_URL is not set.")
	}
	cfg.RedisURL = viper.GetString("REDIS_URL")

	cfg.JWTSecret = viper.GetString("JWT_SECRET")
	if cfg.JWTSecret == "" {
		if cfg.IsProduction {
			return nil, ErrMissingJWTSecret
		}
		cfg.JWTSecret = defaultJWTSecret // !! CHANGE IN PRODUCTION !!
		log.Println("Warning: JWT_SECRET environment variable not set. Using default insecure key.")
	}
	cfg.JWTIssuer = viper.GetString("JWT_ISSUER")
	cfg.JWTAudience = viper.GetString("JWT_AUDIENCE")
	cfg.JWTExpiryDuration = parseDuration("JWT_EXPIRY_DURATION", time.Hour)
	cfg.PendingTokenExpiryDuration = parseDuration("PENDING_TOKEN_EXPIRY_DURATION", 15*time.Minute)
	cfg.PasswordResetExpiryDuration = parseDuration("PASSWORD_RESET_EXPIRY_DURATION", 30*time.Minute)

	cfg.ClientURL = strings.TrimRight(viper.GetString("CLIENT_URL"), "/")

	cfg.GoogleClientID = viper.GetString("GOOGLE_CLIENT_ID")
	cfg.GoogleClientSecret = viper.GetString("GOOGLE_CLIENT_SECRET")
	cfg.GoogleRedirectURL = viper.GetString("GOOGLE_REDIRECT_URL")
	cfg.GitHubClientID = viper.GetString("GITHUB_CLIENT_ID")
	cfg.GitHubClientSecret = viper.GetString("GITHUB_CLIENT_SECRET")
	cfg.GitHubRedirectURL = viper.GetString("GITHUB_REDIRECT_URL")

	// Log warnings for missing critical OAuth ENV variables
	if cfg.GoogleClientID == "" || cfg.GoogleClientSecret == "" {
		log.Println("Warning: GOOGLE_CLIENT_ID/GOOGLE_CLIENT_SECRET not set. Google OAuth will not function.")
	}
	if cfg.GitHubClientID == "" || cfg.GitHubClientSecret == "" {
		log.Println("Warning: GITHUB_CLIENT_ID/GITHUB_CLIENT_SECRET not set. GitHub OAuth will not function.")
	}

	cfg.EmailHost = viper.GetString("EMAIL_HOST")
	cfg.EmailPort = viper.GetInt("EMAIL_PORT")
	cfg.EmailUser = viper.GetString("EMAIL_USER")
	cfg.EmailPass = viper.GetString("EMAIL_PASS")
	if cfg.EmailUser == "" || cfg.EmailPass == "" {
		log.Println("Warning: EMAIL_USER/EMAIL_PASS not set. OTP emails cannot be delivered.")
	}

	cfg.LoginRateLimit = viper.GetString("LOGIN_RATE_LIMIT")
	cfg.OTPRateLimit = viper.GetString("OTP_RATE_LIMIT")
	cfg.PosthogAPIKey = viper.GetString("POSTHOG_API_KEY")

	return cfg, nil
}

// parseDuration reads key as a duration (e.g. "60m", "1h"), falling back to def.
func parseDuration(key string, def time.Duration) time.Duration {
	raw := viper.GetString(key)
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		if raw != "" {
			log.Printf("Warning: Invalid value for %s ('%s'). Defaulting to %s.\n", key, raw, def.String())
		}
		return def
	}
	return d
}
