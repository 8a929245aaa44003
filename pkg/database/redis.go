package database

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

// NewRedisClient parses a redis:// URL, connects and pings the server.
func NewRedisClient(ctx context.Context, redisURL string, logger *slog.Logger) (*redis.Client, error) {
	if redisURL == "" {
		return nil, fmt.Errorf("redis URL cannot be empty")
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	logger.Info("Successfully connected to Redis.")
	return client, nil
}

// CloseRedisClient closes the client if one was created.
func CloseRedisClient(client *redis.Client, logger *slog.Logger) {
	if client == nil {
		return
	}
	if err := client.Close(); err != nil {
		logger.Error("Error closing Redis client", slog.String("error", err.Error()))
		return
	}
	logger.Info("Redis connection closed.")
}
