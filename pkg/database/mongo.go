package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// NewMongoClient connects to MongoDB and verifies the primary is reachable.
func NewMongoClient(ctx context.Context, uri string, logger *slog.Logger) (*mongo.Client, error) {
	if uri == "" {
		return nil, fmt.Errorf("mongo URI cannot be empty")
	}

	opts := options.Client().
		ApplyURI(uri).
		SetConnectTimeout(10 * time.Second).
		SetServerSelectionTimeout(10 * time.Second)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongo: %w", err)
	}

	logger.Info("Successfully connected to MongoDB.")
	return client, nil
}

// CloseMongoClient disconnects the client, waiting at most until ctx expires.
func CloseMongoClient(ctx context.Context, client *mongo.Client, logger *slog.Logger) {
	if client == nil {
		return
	}
	if err := client.Disconnect(ctx); err != nil {
		logger.Error("Error disconnecting from MongoDB", slog.String("error", err.Error()))
		return
	}
	logger.Info("MongoDB connection closed.")
}
