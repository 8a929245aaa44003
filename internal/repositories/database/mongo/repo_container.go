package mongo

import (
	"context"

	portsrepo "github.com/SscSPs/cyberlearn_backend/internal/core/ports/repositories"
	"go.mongodb.org/mongo-driver/mongo"
)

// NewRepositoryProvider wires the MongoDB user store with the given pending-token ledger.
// The unique indexes are created before the provider is returned.
func NewRepositoryProvider(ctx context.Context, db *mongo.Database, pendingLedger portsrepo.PendingTokenLedger) (portsrepo.RepositoryProvider, error) {
	userRepo := newMongoUserRepository(db)
	if err := userRepo.EnsureIndexes(ctx); err != nil {
		return portsrepo.RepositoryProvider{}, err
	}
	return portsrepo.RepositoryProvider{
		UserRepo:      userRepo,
		PendingLedger: pendingLedger,
	}, nil
}
