package pgsql

import (
	portsrepo "github.com/SscSPs/cyberlearn_backend/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5/pgxpool"
)

// NewRepositoryProvider wires the PostgreSQL user store with the given pending-token ledger.
func NewRepositoryProvider(dbPool *pgxpool.Pool, pendingLedger portsrepo.PendingTokenLedger) portsrepo.RepositoryProvider {
	return portsrepo.RepositoryProvider{
		UserRepo:      newPgxUserRepository(dbPool),
		PendingLedger: pendingLedger,
	}
}
