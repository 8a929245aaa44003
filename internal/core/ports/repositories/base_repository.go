package repositories

import (
	"context"

	"github.com/jackc/pgx/v5"
)

// TransactionManager is implemented by SQL-backed stores that group several
// writes, such as recording a login and trimming the history, into one transaction.
type TransactionManager interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Commit(ctx context.Context, tx pgx.Tx) error
	// Rollback is safe to defer after Commit.
	Rollback(ctx context.Context, tx pgx.Tx) error
}
