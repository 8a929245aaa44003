package repositories

import (
	"context"
	"time"
)

// PendingTokenLedger records which pending registration tokens have been redeemed.
// Markers only need to outlive the token they guard.
type PendingTokenLedger interface {
	// MarkConsumed atomically records tokenID as used for ttl. It returns false
	// when the token was already marked.
	MarkConsumed(ctx context.Context, tokenID string, ttl time.Duration) (bool, error)

	// Release removes a marker so the token can be redeemed again.
	Release(ctx context.Context, tokenID string) error

	// RecordFailedAttempt counts a wrong code submitted for tokenID and returns
	// the running total. The counter lives for ttl.
	RecordFailedAttempt(ctx context.Context, tokenID string, ttl time.Duration) (int64, error)
}
