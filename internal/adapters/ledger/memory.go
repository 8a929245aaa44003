package ledger

import (
	"context"
	"sync"
	"time"
)

type attemptCounter struct {
	count     int64
	expiresAt time.Time
}

// MemoryLedger is the single-instance ledger used when no Redis is configured.
// Expired entries are swept lazily on each write.
type MemoryLedger struct {
	mu       sync.Mutex
	consumed map[string]time.Time
	attempts map[string]attemptCounter
	now      func() time.Time
}

func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{
		consumed: make(map[string]time.Time),
		attempts: make(map[string]attemptCounter),
		now:      time.Now,
	}
}

// sweep drops expired entries. Callers hold mu.
func (l *MemoryLedger) sweep(now time.Time) {
	for id, exp := range l.consumed {
		if !now.Before(exp) {
			delete(l.consumed, id)
		}
	}
	for id, c := range l.attempts {
		if !now.Before(c.expiresAt) {
			delete(l.attempts, id)
		}
	}
}

func (l *MemoryLedger) MarkConsumed(_ context.Context, tokenID string, ttl time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.sweep(now)

	if _, seen := l.consumed[tokenID]; seen {
		return false, nil
	}
	l.consumed[tokenID] = now.Add(ttl)
	return true, nil
}

func (l *MemoryLedger) Release(_ context.Context, tokenID string) error {
	l.mu.Lock()
	delete(l.consumed, tokenID)
	l.mu.Unlock()
	return nil
}

func (l *MemoryLedger) RecordFailedAttempt(_ context.Context, tokenID string, ttl time.Duration) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.sweep(now)

	c := l.attempts[tokenID]
	c.count++
	c.expiresAt = now.Add(ttl)
	l.attempts[tokenID] = c
	return c.count, nil
}
