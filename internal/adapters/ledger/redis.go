package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix         = "pending-token:consumed:"
	attemptsKeyPrefix = "pending-token:attempts:"
)

// RedisLedger records consumed pending tokens in Redis so every instance
// behind a load balancer sees the same redemptions.
type RedisLedger struct {
	client redis.UniversalClient
}

func NewRedisLedger(client redis.UniversalClient) *RedisLedger {
	return &RedisLedger{client: client}
}

// MarkConsumed sets the marker with SET NX. It reports false when the token
// was already redeemed.
func (l *RedisLedger) MarkConsumed(ctx context.Context, tokenID string, ttl time.Duration) (bool, error) {
	ok, err := l.client.SetNX(ctx, keyPrefix+tokenID, time.Now().Unix(), ttl).Result()
	if err != nil {
		return false, fmt.Errorf("mark pending token consumed: %w", err)
	}
	return ok, nil
}

func (l *RedisLedger) Release(ctx context.Context, tokenID string) error {
	if err := l.client.Del(ctx, keyPrefix+tokenID).Err(); err != nil {
		return fmt.Errorf("release pending token: %w", err)
	}
	return nil
}

// RecordFailedAttempt increments the attempt counter and sets its expiry in
// one transaction.
func (l *RedisLedger) RecordFailedAttempt(ctx context.Context, tokenID string, ttl time.Duration) (int64, error) {
	key := attemptsKeyPrefix + tokenID
	var incr *redis.IntCmd
	_, err := l.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, key)
		pipe.Expire(ctx, key, ttl)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("record failed otp attempt: %w", err)
	}
	return incr.Val(), nil
}
