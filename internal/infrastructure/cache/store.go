package cache

import (
	"context"
	"time"
)

// IdempotencyStore records claimed keys for a limited time. MarkProcessed is
// an atomic check-and-set: exactly one caller gets true for a live key.
type IdempotencyStore interface {
	MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error)
	IsProcessed(ctx context.Context, key string) (bool, error)
	// Release forgets a key so the next claim succeeds again
	Release(ctx context.Context, key string) error
	Close() error
}
