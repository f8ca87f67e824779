package interfaces

import (
	"context"
	"time"
)

// Cache is the read-through cache the ledger engine consults and
// invalidates. Get returns (nil, nil) on a miss. The engine is the sole
// invalidator of account keys and never relies on TTL for correctness.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Invalidate(ctx context.Context, keys ...string) error
}
