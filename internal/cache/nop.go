package cache

import (
	"context"
	"time"

	"github.com/moneta-app/moneta/internal/interfaces"
)

// Nop is the no-cache default: every read is a miss, every write is
// discarded. Correctness never depends on the cache, so this is safe.
type Nop struct{}

func (Nop) Get(ctx context.Context, key string) ([]byte, error) { return nil, nil }

func (Nop) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error { return nil }

func (Nop) Invalidate(ctx context.Context, keys ...string) error { return nil }

var _ interfaces.Cache = Nop{}
