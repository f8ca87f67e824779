package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/moneta-app/moneta/internal/interfaces"
	"github.com/moneta-app/moneta/internal/logger"
)

// Cache implements the read-through cache over Redis. Misses are
// (nil, nil); the engine treats any failure here as a miss and falls back
// to the store.
type Cache struct {
	client *redis.Client
	log    *logger.Logger
}

func New(ctx context.Context, addr string, log *logger.Logger) (*Cache, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		return nil, err
	}
	return &Cache{client: client, log: log.With("component", "RedisCache")}, nil
}

func (c *Cache) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

func (c *Cache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return c.client.Set(ctx, key, value, ttl).Err()
}

func (c *Cache) Invalidate(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return c.client.Del(ctx, keys...).Err()
}

func (c *Cache) Close() error {
	return c.client.Close()
}

var _ interfaces.Cache = (*Cache)(nil)
