// Package cache provides a small key-value cache used for read-through
// caching of hot entities. Backed by Redis when configured; a no-op
// implementation keeps callers oblivious when caching is disabled.
package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrMiss is returned by Get when the key is absent.
var ErrMiss = errors.New("cache: miss")

// Cache is a byte-oriented cache with per-key expiry.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

type redisCache struct {
	client *redis.Client
}

// NewRedis returns a Cache backed by the Redis instance at addr.
// The connection is verified with a ping before use.
func NewRedis(ctx context.Context, addr, password string, db int) (Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	return &redisCache{client: client}, nil
}

func (c *redisCache) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrMiss
		}
		return nil, err
	}
	return val, nil
}

func (c *redisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return c.client.Set(ctx, key, value, ttl).Err()
}

func (c *redisCache) Delete(ctx context.Context, key string) error {
	return c.client.Del(ctx, key).Err()
}

type noopCache struct{}

// NewNoop returns a Cache that stores nothing. Every Get is a miss.
func NewNoop() Cache {
	return noopCache{}
}

func (noopCache) Get(ctx context.Context, key string) ([]byte, error) { return nil, ErrMiss }

func (noopCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return nil
}

func (noopCache) Delete(ctx context.Context, key string) error { return nil }
