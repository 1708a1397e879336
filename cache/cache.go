// Package cache provides a typed redis cache.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache stores values of type T as JSON under a shared key prefix.
type Cache[T any] struct {
	rc     *redis.Client
	prefix string
}

// NewCache creates a cache backed by rc. All keys are namespaced by prefix.
func NewCache[T any](rc *redis.Client, prefix string) *Cache[T] {
	return &Cache[T]{rc: rc, prefix: prefix}
}

func (c *Cache[T]) fullKey(key string) string {
	if c.prefix == "" {
		return key
	}
	return c.prefix + ":" + key
}

// Get retrieves a value. redis.Nil is returned when the key is absent.
func (c *Cache[T]) Get(ctx context.Context, key string) (*T, error) {
	raw, err := c.rc.Get(ctx, c.fullKey(key)).Result()
	if err != nil {
		return nil, err
	}
	var value T
	if err := json.Unmarshal([]byte(raw), &value); err != nil {
		return nil, fmt.Errorf("cache: decoding %s: %w", key, err)
	}
	return &value, nil
}

// Set stores a value with an optional TTL. A zero TTL means no expiry.
func (c *Cache[T]) Set(ctx context.Context, key string, value *T, ttl ...time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache: encoding %s: %w", key, err)
	}
	var expiry time.Duration
	if len(ttl) > 0 {
		expiry = ttl[0]
	}
	return c.rc.Set(ctx, c.fullKey(key), raw, expiry).Err()
}

// Delete removes keys from the cache.
func (c *Cache[T]) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = c.fullKey(k)
	}
	return c.rc.Del(ctx, full...).Err()
}

// Exists reports whether key is present.
func (c *Cache[T]) Exists(ctx context.Context, key string) (bool, error) {
	n, err := c.rc.Exists(ctx, c.fullKey(key)).Result()
	return n > 0, err
}

// Incr atomically increments an integer counter stored at key.
func (c *Cache[T]) Incr(ctx context.Context, key string) (int64, error) {
	return c.rc.Incr(ctx, c.fullKey(key)).Result()
}
