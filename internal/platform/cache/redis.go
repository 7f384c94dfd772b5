// Package cache wraps the Redis client used for read-side caching.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// New creates a new Redis client.
func New(ctx context.Context, addr string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("platform/cache: ping: %w", err)
	}

	return client, nil
}

// JSONCache stores JSON-encoded values with a fixed TTL. A nil *JSONCache is
// a no-op, so callers can skip nil checks.
type JSONCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewJSONCache constructs a JSONCache.
func NewJSONCache(client *redis.Client, ttl time.Duration) *JSONCache {
	if client == nil {
		return nil
	}
	return &JSONCache{client: client, ttl: ttl}
}

// Get unmarshals the cached value into target. ok is false on miss or error;
// cache errors are swallowed since the caller always has the source of truth.
func (c *JSONCache) Get(ctx context.Context, key string, target any) bool {
	if c == nil {
		return false
	}
	raw, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		return false
	}
	return json.Unmarshal(raw, target) == nil
}

// Set stores value under key with the cache TTL.
func (c *JSONCache) Set(ctx context.Context, key string, value any) {
	if c == nil {
		return
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return
	}
	c.client.Set(ctx, key, raw, c.ttl)
}

// Invalidate drops a key.
func (c *JSONCache) Invalidate(ctx context.Context, key string) {
	if c == nil {
		return
	}
	c.client.Del(ctx, key)
}
