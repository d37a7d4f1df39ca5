package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "openmeteo:archive:"

// Cache stores upstream response bodies in Redis. Entries are written without
// a TTL, so a cached response lives until Redis evicts or flushes it.
type Cache struct {
	client *redis.Client
}

// NewCache constructs a Cache around an established client.
func NewCache(client *redis.Client) *Cache {
	return &Cache{client: client}
}

// Connect parses redisURL, creates a client, and verifies connectivity with a ping.
func Connect(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("pinging redis: %w", err)
	}

	return client, nil
}

// key hashes the request URL so arbitrarily long query strings map to bounded keys.
func key(requestURL string) string {
	sum := sha256.Sum256([]byte(requestURL))
	return keyPrefix + hex.EncodeToString(sum[:])
}

// Get returns the cached body for requestURL.
// Returns nil, nil on a cache miss (not an error).
func (c *Cache) Get(ctx context.Context, requestURL string) ([]byte, error) {
	val, err := c.client.Get(ctx, key(requestURL)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("cache get: %w", err)
	}
	return val, nil
}

// Set stores body for requestURL with no expiry. Empty bodies are not cached.
func (c *Cache) Set(ctx context.Context, requestURL string, body []byte) error {
	if len(body) == 0 {
		return nil
	}
	if err := c.client.Set(ctx, key(requestURL), body, 0).Err(); err != nil {
		return fmt.Errorf("cache set: %w", err)
	}
	return nil
}

// Ping reports whether Redis is reachable.
func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
