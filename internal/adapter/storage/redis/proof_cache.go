package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// ProofCache implements ports.ProofCache using Redis. Only confirmed
// proofs are cached; the database stays the source of truth.
type ProofCache struct {
	client *goredis.Client
	prefix string
}

// NewProofCache creates a new Redis-backed proof cache.
func NewProofCache(client *goredis.Client) *ProofCache {
	return &ProofCache{
		client: client,
		prefix: "proof:",
	}
}

// Get retrieves a cached proof by key. Returns nil, nil on a miss.
func (c *ProofCache) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if err != nil {
		if err == goredis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("redis proof get: %w", err)
	}
	return val, nil
}

// Set stores a serialized proof with TTL.
func (c *ProofCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := c.client.Set(ctx, c.prefix+key, value, ttl).Err(); err != nil {
		return fmt.Errorf("redis proof set: %w", err)
	}
	return nil
}
