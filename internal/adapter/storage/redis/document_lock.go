package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// DocumentLock implements ports.DocumentLock using Redis SET NX. The TTL
// bounds how long a crashed holder can keep other instances out.
type DocumentLock struct {
	client *goredis.Client
	prefix string
}

// NewDocumentLock creates a new Redis-backed document lock.
func NewDocumentLock(client *goredis.Client) *DocumentLock {
	return &DocumentLock{
		client: client,
		prefix: "lock:",
	}
}

// Acquire takes the lock if free. Returns true on success, false when
// another holder has it.
func (l *DocumentLock) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	result, err := l.client.SetArgs(ctx, l.prefix+key, 1, goredis.SetArgs{
		Mode: "NX",
		TTL:  ttl,
	}).Result()
	if err != nil {
		if err == goredis.Nil {
			// Key already exists — lock is held
			return false, nil
		}
		return false, fmt.Errorf("redis lock acquire: %w", err)
	}
	return result == "OK", nil
}

// Release frees the lock. Releasing an expired lock is a no-op.
func (l *DocumentLock) Release(ctx context.Context, key string) error {
	if err := l.client.Del(ctx, l.prefix+key).Err(); err != nil {
		return fmt.Errorf("redis lock release: %w", err)
	}
	return nil
}
