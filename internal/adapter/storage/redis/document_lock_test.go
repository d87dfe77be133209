package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocumentLock_AcquireFreeLock(t *testing.T) {
	s := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: s.Addr()})
	lock := NewDocumentLock(client)
	ctx := context.Background()

	ok, err := lock.Acquire(ctx, "notarize:doc-1", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok, "free lock should be acquired")
}

func TestDocumentLock_AcquireHeldLock(t *testing.T) {
	s := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: s.Addr()})
	lock := NewDocumentLock(client)
	ctx := context.Background()

	ok, err := lock.Acquire(ctx, "notarize:doc-1", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = lock.Acquire(ctx, "notarize:doc-1", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok, "held lock must not be acquired twice")
}

func TestDocumentLock_ReleaseFreesLock(t *testing.T) {
	s := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: s.Addr()})
	lock := NewDocumentLock(client)
	ctx := context.Background()

	ok, err := lock.Acquire(ctx, "notarize:doc-1", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, lock.Release(ctx, "notarize:doc-1"))

	ok, err = lock.Acquire(ctx, "notarize:doc-1", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok, "released lock should be acquirable again")
}

func TestDocumentLock_ExpiresByTTL(t *testing.T) {
	s := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: s.Addr()})
	lock := NewDocumentLock(client)
	ctx := context.Background()

	ok, err := lock.Acquire(ctx, "notarize:doc-1", time.Second)
	require.NoError(t, err)
	require.True(t, ok)

	s.FastForward(2 * time.Second)

	ok, err = lock.Acquire(ctx, "notarize:doc-1", time.Second)
	require.NoError(t, err)
	assert.True(t, ok, "a crashed holder's lock must expire")
}

func TestDocumentLock_IndependentDocuments(t *testing.T) {
	s := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: s.Addr()})
	lock := NewDocumentLock(client)
	ctx := context.Background()

	ok1, err := lock.Acquire(ctx, "notarize:doc-1", time.Minute)
	require.NoError(t, err)
	ok2, err2 := lock.Acquire(ctx, "notarize:doc-2", time.Minute)
	require.NoError(t, err2)

	assert.True(t, ok1)
	assert.True(t, ok2, "locks on different documents are independent")
}
