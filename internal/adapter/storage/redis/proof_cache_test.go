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

func TestProofCache_SetAndGet(t *testing.T) {
	s := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: s.Addr()})
	cache := NewProofCache(client)
	ctx := context.Background()

	payload := []byte(`{"tx_id":"tx123","status":"CONFIRMED"}`)
	require.NoError(t, cache.Set(ctx, "doc-1:abc123", payload, time.Hour))

	got, err := cache.Get(ctx, "doc-1:abc123")
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestProofCache_MissReturnsNil(t *testing.T) {
	s := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: s.Addr()})
	cache := NewProofCache(client)

	got, err := cache.Get(context.Background(), "doc-unknown:ffff")
	require.NoError(t, err)
	assert.Nil(t, got, "cache miss is nil, nil")
}

func TestProofCache_EntryExpires(t *testing.T) {
	s := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: s.Addr()})
	cache := NewProofCache(client)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "doc-1:abc123", []byte("proof"), time.Second))
	s.FastForward(2 * time.Second)

	got, err := cache.Get(ctx, "doc-1:abc123")
	require.NoError(t, err)
	assert.Nil(t, got)
}
