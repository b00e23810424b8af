package cache

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLRUEvictsLeastRecentlyUsed(t *testing.T) {
	c := NewLRU(2, 0)
	c.Set("a", []byte("1"))
	c.Set("b", []byte("2"))
	_, ok := c.Get("a")
	require.True(t, ok)
	c.Set("c", []byte("3"))

	_, ok = c.Get("b")
	assert.False(t, ok, "b was the least recently used")
	v, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, []byte("1"), v)
	assert.Equal(t, 2, c.Len())
}

func TestLRUExpires(t *testing.T) {
	c := NewLRU(4, time.Minute)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	c.Set("k", []byte("v"))
	_, ok := c.Get("k")
	assert.True(t, ok)

	now = now.Add(time.Minute)
	_, ok = c.Get("k")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())
}

type result struct {
	IDs []string `json:"ids"`
}

func TestResultCacheLocalTier(t *testing.T) {
	ctx := context.Background()
	c := NewResultCache(8, time.Minute, nil, "")

	var got result
	_, ok := c.Get(ctx, Key(1, "q"), &got)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, Key(1, "q"), result{IDs: []string{"a", "b"}}))
	tier, ok := c.Get(ctx, Key(1, "q"), &got)
	require.True(t, ok)
	assert.Equal(t, TierLocal, tier)
	assert.Equal(t, []string{"a", "b"}, got.IDs)

	_, ok = c.Get(ctx, Key(2, "q"), &got)
	assert.False(t, ok, "a new generation misses")
}

func TestNilResultCache(t *testing.T) {
	var c *ResultCache
	var got result
	_, ok := c.Get(context.Background(), "k", &got)
	assert.False(t, ok)
	assert.NoError(t, c.Set(context.Background(), "k", result{}))
}

func TestUnreachableRedisIsAMiss(t *testing.T) {
	rc := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 50 * time.Millisecond, MaxRetries: -1})
	defer rc.Close()
	c := NewResultCache(8, time.Minute, rc, "test")

	var got result
	_, ok := c.Get(context.Background(), "k", &got)
	assert.False(t, ok)
	assert.Error(t, c.Set(context.Background(), "k", result{IDs: []string{"x"}}))

	// the local tier still took the value
	tier, ok := c.Get(context.Background(), "k", &got)
	assert.True(t, ok)
	assert.Equal(t, TierLocal, tier)
}

func TestOpenRedisDisabled(t *testing.T) {
	assert.Nil(t, OpenRedis(RedisConfig{}))
	rc := OpenRedis(RedisConfig{Addr: "127.0.0.1:6379"})
	require.NotNil(t, rc)
	rc.Close()
}

func TestKey(t *testing.T) {
	assert.Equal(t, "g3:intersects", Key(3, "intersects"))
	assert.NotEqual(t, Key(3, "a"), Key(4, "a"))
}
