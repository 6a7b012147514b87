package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisLimiter_FixedWindow(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	now := time.Date(2024, 1, 1, 12, 0, 10, 0, time.UTC)
	l := NewRedisLimiter(client, "rl:auth", 2, time.Minute)
	l.now = func() time.Time { return now }
	ctx := context.Background()

	r, err := l.Allow(ctx, "1.2.3.4")
	require.NoError(t, err)
	assert.True(t, r.Allowed)
	assert.Equal(t, 1, r.Remaining)

	r, err = l.Allow(ctx, "1.2.3.4")
	require.NoError(t, err)
	assert.True(t, r.Allowed)
	assert.Equal(t, 0, r.Remaining)

	r, err = l.Allow(ctx, "1.2.3.4")
	require.NoError(t, err)
	assert.False(t, r.Allowed)
	assert.Equal(t, 50*time.Second, r.RetryAfter)

	r, err = l.Allow(ctx, "5.6.7.8")
	require.NoError(t, err)
	assert.True(t, r.Allowed, "keys are independent")

	keys := mr.Keys()
	require.NotEmpty(t, keys)
	assert.Greater(t, mr.TTL(keys[0]), time.Duration(0), "window keys expire")

	now = now.Add(time.Minute)
	r, err = l.Allow(ctx, "1.2.3.4")
	require.NoError(t, err)
	assert.True(t, r.Allowed, "next window starts fresh")
}

func TestRedisLimiter_Unavailable(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { client.Close() })
	mr.Close()

	_, err := NewRedisLimiter(client, "rl", 1, time.Minute).Allow(context.Background(), "k")
	assert.Error(t, err)
}

func TestNewRedisClient(t *testing.T) {
	mr := miniredis.RunT(t)

	c, err := NewRedisClient(context.Background(), "redis://"+mr.Addr()+"/0")
	require.NoError(t, err)
	c.Close()

	_, err = NewRedisClient(context.Background(), "")
	assert.Error(t, err)
	_, err = NewRedisClient(context.Background(), "::not a url")
	assert.Error(t, err)
}

func TestMemoryLimiter_Burst(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	l := NewMemoryLimiter(3, time.Minute)
	l.now = func() time.Time { return now }
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		r, err := l.Allow(ctx, "ip")
		require.NoError(t, err)
		assert.True(t, r.Allowed, "request %d", i)
		assert.Equal(t, 3, r.Limit)
	}

	r, err := l.Allow(ctx, "ip")
	require.NoError(t, err)
	assert.False(t, r.Allowed)
	assert.Equal(t, 0, r.Remaining)
	assert.Equal(t, 20*time.Second, r.RetryAfter)

	now = now.Add(20 * time.Second)
	r, err = l.Allow(ctx, "ip")
	require.NoError(t, err)
	assert.True(t, r.Allowed, "one token refilled")
}

func TestMemoryLimiter_PrunesIdleBuckets(t *testing.T) {
	now := time.Now()
	l := NewMemoryLimiter(1, time.Minute)
	l.now = func() time.Time { return now }

	l.buckets["old"] = &bucket{lastSeen: now.Add(-2 * time.Minute)}
	l.buckets["fresh"] = &bucket{lastSeen: now}
	l.prune(now)

	assert.NotContains(t, l.buckets, "old")
	assert.Contains(t, l.buckets, "fresh")
}
