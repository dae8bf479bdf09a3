package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestCache(t *testing.T) (*ListCache, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewListCache(client, time.Minute, zap.NewNop()), mr
}

func TestNilCacheIsNoop(t *testing.T) {
	var c *ListCache
	ctx := context.Background()

	var out []string
	assert.False(t, c.Get(ctx, KeyAlerts, &out))
	_, ok := c.Generation(ctx, KeyAlerts)
	assert.False(t, ok)
	assert.NotPanics(t, func() {
		c.SetIfGeneration(ctx, KeyAlerts, 0, []string{"a"})
		c.Invalidate(ctx, KeyAlerts)
	})
	assert.Nil(t, out)
}

func TestSetAndGetRoundTrip(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	gen, ok := c.Generation(ctx, KeyAlerts)
	require.True(t, ok)
	assert.Equal(t, int64(0), gen)

	c.SetIfGeneration(ctx, KeyAlerts, gen, []string{"a", "b"})

	var out []string
	require.True(t, c.Get(ctx, KeyAlerts, &out))
	assert.Equal(t, []string{"a", "b"}, out)
	assert.Equal(t, time.Minute, mr.TTL(KeyAlerts))
}

func TestInvalidateDropsEntryAndBumpsGeneration(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	c.SetIfGeneration(ctx, KeyEvacuation, 0, []string{"x"})
	c.Invalidate(ctx, KeyEvacuation)

	var out []string
	assert.False(t, c.Get(ctx, KeyEvacuation, &out))

	gen, ok := c.Generation(ctx, KeyEvacuation)
	require.True(t, ok)
	assert.Equal(t, int64(1), gen)
}

func TestStaleGenerationIsNotWritten(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	gen, ok := c.Generation(ctx, KeyAlerts)
	require.True(t, ok)

	// a write lands between the read of the generation and the store
	c.Invalidate(ctx, KeyAlerts)
	c.SetIfGeneration(ctx, KeyAlerts, gen, []string{"stale"})

	assert.False(t, mr.Exists(KeyAlerts))

	var out []string
	assert.False(t, c.Get(ctx, KeyAlerts, &out))
}

func TestUnreachableRedisSkipsCaching(t *testing.T) {
	c, mr := newTestCache(t)
	mr.Close()

	_, ok := c.Generation(context.Background(), KeyAlerts)
	assert.False(t, ok)
}
