package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type payload struct {
	Name   string    `json:"name"`
	Values []float64 `json:"values"`
}

func newTestCache(t *testing.T, opts ...MemoryOption) (*MemoryCache, *fakeClock) {
	clock := &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	opts = append([]MemoryOption{WithMemoryClock(clock.Now), WithMemoryCleanup(0)}, opts...)
	mc := NewMemoryCache(opts...)
	t.Cleanup(func() { _ = mc.Close() })
	return mc, clock
}

func TestMemoryCacheRoundTripsTypedValues(t *testing.T) {
	mc, _ := newTestCache(t)
	ctx := context.Background()

	in := payload{Name: "vix", Values: []float64{1.5, 2.25}}
	require.NoError(t, mc.Set(ctx, "k", in, time.Hour))

	var out payload
	require.NoError(t, mc.Get(ctx, "k", &out))
	assert.Equal(t, in, out)

	// mutating the copy must not leak into the cache
	out.Values[0] = 99
	var again payload
	require.NoError(t, mc.Get(ctx, "k", &again))
	assert.Equal(t, 1.5, again.Values[0])
}

func TestMemoryCacheExpiry(t *testing.T) {
	mc, clock := newTestCache(t)
	ctx := context.Background()
	require.NoError(t, mc.Set(ctx, "k", "v", time.Minute))

	clock.Advance(59 * time.Second)
	ok, _ := mc.Exists(ctx, "k")
	assert.True(t, ok)

	clock.Advance(time.Second)
	var s string
	assert.ErrorIs(t, mc.Get(ctx, "k", &s), ErrCacheMiss)
}

func TestMemoryCacheDeleteByPattern(t *testing.T) {
	mc, _ := newTestCache(t)
	ctx := context.Background()
	for _, k := range []string{"indicator:vix:2y", "indicator:vix:max", "indicator:nfci:2y", "latest:vix"} {
		require.NoError(t, mc.Set(ctx, k, 1, time.Hour))
	}

	require.NoError(t, mc.DeleteByPattern(ctx, BuildPattern("indicator:vix:")))
	assert.Equal(t, 2, mc.Len())
	ok, _ := mc.Exists(ctx, "indicator:nfci:2y")
	assert.True(t, ok)
	ok, _ = mc.Exists(ctx, "indicator:vix:2y")
	assert.False(t, ok)
}

func TestMemoryCacheEvictsLeastRecentlyUsed(t *testing.T) {
	mc, clock := newTestCache(t, WithMemoryMaxSize(2))
	ctx := context.Background()

	require.NoError(t, mc.Set(ctx, "a", 1, time.Hour))
	clock.Advance(time.Second)
	require.NoError(t, mc.Set(ctx, "b", 2, time.Hour))
	clock.Advance(time.Second)
	var v int
	require.NoError(t, mc.Get(ctx, "a", &v))
	clock.Advance(time.Second)
	require.NoError(t, mc.Set(ctx, "c", 3, time.Hour))

	assert.ErrorIs(t, mc.Get(ctx, "b", &v), ErrCacheMiss)
	assert.NoError(t, mc.Get(ctx, "a", &v))
	assert.NoError(t, mc.Get(ctx, "c", &v))
}

func TestMemoryCacheTryLock(t *testing.T) {
	mc, clock := newTestCache(t)
	ctx := context.Background()

	ok, err := mc.TryLock(ctx, "lock:sync", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, _ = mc.TryLock(ctx, "lock:sync", time.Minute)
	assert.False(t, ok)

	clock.Advance(2 * time.Minute)
	ok, _ = mc.TryLock(ctx, "lock:sync", time.Minute)
	assert.True(t, ok)

	require.NoError(t, mc.Unlock(ctx, "lock:sync"))
	ok, _ = mc.TryLock(ctx, "lock:sync", time.Minute)
	assert.True(t, ok)
}

func TestMemoryCacheConcurrentAccess(t *testing.T) {
	mc, _ := newTestCache(t)
	ctx := context.Background()
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := GenerateKeyWithParams("indicator", "vix", i%4)
			for j := 0; j < 100; j++ {
				_ = mc.Set(ctx, key, j, time.Hour)
				var v int
				_ = mc.Get(ctx, key, &v)
			}
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 4, mc.Len())
}

func TestLayeredCachePromotesFromL2(t *testing.T) {
	l2, _ := newTestCache(t)
	lc := NewLayeredCache(l2, time.Minute, WithMemoryCleanup(0))
	ctx := context.Background()

	require.NoError(t, l2.Set(ctx, "k", payload{Name: "shared"}, time.Hour))

	var out payload
	require.NoError(t, lc.Get(ctx, "k", &out))
	assert.Equal(t, "shared", out.Name)
	assert.Equal(t, 1, lc.l1.Len())

	require.NoError(t, lc.DeleteByPattern(ctx, "k*"))
	assert.ErrorIs(t, lc.Get(ctx, "k", &out), ErrCacheMiss)
}
