package cache_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/ledgerline/crm-api/internal/cache"
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

func newClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
}

func TestMemoryCache_HitWithinTTL(t *testing.T) {
	clock := newClock()
	c := cache.NewMemoryCache(30 * time.Second).WithClock(clock.Now)
	ctx := context.Background()

	_, ok := c.Get(ctx, cache.Key{Entity: "clients"})
	assert.False(t, ok, "empty cache must miss")

	c.Set(ctx, cache.Key{Entity: "clients"}, []byte(`[{"id":"1"}]`))
	clock.Advance(29 * time.Second)

	first, ok := c.Get(ctx, cache.Key{Entity: "clients"})
	require.True(t, ok)
	second, ok := c.Get(ctx, cache.Key{Entity: "clients"})
	require.True(t, ok)
	assert.Equal(t, first, second)
	assert.Equal(t, `[{"id":"1"}]`, string(first))
}

func TestMemoryCache_ExpiresAtTTL(t *testing.T) {
	clock := newClock()
	c := cache.NewMemoryCache(30 * time.Second).WithClock(clock.Now)
	ctx := context.Background()

	c.Set(ctx, cache.Key{Entity: "leads"}, []byte(`[]`))
	clock.Advance(30 * time.Second)

	_, ok := c.Get(ctx, cache.Key{Entity: "leads"})
	assert.False(t, ok)
}

func TestMemoryCache_EmptyListIsCached(t *testing.T) {
	c := cache.NewMemoryCache(30 * time.Second)
	ctx := context.Background()

	c.Set(ctx, cache.Key{Entity: "vendors"}, []byte(`[]`))

	body, ok := c.Get(ctx, cache.Key{Entity: "vendors"})
	require.True(t, ok)
	assert.Equal(t, "[]", string(body))
}

func TestMemoryCache_InvalidateIsPerEntity(t *testing.T) {
	c := cache.NewMemoryCache(30 * time.Second)
	ctx := context.Background()

	c.Set(ctx, cache.Key{Entity: "clients"}, []byte(`[1]`))
	c.Set(ctx, cache.Key{Entity: "vendors"}, []byte(`[2]`))
	c.Invalidate(ctx, "clients")

	_, ok := c.Get(ctx, cache.Key{Entity: "clients"})
	assert.False(t, ok)
	_, ok = c.Get(ctx, cache.Key{Entity: "vendors"})
	assert.True(t, ok)
}

func TestMemoryCache_SetCopiesBody(t *testing.T) {
	c := cache.NewMemoryCache(30 * time.Second)
	ctx := context.Background()

	body := []byte(`[1]`)
	c.Set(ctx, cache.Key{Entity: "quotes"}, body)
	body[1] = '9'

	cached, ok := c.Get(ctx, cache.Key{Entity: "quotes"})
	require.True(t, ok)
	assert.Equal(t, "[1]", string(cached))
}

func TestMemoryCache_Sweep(t *testing.T) {
	clock := newClock()
	c := cache.NewMemoryCache(30 * time.Second).WithClock(clock.Now)
	ctx := context.Background()

	c.Set(ctx, cache.Key{Entity: "clients"}, []byte(`[]`))
	clock.Advance(20 * time.Second)
	c.Set(ctx, cache.Key{Entity: "leads"}, []byte(`[]`))
	clock.Advance(15 * time.Second)

	assert.Equal(t, 1, c.Sweep())
	assert.Equal(t, 1, c.Len())
}

func TestMemoryCache_ConcurrentAccess(t *testing.T) {
	c := cache.WithMetrics(cache.NewMemoryCache(30 * time.Second))
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			switch i % 3 {
			case 0:
				c.Set(ctx, cache.Key{Entity: "clients"}, []byte(`[]`))
			case 1:
				c.Get(ctx, cache.Key{Entity: "clients"})
			default:
				c.Invalidate(ctx, "clients")
			}
		}(i)
	}
	wg.Wait()
}

func TestUnwrap(t *testing.T) {
	mem := cache.NewMemoryCache(time.Second)
	wrapped := cache.WithMetrics(mem)

	_, ok := cache.Unwrap(wrapped).(cache.Sweeper)
	assert.True(t, ok)
}

func TestMemoryCache_StaleGenerationIsNotStored(t *testing.T) {
	c := cache.NewMemoryCache(30 * time.Second)
	ctx := context.Background()

	gen, ok := c.Generation(ctx, "clients")
	require.True(t, ok)

	// the list was read at gen; a write lands before it is stored
	c.Invalidate(ctx, "clients")
	c.Set(ctx, cache.Key{Entity: "clients", Generation: gen}, []byte(`[]`))

	assert.Equal(t, 0, c.Len())
	next, _ := c.Generation(ctx, "clients")
	assert.Equal(t, gen+1, next)
	_, ok = c.Get(ctx, cache.Key{Entity: "clients", Generation: next})
	assert.False(t, ok)
}

func TestMemoryCache_PartitionsAreSeparate(t *testing.T) {
	c := cache.NewMemoryCache(30 * time.Second)
	ctx := context.Background()

	alice := cache.Key{Entity: "expenses", Partition: "alice"}
	bob := cache.Key{Entity: "expenses", Partition: "bob"}
	c.Set(ctx, alice, []byte(`["a"]`))

	_, ok := c.Get(ctx, bob)
	assert.False(t, ok)
	body, ok := c.Get(ctx, alice)
	require.True(t, ok)
	assert.Equal(t, `["a"]`, string(body))

	c.Set(ctx, bob, []byte(`["b"]`))
	c.Invalidate(ctx, "expenses")
	assert.Equal(t, 0, c.Len())
}
