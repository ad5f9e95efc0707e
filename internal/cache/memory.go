package cache

import (
	"context"
	"sync"
	"time"
)

type slot struct {
	entity    string
	partition string
}

type entry struct {
	body       []byte
	generation int64
	storedAt   time.Time
}

// MemoryCache is a mutex-guarded in-process ResponseCache
type MemoryCache struct {
	mu          sync.RWMutex
	ttl         time.Duration
	now         func() time.Time
	generations map[string]int64
	entries     map[slot]entry
}

// NewMemoryCache creates a cache whose entries live for ttl
func NewMemoryCache(ttl time.Duration) *MemoryCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryCache{
		ttl:         ttl,
		now:         time.Now,
		generations: make(map[string]int64),
		entries:     make(map[slot]entry),
	}
}

// WithClock replaces the time source
func (c *MemoryCache) WithClock(now func() time.Time) *MemoryCache {
	c.now = now
	return c
}

func (c *MemoryCache) Generation(_ context.Context, entity string) (int64, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.generations[entity], true
}

func (c *MemoryCache) Get(_ context.Context, key Key) ([]byte, bool) {
	c.mu.RLock()
	e, ok := c.entries[slot{key.Entity, key.Partition}]
	current := c.generations[key.Entity]
	c.mu.RUnlock()
	if !ok || e.generation != current || c.now().Sub(e.storedAt) >= c.ttl {
		return nil, false
	}
	return e.body, true
}

func (c *MemoryCache) Set(_ context.Context, key Key, body []byte) {
	stored := make([]byte, len(body))
	copy(stored, body)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.generations[key.Entity] != key.Generation {
		return
	}
	c.entries[slot{key.Entity, key.Partition}] = entry{body: stored, generation: key.Generation, storedAt: c.now()}
}

func (c *MemoryCache) Invalidate(_ context.Context, entity string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generations[entity]++
	for s := range c.entries {
		if s.entity == entity {
			delete(c.entries, s)
		}
	}
}

// Sweep drops expired entries and returns how many were removed
func (c *MemoryCache) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for s, e := range c.entries {
		if now.Sub(e.storedAt) >= c.ttl {
			delete(c.entries, s)
			removed++
		}
	}
	return removed
}

// Len returns the number of held entries, expired or not
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
