// Package cache holds the process-wide list response cache.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/ledgerline/crm-api/internal/config"
	"github.com/ledgerline/crm-api/internal/metrics"
	"go.uber.org/zap"
)

// Key addresses one cached list. Partition separates callers whose row-level
// security view of the entity differs; it is empty for lists every caller shares.
// Generation is the entity generation read before the list was loaded.
type Key struct {
	Entity     string
	Partition  string
	Generation int64
}

// ResponseCache stores serialized list responses per entity for a fixed TTL.
// Implementations must be safe for concurrent use.
type ResponseCache interface {
	// Generation returns the entity's current generation. ok is false when the
	// backend cannot answer; the caller must then neither read nor store.
	Generation(ctx context.Context, entity string) (gen int64, ok bool)
	// Get returns the cached body when it is younger than the TTL and was stored
	// under the entity's current generation.
	Get(ctx context.Context, key Key) ([]byte, bool)
	// Set stores body and restarts its TTL. A body read before the last
	// Invalidate of the entity is never served.
	Set(ctx context.Context, key Key, body []byte)
	// Invalidate advances the entity's generation and drops all its partitions.
	Invalidate(ctx context.Context, entity string)
}

// New builds the cache selected by cfg.Backend and wraps it with metrics.
// The returned close function releases backend connections.
func New(cfg *config.CacheConfig, logger *zap.Logger) (ResponseCache, func() error, error) {
	switch cfg.Backend {
	case "", "memory":
		return WithMetrics(NewMemoryCache(cfg.TTLDuration())), func() error { return nil }, nil
	case "redis":
		rc, err := NewRedisCache(cfg.RedisURL, cfg.KeyPrefix, cfg.TTLDuration(), logger)
		if err != nil {
			return nil, nil, err
		}
		return WithMetrics(rc), rc.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
}

type instrumented struct {
	next ResponseCache
}

// WithMetrics records hits, misses and invalidations of c
func WithMetrics(c ResponseCache) ResponseCache {
	return &instrumented{next: c}
}

func (i *instrumented) Generation(ctx context.Context, entity string) (int64, bool) {
	return i.next.Generation(ctx, entity)
}

func (i *instrumented) Get(ctx context.Context, key Key) ([]byte, bool) {
	body, ok := i.next.Get(ctx, key)
	metrics.ObserveCacheLookup(key.Entity, ok)
	return body, ok
}

func (i *instrumented) Set(ctx context.Context, key Key, body []byte) {
	i.next.Set(ctx, key, body)
}

func (i *instrumented) Invalidate(ctx context.Context, entity string) {
	i.next.Invalidate(ctx, entity)
	metrics.ObserveCacheInvalidation(entity)
}

// Sweeper is implemented by caches that hold expired entries until swept
type Sweeper interface {
	Sweep() int
}

// Unwrap returns the cache behind the metrics wrapper
func Unwrap(c ResponseCache) ResponseCache {
	if i, ok := c.(*instrumented); ok {
		return i.next
	}
	return c
}

// DefaultTTL is the list cache lifetime
const DefaultTTL = 30 * time.Second
