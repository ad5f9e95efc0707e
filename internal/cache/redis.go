package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisCache shares list responses between API instances.
// Backend errors are logged and treated as misses.
type RedisCache struct {
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisCache connects to url and verifies the connection
func NewRedisCache(url, prefix string, ttl time.Duration, logger *zap.Logger) (*RedisCache, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return NewRedisCacheFromClient(rdb, prefix, ttl, logger), nil
}

// NewRedisCacheFromClient wraps an existing client
func NewRedisCacheFromClient(rdb *redis.Client, prefix string, ttl time.Duration, logger *zap.Logger) *RedisCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisCache{rdb: rdb, prefix: prefix, ttl: ttl, logger: logger}
}

func (c *RedisCache) Generation(ctx context.Context, entity string) (int64, bool) {
	gen, err := c.rdb.Get(ctx, c.generationKey(entity)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, true
	}
	if err != nil {
		c.logger.Warn("redis cache generation read failed", zap.String("entity", entity), zap.Error(err))
		return 0, false
	}
	return gen, true
}

func (c *RedisCache) Get(ctx context.Context, key Key) ([]byte, bool) {
	body, err := c.rdb.Get(ctx, c.key(key)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("redis cache get failed", zap.String("entity", key.Entity), zap.Error(err))
		}
		return nil, false
	}
	return body, true
}

// Set writes under the generation the body was read at. Once the entity is
// invalidated nobody reads that key again, and it expires with the TTL.
func (c *RedisCache) Set(ctx context.Context, key Key, body []byte) {
	if err := c.rdb.Set(ctx, c.key(key), body, c.ttl).Err(); err != nil {
		c.logger.Warn("redis cache set failed", zap.String("entity", key.Entity), zap.Error(err))
	}
}

func (c *RedisCache) Invalidate(ctx context.Context, entity string) {
	if err := c.rdb.Incr(ctx, c.generationKey(entity)).Err(); err != nil {
		c.logger.Warn("redis cache invalidate failed", zap.String("entity", entity), zap.Error(err))
	}
}

// Ping checks connectivity
func (c *RedisCache) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// Close closes the Redis connection
func (c *RedisCache) Close() error {
	return c.rdb.Close()
}

func (c *RedisCache) key(key Key) string {
	return fmt.Sprintf("%s%s:%d:%s", c.prefix, key.Entity, key.Generation, key.Partition)
}

func (c *RedisCache) generationKey(entity string) string {
	return c.prefix + "gen:" + entity
}
