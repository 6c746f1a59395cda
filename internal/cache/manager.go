package cache

import (
	"context"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

type CacheConfig struct {
	Prefix string
	TTL    time.Duration
}

// TestCacheConfig covers canonical test aggregates. Attempts are never cached.
var TestCacheConfig = CacheConfig{
	Prefix: "exam:test",
	TTL:    10 * time.Minute,
}

// CacheManager holds one CacheService per cached domain.
type CacheManager struct {
	Test    CacheService
	TestTTL time.Duration
}

// NewCacheManager returns a manager backed by redis, or by a no-op cache when client is nil.
func NewCacheManager(client *redis.Client, ttl time.Duration, logger *slog.Logger) *CacheManager {
	if ttl <= 0 {
		ttl = TestCacheConfig.TTL
	}
	if client == nil {
		return &CacheManager{Test: NewNoopCache(), TestTTL: ttl}
	}
	return &CacheManager{
		Test:    NewRedisCache(client, TestCacheConfig.Prefix, logger),
		TestTTL: ttl,
	}
}

// SafeInvalidate deletes key and logs instead of failing the caller's write.
func SafeInvalidate(ctx context.Context, c CacheService, key string) {
	if err := c.Delete(ctx, key); err != nil {
		slog.WarnContext(ctx, "Cache invalidation failed", "key", key, "error", err)
	}
}
