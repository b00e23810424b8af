package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/redis/go-redis/v9"

	"spatialprefix/internal/logger"
	"spatialprefix/internal/metrics"
)

// Tier names used in logs and metrics.
const (
	TierLocal = "local"
	TierRedis = "redis"
)

// RedisConfig describes the shared tier. An empty Addr disables it.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// OpenRedis returns a client for cfg, or nil when cfg.Addr is empty.
func OpenRedis(cfg RedisConfig) *redis.Client {
	if cfg.Addr == "" {
		return nil
	}
	logger.L().Debug("redis_open", "addr", cfg.Addr, "db", cfg.DB)
	return redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB})
}

// ResultCache stores JSON-encoded search results. The zero Redis client is
// allowed; a nil *ResultCache caches nothing.
type ResultCache struct {
	local  *LRU
	rc     *redis.Client
	prefix string
	ttl    time.Duration
}

// NewResultCache builds a cache with a local LRU of localSize entries and an
// optional Redis tier.
func NewResultCache(localSize int, ttl time.Duration, rc *redis.Client, prefix string) *ResultCache {
	if prefix == "" {
		prefix = "spatialprefix"
	}
	return &ResultCache{local: NewLRU(localSize, ttl), rc: rc, prefix: prefix, ttl: ttl}
}

// Key builds a cache key scoped to an index generation.
func Key(generation uint64, parts ...any) string {
	return fmt.Sprintf("g%d:%s", generation, fmt.Sprint(parts...))
}

// Get decodes the cached value for key into out. Redis errors count as
// misses.
func (c *ResultCache) Get(ctx context.Context, key string, out any) (tier string, ok bool) {
	if c == nil {
		return "", false
	}
	if b, hit := c.local.Get(key); hit {
		if json.Unmarshal(b, out) == nil {
			metrics.CacheHitsTotal.WithLabelValues(TierLocal).Inc()
			return TierLocal, true
		}
	}
	if c.rc != nil {
		b, err := c.rc.Get(ctx, c.redisKey(key)).Bytes()
		switch {
		case err == nil:
			if json.Unmarshal(b, out) == nil {
				c.local.Set(key, b)
				metrics.CacheHitsTotal.WithLabelValues(TierRedis).Inc()
				return TierRedis, true
			}
		case !errors.Is(err, redis.Nil):
			logger.L().Warn("redis_get_failed", "key", key, "err", err)
		}
	}
	metrics.CacheMissesTotal.Inc()
	return "", false
}

// Set stores v under key in both tiers.
func (c *ResultCache) Set(ctx context.Context, key string, v any) error {
	if c == nil {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return errors.Wrap(err, "encode cached result")
	}
	c.local.Set(key, b)
	if c.rc != nil {
		if err := c.rc.Set(ctx, c.redisKey(key), b, c.ttl).Err(); err != nil {
			return errors.Wrapf(err, "redis set %s", key)
		}
	}
	return nil
}

func (c *ResultCache) redisKey(key string) string { return c.prefix + ":" + key }
