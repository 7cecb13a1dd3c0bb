// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/pdiddy/research-pipeline/pkg/types"
)

// DefaultRedisKeyPrefix namespaces cache keys.
const DefaultRedisKeyPrefix = "research:search:"

// RedisCache is a TTL cache in front of a Provider shared through redis, so
// several pipeline processes can reuse each other's results. Redis failures
// are logged and treated as misses; they never fail a search.
type RedisCache struct {
	next   Provider
	rdb    *redis.Client
	ttl    time.Duration
	prefix string
	logger *zap.Logger
}

// NewRedisCache wraps next with a redis-backed cache.
func NewRedisCache(next Provider, rdb *redis.Client, ttl time.Duration, prefix string, logger *zap.Logger) *RedisCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if prefix == "" {
		prefix = DefaultRedisKeyPrefix
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisCache{next: next, rdb: rdb, ttl: ttl, prefix: prefix, logger: logger}
}

// Name returns the wrapped provider's name.
func (c *RedisCache) Name() string { return c.next.Name() }

// Key returns the redis key used for query.
func (c *RedisCache) Key(query string) string {
	sum := sha256.Sum256([]byte(cacheKey(query)))
	return c.prefix + c.next.Name() + ":" + hex.EncodeToString(sum[:])
}

// Search serves query from redis or forwards it to the wrapped provider.
func (c *RedisCache) Search(ctx context.Context, query string) ([]types.RawHit, error) {
	key := c.Key(query)

	data, err := c.rdb.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var hits []types.RawHit
		jsonErr := json.Unmarshal(data, &hits)
		if jsonErr == nil {
			cacheLookups.WithLabelValues("redis", "hit").Inc()
			return hits, nil
		}
		c.logger.Warn("dropping unreadable cache entry", zap.String("key", key), zap.Error(jsonErr))
	case errors.Is(err, redis.Nil):
	default:
		c.logger.Warn("redis cache read failed", zap.String("key", key), zap.Error(err))
	}
	cacheLookups.WithLabelValues("redis", "miss").Inc()

	hits, err := c.next.Search(ctx, query)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(hits)
	if err != nil {
		c.logger.Warn("encoding cache entry", zap.Error(err))
		return hits, nil
	}
	if err := c.rdb.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		c.logger.Warn("redis cache write failed", zap.String("key", key), zap.Error(err))
	}
	return hits, nil
}
