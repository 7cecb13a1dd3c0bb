// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/pdiddy/research-pipeline/pkg/types"
)

// Default cache settings.
const (
	DefaultCacheTTL        = 15 * time.Minute
	DefaultCacheMaxEntries = 512
)

// Cached is an in-process TTL cache in front of a Provider. Only successful
// results are cached. It is safe for concurrent use and is owned by whoever
// constructs it, never shared implicitly.
type Cached struct {
	next  Provider
	cache *expirable.LRU[string, []types.RawHit]
}

// NewCached wraps next with an LRU cache of at most size entries, each
// expiring after ttl.
func NewCached(next Provider, size int, ttl time.Duration) *Cached {
	if size <= 0 {
		size = DefaultCacheMaxEntries
	}
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Cached{
		next:  next,
		cache: expirable.NewLRU[string, []types.RawHit](size, nil, ttl),
	}
}

// Name returns the wrapped provider's name.
func (c *Cached) Name() string { return c.next.Name() }

// Len returns the number of live entries.
func (c *Cached) Len() int { return c.cache.Len() }

// Purge drops every entry.
func (c *Cached) Purge() { c.cache.Purge() }

// Search serves query from the cache or forwards it to the wrapped provider.
func (c *Cached) Search(ctx context.Context, query string) ([]types.RawHit, error) {
	key := cacheKey(query)
	if hits, ok := c.cache.Get(key); ok {
		cacheLookups.WithLabelValues("memory", "hit").Inc()
		return append([]types.RawHit(nil), hits...), nil
	}
	cacheLookups.WithLabelValues("memory", "miss").Inc()

	hits, err := c.next.Search(ctx, query)
	if err != nil {
		return nil, err
	}
	c.cache.Add(key, append([]types.RawHit(nil), hits...))
	return hits, nil
}
