// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/pdiddy/research-pipeline/pkg/types"
)

func sampleHits() []types.RawHit {
	return []types.RawHit{
		{Title: "A", URL: "https://a.example", Snippet: "alpha"},
		{Title: "B", URL: "https://b.example", Snippet: "beta"},
	}
}

// --- in-memory cache ---

func TestCachedServesRepeatQueries(t *testing.T) {
	p := &stubProvider{name: "stub", hits: sampleHits()}
	c := NewCached(p, 10, time.Minute)

	first, err := c.Search(context.Background(), "Home Robots")
	require.NoError(t, err)
	second, err := c.Search(context.Background(), "  home   robots ")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.EqualValues(t, 1, p.calls.Load(), "normalized repeat should be served from cache")
	assert.Equal(t, 1, c.Len())
	assert.Equal(t, "stub", c.Name())
}

func TestCachedReturnsCopies(t *testing.T) {
	p := &stubProvider{name: "stub", hits: sampleHits()}
	c := NewCached(p, 10, time.Minute)

	first, _ := c.Search(context.Background(), "q")
	first[0].Title = "mutated"
	second, _ := c.Search(context.Background(), "q")
	assert.Equal(t, "A", second[0].Title)
}

func TestCachedSkipsErrors(t *testing.T) {
	p := &stubProvider{name: "stub", err: &Error{Kind: KindUnavailable, Provider: "stub"}}
	c := NewCached(p, 10, time.Minute)

	for i := 0; i < 2; i++ {
		_, err := c.Search(context.Background(), "q")
		assert.Equal(t, KindUnavailable, KindOf(err))
	}
	assert.EqualValues(t, 2, p.calls.Load())
	assert.Zero(t, c.Len())
}

func TestCachedExpires(t *testing.T) {
	p := &stubProvider{name: "stub", hits: sampleHits()}
	c := NewCached(p, 10, 20*time.Millisecond)

	_, _ = c.Search(context.Background(), "q")
	time.Sleep(60 * time.Millisecond)
	_, _ = c.Search(context.Background(), "q")
	assert.EqualValues(t, 2, p.calls.Load())
}

func TestCachedPurge(t *testing.T) {
	p := &stubProvider{name: "stub", hits: sampleHits()}
	c := NewCached(p, 10, time.Minute)
	_, _ = c.Search(context.Background(), "q")
	c.Purge()
	_, _ = c.Search(context.Background(), "q")
	assert.EqualValues(t, 2, p.calls.Load())
}

// --- redis cache ---

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	s, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(s.Close)

	client := redis.NewClient(&redis.Options{Addr: s.Addr()})
	t.Cleanup(func() { client.Close() })
	return s, client
}

func TestRedisCacheRoundTrip(t *testing.T) {
	s, client := newRedis(t)
	p := &stubProvider{name: "stub", hits: sampleHits()}
	c := NewRedisCache(p, client, time.Minute, "", zaptest.NewLogger(t))

	first, err := c.Search(context.Background(), "Robots")
	require.NoError(t, err)
	second, err := c.Search(context.Background(), "robots")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.EqualValues(t, 1, p.calls.Load())

	key := c.Key("robots")
	assert.True(t, s.Exists(key))
	assert.Contains(t, key, DefaultRedisKeyPrefix+"stub:")
	assert.Equal(t, time.Minute, s.TTL(key))
}

func TestRedisCacheExpiry(t *testing.T) {
	s, client := newRedis(t)
	p := &stubProvider{name: "stub", hits: sampleHits()}
	c := NewRedisCache(p, client, time.Minute, "test:", zaptest.NewLogger(t))

	_, _ = c.Search(context.Background(), "q")
	s.FastForward(2 * time.Minute)
	_, _ = c.Search(context.Background(), "q")
	assert.EqualValues(t, 2, p.calls.Load())
}

func TestRedisCacheSkipsErrors(t *testing.T) {
	s, client := newRedis(t)
	p := &stubProvider{name: "stub", err: &Error{Kind: KindTimeout, Provider: "stub"}}
	c := NewRedisCache(p, client, time.Minute, "", zaptest.NewLogger(t))

	_, err := c.Search(context.Background(), "q")
	assert.Equal(t, KindTimeout, KindOf(err))
	assert.Empty(t, s.Keys())
}

func TestRedisCacheUnreadableEntry(t *testing.T) {
	s, client := newRedis(t)
	p := &stubProvider{name: "stub", hits: sampleHits()}
	c := NewRedisCache(p, client, time.Minute, "", zaptest.NewLogger(t))

	require.NoError(t, s.Set(c.Key("q"), "not json"))
	hits, err := c.Search(context.Background(), "q")
	require.NoError(t, err)
	assert.Len(t, hits, 2)
	assert.EqualValues(t, 1, p.calls.Load())
}

func TestRedisCacheServerDown(t *testing.T) {
	s, err := miniredis.Run()
	require.NoError(t, err)
	client := redis.NewClient(&redis.Options{Addr: s.Addr(), MaxRetries: -1})
	defer client.Close()
	p := &stubProvider{name: "stub", hits: sampleHits()}
	c := NewRedisCache(p, client, time.Minute, "", zaptest.NewLogger(t))

	s.Close()
	hits, err := c.Search(context.Background(), "q")
	require.NoError(t, err, "redis failures must not fail the search")
	assert.Len(t, hits, 2)
}

// --- rate limiter ---

func TestRateLimitedPassesThrough(t *testing.T) {
	p := &stubProvider{name: "stub", hits: sampleHits()}
	r := NewRateLimited(p, 1000, 5)
	hits, err := r.Search(context.Background(), "q")
	require.NoError(t, err)
	assert.Len(t, hits, 2)
	assert.Equal(t, "stub", r.Name())
}

func TestRateLimitedDeadline(t *testing.T) {
	p := &stubProvider{name: "stub", hits: sampleHits()}
	r := NewRateLimited(p, 0.1, 1)

	_, err := r.Search(context.Background(), "first")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = r.Search(ctx, "second")
	assert.Equal(t, KindRateLimited, KindOf(err))
	assert.EqualValues(t, 1, p.calls.Load())
}

func TestRateLimitedCancel(t *testing.T) {
	p := &stubProvider{name: "stub", hits: sampleHits()}
	r := NewRateLimited(p, 0.1, 1)
	_, _ = r.Search(context.Background(), "first")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := r.Search(ctx, "second")
	assert.True(t, errors.Is(err, context.Canceled))
}

// --- wiring ---

func TestWrapBuildsChain(t *testing.T) {
	p := &stubProvider{name: "stub", hits: sampleHits()}
	stack, err := Wrap(p,
		types.SearchConfig{RequestsPerSecond: 100, Burst: 2},
		types.CacheConfig{Backend: types.CacheMemory, TTL: time.Minute, MaxEntries: 8},
		zaptest.NewLogger(t))
	require.NoError(t, err)
	defer stack.Close()

	_, isCached := stack.Provider.(*Cached)
	assert.True(t, isCached)
	assert.Equal(t, "stub", stack.Provider.Name())
}

func TestWrapRedis(t *testing.T) {
	s, _ := newRedis(t)
	p := &stubProvider{name: "stub", hits: sampleHits()}
	stack, err := Wrap(p, types.SearchConfig{},
		types.CacheConfig{Backend: types.CacheRedis, RedisURL: "redis://" + s.Addr() + "/0"}, nil)
	require.NoError(t, err)
	defer stack.Close()

	_, err = stack.Provider.Search(context.Background(), "q")
	require.NoError(t, err)
	assert.Len(t, s.Keys(), 1)
}

func TestWrapErrors(t *testing.T) {
	p := &stubProvider{name: "stub"}
	_, err := Wrap(p, types.SearchConfig{}, types.CacheConfig{Backend: types.CacheRedis}, nil)
	assert.Error(t, err)
	_, err = Wrap(p, types.SearchConfig{}, types.CacheConfig{Backend: "disk"}, nil)
	assert.Error(t, err)
}

func TestNewProvider(t *testing.T) {
	tests := []struct {
		name    string
		cfg     types.SearchConfig
		want    string
		wantErr bool
	}{
		{"searxng", types.SearchConfig{Provider: types.ProviderSearXNG, BaseURL: "http://localhost:8888"}, "searxng", false},
		{"searxng needs url", types.SearchConfig{Provider: types.ProviderSearXNG}, "", true},
		{"brave", types.SearchConfig{Provider: types.ProviderBrave, APIKey: "k"}, "brave", false},
		{"brave needs key", types.SearchConfig{Provider: types.ProviderBrave}, "", true},
		{"openalex", types.SearchConfig{Provider: types.ProviderOpenAlex}, "openalex", false},
		{"unknown", types.SearchConfig{Provider: "altavista"}, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewProvider(tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, p.Name())
		})
	}
}
