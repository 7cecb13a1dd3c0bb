// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/pdiddy/research-pipeline/pkg/types"
)

// Stack is a fully wired provider chain plus anything that must be closed
// when the process exits.
type Stack struct {
	Provider Provider
	redis    *redis.Client
}

// Close releases the redis connection, if any.
func (s *Stack) Close() error {
	if s.redis == nil {
		return nil
	}
	return s.redis.Close()
}

// NewProvider constructs the backend selected by cfg.Provider.
func NewProvider(cfg types.SearchConfig) (Provider, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	client := &http.Client{Timeout: timeout}

	switch cfg.Provider {
	case types.ProviderSearXNG, "":
		if cfg.BaseURL == "" {
			return nil, fmt.Errorf("search.base_url is required for the searxng provider")
		}
		return &SearXNGProvider{Client: client, BaseURL: cfg.BaseURL, UserAgent: cfg.UserAgent, MaxResults: cfg.MaxResults}, nil
	case types.ProviderBrave:
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("search.api_key (or .secrets/brave-api-key) is required for the brave provider")
		}
		return &BraveProvider{Client: client, APIKey: cfg.APIKey, UserAgent: cfg.UserAgent, MaxResults: cfg.MaxResults}, nil
	case types.ProviderOpenAlex:
		return &OpenAlexProvider{Client: client, Email: cfg.Email, UserAgent: cfg.UserAgent, MaxResults: cfg.MaxResults}, nil
	default:
		return nil, fmt.Errorf("unknown search provider %q: use searxng, brave or openalex", cfg.Provider)
	}
}

// Build wires the configured provider behind its rate limiter and cache.
// The cache sits outermost so cached answers do not consume tokens.
func Build(scfg types.SearchConfig, ccfg types.CacheConfig, logger *zap.Logger) (*Stack, error) {
	p, err := NewProvider(scfg)
	if err != nil {
		return nil, err
	}
	return Wrap(p, scfg, ccfg, logger)
}

// Wrap applies the rate limiter and cache decorators to p.
func Wrap(p Provider, scfg types.SearchConfig, ccfg types.CacheConfig, logger *zap.Logger) (*Stack, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if scfg.RequestsPerSecond > 0 {
		p = NewRateLimited(p, scfg.RequestsPerSecond, scfg.Burst)
	}

	stack := &Stack{}
	switch ccfg.Backend {
	case types.CacheNone, "":
	case types.CacheMemory:
		p = NewCached(p, ccfg.MaxEntries, ccfg.TTL)
	case types.CacheRedis:
		if ccfg.RedisURL == "" {
			return nil, fmt.Errorf("cache.redis_url is required for the redis cache")
		}
		opts, err := redis.ParseURL(ccfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("parsing cache.redis_url: %w", err)
		}
		stack.redis = redis.NewClient(opts)
		p = NewRedisCache(p, stack.redis, ccfg.TTL, ccfg.KeyPrefix, logger)
	default:
		return nil, fmt.Errorf("unknown cache backend %q: use none, memory or redis", ccfg.Backend)
	}
	stack.Provider = p

	logger.Debug("search stack ready",
		zap.String("provider", p.Name()),
		zap.String("cache", string(ccfg.Backend)),
		zap.Float64("rps", scfg.RequestsPerSecond),
	)
	return stack, nil
}
