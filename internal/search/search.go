// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package search sends atomic queries to an external web search provider.
//
// A Provider talks to one backend (SearXNG, Brave, OpenAlex). Decorators add
// a TTL cache (in memory or redis) and a rate limiter in front of it. The
// Client is what the orchestrator calls: it enforces the per-call timeout,
// classifies failures into Kinds and never retries.
package search

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/research-pipeline/pkg/types"
)

// DefaultCallTimeout applies when neither the caller nor the client
// configuration supplies one.
const DefaultCallTimeout = 10 * time.Second

// Provider searches a single backend. Implementations honor ctx but the
// Client does not rely on it.
type Provider interface {
	Name() string
	Search(ctx context.Context, query string) ([]types.RawHit, error)
}

// Client wraps a Provider with timeout enforcement and error classification.
// It is stateless apart from its configuration and safe for concurrent use.
type Client struct {
	provider Provider
	timeout  time.Duration
	logger   *zap.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithLogger sets the client's logger.
func WithLogger(l *zap.Logger) ClientOption {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithDefaultTimeout sets the timeout used when Search is called with zero.
func WithDefaultTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// NewClient returns a client for p.
func NewClient(p Provider, opts ...ClientOption) *Client {
	c := &Client{provider: p, timeout: DefaultCallTimeout, logger: zap.NewNop()}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Provider returns the wrapped provider's name.
func (c *Client) Provider() string { return c.provider.Name() }

type callResult struct {
	hits []types.RawHit
	err  error
}

// Search sends q to the provider and waits at most timeout for the answer.
// On failure it returns an *Error, except when ctx itself was cancelled, in
// which case it returns context.Canceled. Hits are stamped with q.Text as
// their QueryRef.
func (c *Client) Search(ctx context.Context, q types.Query, timeout time.Duration) ([]types.RawHit, error) {
	if timeout <= 0 {
		timeout = c.timeout
	}
	name := c.provider.Name()
	text := strings.TrimSpace(q.Text)
	if text == "" {
		return nil, &Error{Kind: KindMalformed, Provider: name, Err: errors.New("empty query")}
	}

	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	// Buffered so a provider that ignores ctx can still deliver and exit
	// after we have stopped waiting.
	ch := make(chan callResult, 1)
	start := time.Now()
	go func() {
		hits, err := c.provider.Search(callCtx, text)
		ch <- callResult{hits: hits, err: err}
	}()

	var res callResult
	select {
	case res = <-ch:
	case <-callCtx.Done():
		res = callResult{err: callCtx.Err()}
	}
	providerLatency.WithLabelValues(name).Observe(time.Since(start).Seconds())

	if res.err != nil {
		if errors.Is(ctx.Err(), context.Canceled) {
			providerCalls.WithLabelValues(name, "cancelled").Inc()
			return nil, context.Canceled
		}
		se := classify(name, res.err)
		providerCalls.WithLabelValues(name, string(se.Kind)).Inc()
		c.logger.Debug("search call failed",
			zap.String("provider", name),
			zap.String("query", text),
			zap.String("kind", string(se.Kind)),
			zap.Error(se.Err),
		)
		return nil, se
	}

	hits := make([]types.RawHit, 0, len(res.hits))
	for _, h := range res.hits {
		h.QueryRef = q.Text
		hits = append(hits, h)
	}
	providerCalls.WithLabelValues(name, "ok").Inc()
	providerHits.WithLabelValues(name).Observe(float64(len(hits)))
	c.logger.Debug("search call succeeded",
		zap.String("provider", name),
		zap.String("query", text),
		zap.Int("hits", len(hits)),
	)
	return hits, nil
}

// cacheKey normalizes query text for cache lookups.
func cacheKey(query string) string {
	return strings.Join(strings.Fields(strings.ToLower(query)), " ")
}

// truncate shortens s to at most max bytes on a rune boundary.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !isRuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}

func isRuneStart(b byte) bool { return b&0xC0 != 0x80 }
