// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"errors"

	"golang.org/x/time/rate"

	"github.com/pdiddy/research-pipeline/pkg/types"
)

// RateLimited throttles calls to a Provider with a token bucket. When a
// token cannot be obtained before the call deadline the call fails with
// KindRateLimited instead of queueing past it.
type RateLimited struct {
	next    Provider
	limiter *rate.Limiter
}

// NewRateLimited allows rps calls per second to next with the given burst.
func NewRateLimited(next Provider, rps float64, burst int) *RateLimited {
	if burst <= 0 {
		burst = 1
	}
	return &RateLimited{next: next, limiter: rate.NewLimiter(rate.Limit(rps), burst)}
}

// Name returns the wrapped provider's name.
func (r *RateLimited) Name() string { return r.next.Name() }

// Search waits for a token, then forwards query.
func (r *RateLimited) Search(ctx context.Context, query string) ([]types.RawHit, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		if errors.Is(ctx.Err(), context.Canceled) {
			return nil, ctx.Err()
		}
		return nil, &Error{Kind: KindRateLimited, Provider: r.Name(), Err: err}
	}
	return r.next.Search(ctx, query)
}
