// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package enrich defines the optional context-hint capability used before
// query decomposition. A missing enricher is the Nop null object, so callers
// never branch on its presence.
package enrich

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"
)

// MaxHints bounds the hints returned by any enricher.
const MaxHints = 5

// DefaultTimeout bounds one enrichment call when none is configured.
const DefaultTimeout = 2 * time.Second

// Enricher returns short domain context hints for a question.
type Enricher interface {
	Enrich(ctx context.Context, question string) ([]string, error)
}

// Func adapts a function to Enricher.
type Func func(ctx context.Context, question string) ([]string, error)

// Enrich calls f.
func (f Func) Enrich(ctx context.Context, question string) ([]string, error) {
	return f(ctx, question)
}

// Nop is the absent enricher. It always returns no hints.
type Nop struct{}

// Enrich returns nil.
func (Nop) Enrich(context.Context, string) ([]string, error) { return nil, nil }

// Bounded wraps an Enricher with a hard timeout and hint cleanup.
type Bounded struct {
	next    Enricher
	timeout time.Duration
	logger  *zap.Logger
}

// NewBounded returns next bounded by timeout. A nil next yields Nop.
func NewBounded(next Enricher, timeout time.Duration, logger *zap.Logger) Enricher {
	if next == nil {
		return Nop{}
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bounded{next: next, timeout: timeout, logger: logger}
}

type result struct {
	hints []string
	err   error
}

// Enrich calls the wrapped enricher and returns at most MaxHints trimmed,
// distinct, non-empty hints. It returns no later than the timeout even when
// the wrapped enricher ignores its context.
func (b *Bounded) Enrich(ctx context.Context, question string) ([]string, error) {
	callCtx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	ch := make(chan result, 1)
	go func() {
		hints, err := b.next.Enrich(callCtx, question)
		ch <- result{hints, err}
	}()

	select {
	case r := <-ch:
		if r.err != nil {
			b.logger.Debug("enrichment failed", zap.Error(r.err))
			return nil, r.err
		}
		return Clean(r.hints), nil
	case <-callCtx.Done():
		b.logger.Debug("enrichment timed out", zap.Duration("timeout", b.timeout))
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, callCtx.Err()
	}
}

// Clean trims hints, drops blanks and duplicates and caps the list at
// MaxHints. Order is preserved.
func Clean(hints []string) []string {
	var out []string
	seen := map[string]bool{}
	for _, h := range hints {
		h = strings.Join(strings.Fields(h), " ")
		if h == "" || seen[h] {
			continue
		}
		seen[h] = true
		out = append(out, h)
		if len(out) == MaxHints {
			break
		}
	}
	return out
}
