// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/research-pipeline/internal/search"
	"github.com/pdiddy/research-pipeline/pkg/types"
)

// kindCancelled marks queries cut short by caller cancellation.
const kindCancelled = "cancelled"

type queryResult struct {
	idx   int
	query types.Query
	hits  []types.RawHit
	err   error
}

// retryable reports whether a query outcome error kind is worth another try
// in the follow-up round.
func retryable(kind string) bool {
	switch kind {
	case "", kindCancelled, string(search.KindMalformed):
		return false
	}
	return true
}

func errorKind(err error) string {
	if errors.Is(err, context.Canceled) {
		return kindCancelled
	}
	if k := search.KindOf(err); k != "" {
		return string(k)
	}
	return string(search.KindUnavailable)
}

// search issues one round of queries concurrently, at most
// profile.Concurrency at a time, and aggregates results as they arrive.
// Queries beyond the remaining query budget are dropped. The round ends when
// every query has returned or the round window closes.
func (r *run) search(round int, queries []types.Query) {
	r.enter(types.StateSearching, round)

	if rem := r.queriesRemaining(); len(queries) > rem {
		queries = queries[:max(rem, 0)]
	}
	window := r.roundWindow()
	if window <= 0 {
		r.exhausted = true
		r.o.logger.Warn("no time left for search round", zap.Int("round", round))
		return
	}
	if len(queries) == 0 {
		return
	}

	issued := make([]types.Query, len(queries))
	for i, q := range queries {
		q.Round = round
		issued[i] = q
	}
	r.report.RoundsUsed = round + 1
	queriesIssued.WithLabelValues(strconv.Itoa(round)).Add(float64(len(issued)))
	fmt.Fprintf(r.o.progress, "round %d: %d queries (window %s)\n", round, len(issued), window.Round(time.Millisecond))

	roundCtx, cancel := context.WithTimeout(r.phaseCtx, window)
	defer cancel()

	results := make(chan queryResult)
	go func() {
		var g errgroup.Group
		g.SetLimit(r.profile.Concurrency)
		for i, q := range issued {
			g.Go(func() error {
				results <- r.o.call(roundCtx, i, q)
				return nil
			})
		}
		g.Wait()
		close(results)
	}()

	outcomes := make([]types.QueryOutcome, len(issued))
	failures := make([]string, len(issued))
	for res := range results {
		out := types.QueryOutcome{Query: res.query, Hits: len(res.hits)}
		if res.err != nil {
			out.Error = errorKind(res.err)
			queryErrors.WithLabelValues(out.Error).Inc()
			if out.Error != kindCancelled {
				failures[res.idx] = fmt.Sprintf("query %q: %v", res.query.Text, res.err)
			}
			fmt.Fprintf(r.o.progress, "  failed  %q (%s)\n", res.query.Text, out.Error)
		} else {
			added := r.evidence.Add(res.hits...)
			fmt.Fprintf(r.o.progress, "  ok      %q (%d hits, %d new sources)\n", res.query.Text, len(res.hits), added)
		}
		outcomes[res.idx] = out
	}

	r.report.Queries = append(r.report.Queries, outcomes...)
	for _, f := range failures {
		if f != "" {
			r.report.Errors = append(r.report.Errors, f)
		}
	}
	if errors.Is(roundCtx.Err(), context.DeadlineExceeded) && r.ctx.Err() == nil {
		r.exhausted = true
		r.o.logger.Warn("search round window closed", zap.Int("round", round), zap.Duration("window", window))
	}
}

// call runs one query unless the round is already over, in which case the
// query is recorded as timed out (or cancelled) without reaching the
// provider.
func (o *Orchestrator) call(ctx context.Context, idx int, q types.Query) queryResult {
	if err := ctx.Err(); err != nil {
		if errors.Is(err, context.Canceled) {
			return queryResult{idx: idx, query: q, err: context.Canceled}
		}
		return queryResult{idx: idx, query: q, err: &search.Error{
			Kind: search.KindTimeout, Provider: o.searcher.Provider(), Err: err,
		}}
	}
	hits, err := o.searcher.Search(ctx, q, o.callTimeout)
	return queryResult{idx: idx, query: q, hits: hits, err: err}
}
