// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package orchestrator drives one research request through its phases:
// decompose the question, search concurrently, aggregate and score the
// evidence, optionally fill gaps with a second round, and synthesize
// findings. Every request returns a report, including aborted ones.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/pdiddy/research-pipeline/internal/aggregate"
	"github.com/pdiddy/research-pipeline/internal/authority"
	"github.com/pdiddy/research-pipeline/internal/decompose"
	"github.com/pdiddy/research-pipeline/internal/enrich"
	"github.com/pdiddy/research-pipeline/internal/gaps"
	"github.com/pdiddy/research-pipeline/internal/report"
	"github.com/pdiddy/research-pipeline/internal/search"
	"github.com/pdiddy/research-pipeline/internal/synth"
	"github.com/pdiddy/research-pipeline/pkg/types"
)

const tracerName = "github.com/pdiddy/research-pipeline/internal/orchestrator"

// GapCheckFloor is the fraction of the time budget that must remain for a
// follow-up round to start.
const GapCheckFloor = 0.2

// Degraded reasons set by the orchestrator itself.
const (
	ReasonCancelled       = "cancelled"
	ReasonBudgetExhausted = "budget_exhausted"
)

var (
	// ErrCancelled is returned when the caller cancels the request.
	ErrCancelled = errors.New("research cancelled")

	// ErrBudgetExhausted is returned when the time budget ran out before any
	// evidence was found.
	ErrBudgetExhausted = errors.New("time budget exhausted before any evidence was found")
)

// Searcher sends one query to a provider. *search.Client implements it.
type Searcher interface {
	Provider() string
	Search(ctx context.Context, q types.Query, timeout time.Duration) ([]types.RawHit, error)
}

// Synthesizer turns evidence into findings. *synth.Synthesizer implements it.
type Synthesizer interface {
	Synthesize(ctx context.Context, req synth.Request) synth.Result
}

// Orchestrator runs research requests. It holds no per-request state and is
// safe for concurrent use.
type Orchestrator struct {
	searcher      Searcher
	scorer        *authority.Scorer
	enricher      enrich.Enricher
	enrichTimeout time.Duration
	synthesizer   Synthesizer
	callTimeout   time.Duration
	logger        *zap.Logger
	progress      io.Writer
	tracer        trace.Tracer
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithScorer sets the authority scorer (default: built-in table).
func WithScorer(s *authority.Scorer) Option {
	return func(o *Orchestrator) {
		if s != nil {
			o.scorer = s
		}
	}
}

// WithEnricher sets the context enricher. Without one no hints are used.
func WithEnricher(e enrich.Enricher) Option {
	return func(o *Orchestrator) { o.enricher = e }
}

// WithEnrichTimeout bounds the enrichment call.
func WithEnrichTimeout(d time.Duration) Option {
	return func(o *Orchestrator) { o.enrichTimeout = d }
}

// WithSynthesizer sets the synthesizer (default: no generator, so every
// report lists sources instead of generated findings).
func WithSynthesizer(s Synthesizer) Option {
	return func(o *Orchestrator) {
		if s != nil {
			o.synthesizer = s
		}
	}
}

// WithCallTimeout sets the per-query provider timeout.
func WithCallTimeout(d time.Duration) Option {
	return func(o *Orchestrator) {
		if d > 0 {
			o.callTimeout = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(o *Orchestrator) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithProgress sets the writer that receives human-readable progress lines.
func WithProgress(w io.Writer) Option {
	return func(o *Orchestrator) {
		if w != nil {
			o.progress = w
		}
	}
}

// New returns an Orchestrator that searches with searcher.
func New(searcher Searcher, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		searcher:    searcher,
		scorer:      authority.Default(),
		synthesizer: synth.New(nil),
		callTimeout: search.DefaultCallTimeout,
		logger:      zap.NewNop(),
		progress:    io.Discard,
		tracer:      otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(o)
	}
	o.enricher = enrich.NewBounded(o.enricher, o.enrichTimeout, o.logger)
	return o
}

// Run researches question under profile. It always returns a report. The
// error is non-nil only when the request was aborted: ErrCancelled (wrapping
// the context error) or ErrBudgetExhausted. Aborted reports keep whatever
// evidence had been aggregated.
func (o *Orchestrator) Run(ctx context.Context, question string, profile types.DepthProfile) (types.ResearchReport, error) {
	profile = profile.Normalize()

	ctx, span := o.tracer.Start(ctx, "research",
		trace.WithAttributes(attribute.String("profile", profile.Name)))
	defer span.End()

	r := o.newRun(ctx, question, profile)
	o.logger.Info("research started",
		zap.String("id", r.report.ID),
		zap.String("profile", profile.Name),
		zap.Int("max_queries", profile.MaxQueries),
		zap.Int("max_rounds", profile.MaxRounds),
		zap.Duration("budget", profile.TimeBudget),
	)
	fmt.Fprintf(o.progress, "researching %q (profile %s, budget %s)\n", question, profile.Name, profile.TimeBudget)

	r.enter(types.StateDecomposing, 0)
	hints := r.enrich()
	queries := decompose.Decompose(question, hints, profile)
	if err := ctx.Err(); err != nil {
		return r.abort(span, cancelled(err))
	}

	r.search(0, queries)
	if err := ctx.Err(); err != nil {
		return r.abort(span, cancelled(err))
	}
	r.enter(types.StateEvaluating, 0)
	r.evaluate()

	r.enter(types.StateGapCheck, 0)
	if next := r.followUp(); len(next) > 0 {
		r.search(1, next)
		if err := ctx.Err(); err != nil {
			return r.abort(span, cancelled(err))
		}
		r.enter(types.StateEvaluating, 1)
		r.evaluate()
	}

	if r.evidence.Len() == 0 && r.exhausted {
		return r.abort(span, ErrBudgetExhausted)
	}

	r.enter(types.StateSynthesizing, r.round)
	r.synthesize()
	if err := ctx.Err(); err != nil {
		return r.abort(span, cancelled(err))
	}

	return r.finish(types.StateDone, nil)
}

func cancelled(cause error) error {
	return fmt.Errorf("%w: %w", ErrCancelled, cause)
}

// run is the state of one request. It is owned by the goroutine calling Run;
// search workers only send results back to it.
type run struct {
	o        *Orchestrator
	ctx      context.Context
	question string
	profile  types.DepthProfile

	start   time.Time
	budget  time.Duration
	reserve time.Duration

	evidence *aggregate.Evidence
	report   types.ResearchReport

	state      types.State
	round      int
	phaseStart time.Time
	phaseCtx   context.Context
	phaseSpan  trace.Span

	// exhausted records that a search round ran out of its time slice or
	// could not start for lack of budget.
	exhausted bool
}

func (o *Orchestrator) newRun(ctx context.Context, question string, profile types.DepthProfile) *run {
	budget := profile.TimeBudget
	return &run{
		o:        o,
		ctx:      ctx,
		question: question,
		profile:  profile,
		start:    time.Now(),
		budget:   budget,
		reserve:  time.Duration(float64(budget) * profile.SynthesisReserve),
		evidence: aggregate.New(o.scorer),
		phaseCtx: ctx,
		report: types.ResearchReport{
			ID:           uuid.NewString(),
			Query:        question,
			DepthProfile: profile,
		},
	}
}

func (r *run) remaining() time.Duration {
	return r.budget - time.Since(r.start)
}

func (r *run) queriesRemaining() int {
	return r.profile.MaxQueries - len(r.report.Queries)
}

// roundWindow is the time slice for the next search round: the smaller of
// the budget left after the synthesis reserve and an equal share of the
// searchable budget per round.
func (r *run) roundWindow() time.Duration {
	share := (r.budget - r.reserve) / time.Duration(r.profile.MaxRounds)
	left := r.remaining() - r.reserve
	return min(share, left)
}

// enter closes the current phase and opens state.
func (r *run) enter(state types.State, round int) {
	now := time.Now()
	if r.state != "" {
		d := now.Sub(r.phaseStart)
		r.report.Phases = append(r.report.Phases, types.PhaseRecord{
			State: r.state, Round: r.round, DurationMS: d.Milliseconds(),
		})
		phaseSeconds.WithLabelValues(string(r.state)).Observe(d.Seconds())
	}
	if r.phaseSpan != nil {
		r.phaseSpan.End()
		r.phaseSpan = nil
	}

	r.state, r.round, r.phaseStart = state, round, now
	if state == types.StateDone || state == types.StateAborted {
		r.report.Phases = append(r.report.Phases, types.PhaseRecord{State: state, Round: round})
		r.phaseCtx = r.ctx
		return
	}
	r.phaseCtx, r.phaseSpan = r.o.tracer.Start(r.ctx, "research."+string(state),
		trace.WithAttributes(attribute.Int("round", round)))
	r.o.logger.Debug("phase", zap.String("state", string(state)), zap.Int("round", round))
}

func (r *run) enrich() []string {
	hints, err := r.o.enricher.Enrich(r.phaseCtx, r.question)
	if err != nil {
		if r.ctx.Err() == nil {
			r.report.Errors = append(r.report.Errors, fmt.Sprintf("enrichment: %v", err))
			r.o.logger.Warn("enrichment failed", zap.Error(err))
		}
		return nil
	}
	if len(hints) > 0 {
		fmt.Fprintf(r.o.progress, "context: %d hints\n", len(hints))
	}
	return hints
}

func (r *run) evaluate() {
	byTier := r.evidence.ByTier()
	fmt.Fprintf(r.o.progress, "evidence: %d primary, %d secondary, %d weak\n",
		len(byTier.Primary), len(byTier.Secondary), len(byTier.Weak))
	r.o.logger.Info("evidence evaluated",
		zap.Int("round", r.round),
		zap.Int("primary", len(byTier.Primary)),
		zap.Int("secondary", len(byTier.Secondary)),
		zap.Int("weak", len(byTier.Weak)),
		zap.Int("rejected", r.evidence.Rejected()),
	)
}

func (r *run) gapInput() gaps.Input {
	return gaps.Input{
		Question:         r.question,
		Evidence:         r.evidence,
		Outcomes:         r.report.Queries,
		Profile:          r.profile,
		RoundsUsed:       r.report.RoundsUsed,
		QueriesRemaining: r.queriesRemaining(),
	}
}

// followUp decides the round-1 queries: gap queries first, then retries of
// round-0 queries that failed with a retryable kind. It returns nil when no
// gap was found, rounds or queries are used up, or too little time remains.
func (r *run) followUp() []types.Query {
	if r.profile.MaxRounds <= 1 {
		return nil
	}
	if floor := time.Duration(float64(r.budget) * GapCheckFloor); r.remaining() <= floor {
		r.o.logger.Info("skipping follow-up round", zap.Duration("remaining", r.remaining()))
		return nil
	}

	found := gaps.Analyze(r.gapInput())
	if len(found) == 0 {
		return nil
	}

	limit := r.queriesRemaining()
	var next []types.Query
	seen := map[string]bool{}
	add := func(q types.Query) {
		if len(next) >= limit || seen[q.Text] {
			return
		}
		seen[q.Text] = true
		q.Round = 1
		next = append(next, q)
	}

	for _, g := range found {
		fmt.Fprintf(r.o.progress, "gap (%s): %s\n", g.Kind, g.Description)
		add(types.Query{Text: g.SuggestedQuery, Intent: types.IntentGap})
	}
	for _, out := range r.report.Queries {
		if retryable(out.Error) {
			add(out.Query)
		}
	}
	return next
}

func (r *run) synthesize() {
	residual := gaps.Residual(r.gapInput())

	synthCtx, cancel := context.WithTimeout(r.phaseCtx, max(r.remaining(), r.reserve))
	defer cancel()

	res := r.o.synthesizer.Synthesize(synthCtx, synth.Request{
		Question: r.question,
		Evidence: r.evidence.Snapshot(),
		Gaps:     residual,
		Profile:  r.profile,
	})
	r.report.Findings = res.Findings
	r.report.Gaps = res.ResidualGaps
	if res.Degraded {
		r.report.Degraded = true
		r.report.DegradedReason = res.Reason
		if res.Err != nil {
			r.report.Errors = append(r.report.Errors, fmt.Sprintf("synthesis: %v", res.Err))
		}
	}
	fmt.Fprintf(r.o.progress, "synthesis: %d findings, %d open gaps\n", len(res.Findings), len(res.ResidualGaps))
}

// abort ends the request in the Aborted state, keeping the evidence gathered
// so far and the gaps it still shows.
func (r *run) abort(span trace.Span, err error) (types.ResearchReport, error) {
	reason := ReasonBudgetExhausted
	if errors.Is(err, ErrCancelled) {
		reason = ReasonCancelled
	}
	r.report.Degraded = true
	r.report.DegradedReason = reason
	r.report.Gaps = gaps.Residual(r.gapInput())

	span.RecordError(err)
	span.SetStatus(codes.Error, reason)
	r.o.logger.Warn("research aborted",
		zap.String("id", r.report.ID),
		zap.String("reason", reason),
		zap.Int("sources", r.evidence.Len()),
	)
	fmt.Fprintf(r.o.progress, "aborted: %s\n", reason)
	return r.finish(types.StateAborted, err)
}

func (r *run) finish(state types.State, err error) (types.ResearchReport, error) {
	r.enter(state, r.round)

	rep := r.report
	rep.State = state
	rep.SourcesByTier = r.evidence.ByTier()
	if rep.Findings == nil {
		rep.Findings = []types.Finding{}
	}
	if rep.Gaps == nil {
		rep.Gaps = []types.Gap{}
	}
	if digest, derr := report.EvidenceDigest(rep.SourcesByTier); derr != nil {
		r.o.logger.Warn("evidence digest failed", zap.Error(derr))
	} else {
		rep.EvidenceDigest = digest
	}
	rep.ElapsedMS = time.Since(r.start).Milliseconds()

	requestsTotal.WithLabelValues(r.profile.Name, string(state)).Inc()
	if rep.Degraded {
		degradedTotal.WithLabelValues(rep.DegradedReason).Inc()
	}
	r.o.logger.Info("research finished",
		zap.String("id", rep.ID),
		zap.String("state", string(state)),
		zap.Bool("degraded", rep.Degraded),
		zap.Int("queries", len(rep.Queries)),
		zap.Int("rounds", rep.RoundsUsed),
		zap.Int("sources", rep.SourcesByTier.Total()),
		zap.Int("findings", len(rep.Findings)),
		zap.Int64("elapsed_ms", rep.ElapsedMS),
	)
	return rep, err
}
