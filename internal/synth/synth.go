// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package synth turns the evidence set into findings. A Generator is called
// once behind a hard timeout; its output must pass a JSON schema and a
// citation check or the result falls back to a degraded list of the
// strongest sources with their snippets. Confidence is always computed
// here, never taken from the generator.
package synth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/research-pipeline/internal/aggregate"
	"github.com/pdiddy/research-pipeline/pkg/types"
)

// Sentinel errors carried by degraded results.
var (
	ErrSynthesisUnavailable = errors.New("synthesis unavailable")
	ErrInvalidCitation      = errors.New("finding cites a source outside the evidence set")
	ErrSchemaViolation      = errors.New("synthesis output violates schema")
)

// Degraded reasons recorded on results and reports.
const (
	ReasonUnavailable     = "synthesis_unavailable"
	ReasonInvalidCitation = "invalid_citation"
	ReasonSchemaViolation = "schema_violation"
	ReasonNoEvidence      = "no_evidence"
)

const (
	// DefaultTimeout bounds the generative call.
	DefaultTimeout = 45 * time.Second

	// DefaultMaxSourcesInPrompt bounds the evidence shown to the generator.
	DefaultMaxSourcesInPrompt = 40

	// maxGeneratedGaps bounds the gaps taken from generator output.
	maxGeneratedGaps = 3
)

// Generator produces a JSON document of findings for a prompt.
type Generator interface {
	Name() string
	Generate(ctx context.Context, prompt string) (json.RawMessage, error)
}

// Request is the input to one synthesis.
type Request struct {
	Question string

	// Evidence is keyed by normalized URL.
	Evidence map[string]types.ScoredSource

	// Gaps are the gaps still open after searching.
	Gaps []types.Gap

	Profile types.DepthProfile
}

// Result is the output of one synthesis. Degraded results carry the reason
// and the error that caused the fallback.
type Result struct {
	Findings     []types.Finding
	ResidualGaps []types.Gap
	Degraded     bool
	Reason       string
	Err          error
}

// Synthesizer validates generator output against the evidence set.
type Synthesizer struct {
	gen        Generator
	timeout    time.Duration
	maxSources int
	logger     *zap.Logger
}

// Option configures a Synthesizer.
type Option func(*Synthesizer)

// WithTimeout sets the hard timeout on the generative call.
func WithTimeout(d time.Duration) Option {
	return func(s *Synthesizer) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithMaxSources bounds the sources rendered into the prompt.
func WithMaxSources(n int) Option {
	return func(s *Synthesizer) {
		if n > 0 {
			s.maxSources = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Synthesizer) {
		if l != nil {
			s.logger = l
		}
	}
}

// New returns a Synthesizer. A nil gen always produces degraded results.
func New(gen Generator, opts ...Option) *Synthesizer {
	s := &Synthesizer{
		gen:        gen,
		timeout:    DefaultTimeout,
		maxSources: DefaultMaxSourcesInPrompt,
		logger:     zap.NewNop(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Generator returns the name of the configured generator, or "none".
func (s *Synthesizer) Generator() string {
	if s.gen == nil {
		return "none"
	}
	return s.gen.Name()
}

// Synthesize produces findings for req. It never returns an error: every
// failure becomes a degraded Result. The request is not modified.
func (s *Synthesizer) Synthesize(ctx context.Context, req Request) Result {
	maxFindings := req.Profile.MaxFindings
	if maxFindings <= 0 {
		maxFindings = types.DefaultProfiles()[types.ProfileStandard].MaxFindings
	}
	gaps := append([]types.Gap(nil), req.Gaps...)

	if len(req.Evidence) == 0 {
		synthesisTotal.WithLabelValues(s.Generator(), ReasonNoEvidence).Inc()
		return Result{
			Findings: []types.Finding{{
				Text:              fmt.Sprintf("No evidence found for %q.", strings.TrimSpace(req.Question)),
				SupportingSources: []string{},
				Category:          types.CategoryNoEvidence,
			}},
			ResidualGaps: gaps,
			Degraded:     true,
			Reason:       ReasonNoEvidence,
		}
	}

	findings, generated, err := s.generate(ctx, req, maxFindings)
	if err != nil {
		reason := reasonFor(err)
		s.logger.Warn("synthesis degraded",
			zap.String("generator", s.Generator()),
			zap.String("reason", reason),
			zap.Error(err),
		)
		synthesisTotal.WithLabelValues(s.Generator(), reason).Inc()
		return Result{
			Findings:     DegradedFindings(req.Evidence, maxFindings),
			ResidualGaps: gaps,
			Degraded:     true,
			Reason:       reason,
			Err:          err,
		}
	}

	synthesisTotal.WithLabelValues(s.Generator(), "ok").Inc()
	return Result{
		Findings:     findings,
		ResidualGaps: mergeGaps(gaps, generated),
	}
}

func reasonFor(err error) string {
	switch {
	case errors.Is(err, ErrInvalidCitation):
		return ReasonInvalidCitation
	case errors.Is(err, ErrSchemaViolation):
		return ReasonSchemaViolation
	default:
		return ReasonUnavailable
	}
}

type generated struct {
	raw json.RawMessage
	err error
}

// generate calls the generator once and validates its output.
func (s *Synthesizer) generate(ctx context.Context, req Request, maxFindings int) ([]types.Finding, []types.Gap, error) {
	if s.gen == nil {
		return nil, nil, fmt.Errorf("%w: no generator configured", ErrSynthesisUnavailable)
	}

	prompt, err := RenderPrompt(req, maxFindings, s.maxSources)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: rendering prompt: %v", ErrSynthesisUnavailable, err)
	}

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	ch := make(chan generated, 1)
	go func() {
		raw, err := s.gen.Generate(callCtx, prompt)
		ch <- generated{raw, err}
	}()

	var raw json.RawMessage
	select {
	case g := <-ch:
		if g.err != nil {
			return nil, nil, fmt.Errorf("%w: %s: %w", ErrSynthesisUnavailable, s.gen.Name(), g.err)
		}
		raw = g.raw
	case <-callCtx.Done():
		return nil, nil, fmt.Errorf("%w: %s: %w", ErrSynthesisUnavailable, s.gen.Name(), callCtx.Err())
	}

	out, err := Parse(raw)
	if err != nil {
		return nil, nil, err
	}
	findings, err := Validate(out, req.Evidence, maxFindings)
	if err != nil {
		return nil, nil, err
	}
	return findings, out.gaps(), nil
}

// Output is the document a generator returns.
type Output struct {
	Findings     []OutputFinding `json:"findings"`
	ResidualGaps []OutputGap     `json:"residual_gaps,omitempty"`
}

// OutputFinding is one generated finding before validation.
type OutputFinding struct {
	Text              string   `json:"text"`
	SupportingSources []string `json:"supporting_sources"`
	Category          string   `json:"category,omitempty"`
}

// OutputGap is a gap the generator noticed in the evidence.
type OutputGap struct {
	Description    string `json:"description"`
	SuggestedQuery string `json:"suggested_query"`
}

func (o Output) gaps() []types.Gap {
	var out []types.Gap
	for _, g := range o.ResidualGaps {
		if strings.TrimSpace(g.SuggestedQuery) == "" {
			continue
		}
		out = append(out, types.Gap{
			Kind:           types.GapSynthesis,
			Description:    strings.TrimSpace(g.Description),
			SuggestedQuery: strings.TrimSpace(g.SuggestedQuery),
		})
		if len(out) == maxGeneratedGaps {
			break
		}
	}
	return out
}

// Parse checks raw against the output schema and decodes it.
func Parse(raw json.RawMessage) (Output, error) {
	raw = json.RawMessage(stripFences(string(raw)))
	if err := validateSchema(raw); err != nil {
		return Output{}, err
	}
	var out Output
	if err := json.Unmarshal(raw, &out); err != nil {
		return Output{}, fmt.Errorf("%w: %v", ErrSchemaViolation, err)
	}
	return out, nil
}

// Validate resolves every citation against evidence and computes
// confidence. Findings beyond maxFindings are dropped. A citation that does
// not resolve rejects the whole output.
func Validate(out Output, evidence map[string]types.ScoredSource, maxFindings int) ([]types.Finding, error) {
	findings := make([]types.Finding, 0, len(out.Findings))
	for i, f := range out.Findings {
		if maxFindings > 0 && len(findings) == maxFindings {
			break
		}
		text := strings.TrimSpace(f.Text)
		if text == "" {
			return nil, fmt.Errorf("%w: finding %d has no text", ErrSchemaViolation, i)
		}

		var (
			cited []string
			seen  = map[string]bool{}
			srcs  []types.ScoredSource
		)
		for _, c := range f.SupportingSources {
			key, err := aggregate.NormalizeURL(c)
			if err != nil {
				return nil, fmt.Errorf("%w: finding %d: %q: %v", ErrInvalidCitation, i, c, err)
			}
			src, ok := evidence[key]
			if !ok {
				return nil, fmt.Errorf("%w: finding %d: %q", ErrInvalidCitation, i, c)
			}
			if seen[key] {
				continue
			}
			seen[key] = true
			cited = append(cited, key)
			srcs = append(srcs, src)
		}
		if len(cited) == 0 {
			return nil, fmt.Errorf("%w: finding %d cites no sources", ErrInvalidCitation, i)
		}

		category := strings.TrimSpace(f.Category)
		if category == "" {
			category = "general"
		}
		findings = append(findings, types.Finding{
			Text:              text,
			SupportingSources: cited,
			Confidence:        Confidence(srcs),
			Category:          category,
		})
	}
	if len(findings) == 0 {
		return nil, fmt.Errorf("%w: no findings", ErrSchemaViolation)
	}
	return findings, nil
}

// DegradedFindings lists the strongest sources with their snippets, one
// finding each, unrated.
func DegradedFindings(evidence map[string]types.ScoredSource, maxFindings int) []types.Finding {
	sources := make([]types.ScoredSource, 0, len(evidence))
	for _, src := range evidence {
		sources = append(sources, src)
	}
	aggregate.SortSources(sources)
	if maxFindings > 0 && len(sources) > maxFindings {
		sources = sources[:maxFindings]
	}

	findings := make([]types.Finding, 0, len(sources))
	for _, src := range sources {
		text := src.Title()
		if snippet := src.Snippet(); snippet != "" {
			text += ": " + snippet
		}
		findings = append(findings, types.Finding{
			Text:              text,
			SupportingSources: []string{src.URL},
			Category:          types.CategorySourceSummary,
		})
	}
	return findings
}

// mergeGaps appends generated gaps whose query is not already present.
func mergeGaps(gaps, generated []types.Gap) []types.Gap {
	seen := map[string]bool{}
	for _, g := range gaps {
		seen[strings.ToLower(g.SuggestedQuery)] = true
	}
	for _, g := range generated {
		key := strings.ToLower(g.SuggestedQuery)
		if seen[key] {
			continue
		}
		seen[key] = true
		gaps = append(gaps, g)
	}
	return gaps
}

// stripFences removes a Markdown code fence around a JSON document.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	}
	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "```"))
}
