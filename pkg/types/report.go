// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Finding categories. Generated findings may carry any category the
// generator chooses; these are the ones the pipeline assigns itself.
const (
	CategorySourceSummary = "source_summary"
	CategoryNoEvidence    = "no_evidence"
)

// Finding is a synthesized statement backed by sources in the evidence set.
type Finding struct {
	Text string `json:"text" yaml:"text"`

	// SupportingSources are normalized URLs; each is a key of the evidence set.
	SupportingSources []string `json:"supporting_sources" yaml:"supporting_sources"`

	// Confidence is between 0.0 and 1.0. Zero on degraded findings means unrated.
	Confidence float64 `json:"confidence" yaml:"confidence"`

	Category string `json:"category" yaml:"category"`
}

// GapKind identifies which trigger produced a gap.
type GapKind string

const (
	GapAuthority     GapKind = "authority"
	GapCoverage      GapKind = "coverage"
	GapCorroboration GapKind = "corroboration"
	GapSynthesis     GapKind = "synthesis"
)

// Gap is a detected deficiency in the evidence with a follow-up query.
type Gap struct {
	Kind           GapKind `json:"kind" yaml:"kind"`
	Description    string  `json:"description" yaml:"description"`
	SuggestedQuery string  `json:"suggested_query" yaml:"suggested_query"`
}

// State is an orchestrator state. Done and Aborted are terminal.
type State string

const (
	StateDecomposing  State = "decomposing"
	StateSearching    State = "searching"
	StateEvaluating   State = "evaluating"
	StateGapCheck     State = "gap_check"
	StateSynthesizing State = "synthesizing"
	StateDone         State = "done"
	StateAborted      State = "aborted"
)

// PhaseRecord is one state the orchestrator passed through.
type PhaseRecord struct {
	State      State `json:"state" yaml:"state"`
	Round      int   `json:"round" yaml:"round"`
	DurationMS int64 `json:"duration_ms" yaml:"duration_ms"`
}

// ResearchReport is the terminal artifact of one research request.
type ResearchReport struct {
	ID    string `json:"id" yaml:"id"`
	Query string `json:"query" yaml:"query"`

	DepthProfile DepthProfile `json:"depth_profile" yaml:"depth_profile"`

	// State is StateDone or StateAborted.
	State State `json:"state" yaml:"state"`

	Findings []Finding `json:"findings" yaml:"findings"`

	// Gaps are the residual gaps that remained unfilled.
	Gaps []Gap `json:"gaps" yaml:"gaps"`

	SourcesByTier SourcesByTier `json:"sources_by_tier" yaml:"sources_by_tier"`

	// Degraded is true whenever any phase fell back to a reduced-fidelity path.
	Degraded bool `json:"degraded" yaml:"degraded"`

	DegradedReason string `json:"degraded_reason,omitempty" yaml:"degraded_reason,omitempty"`

	Queries    []QueryOutcome `json:"queries" yaml:"queries"`
	RoundsUsed int            `json:"rounds_used" yaml:"rounds_used"`
	Phases     []PhaseRecord  `json:"phases" yaml:"phases"`

	// Errors lists non-fatal provider and enrichment failures.
	Errors []string `json:"errors,omitempty" yaml:"errors,omitempty"`

	// EvidenceDigest is the canonical SHA-256 of SourcesByTier.
	EvidenceDigest string `json:"evidence_digest,omitempty" yaml:"evidence_digest,omitempty"`

	ElapsedMS int64 `json:"elapsed_ms" yaml:"elapsed_ms"`
}

// QueriesIssued returns the number of queries sent to providers.
func (r ResearchReport) QueriesIssued() int {
	return len(r.Queries)
}
