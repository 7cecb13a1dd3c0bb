// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Tier is a coarse authority bucket.
type Tier string

const (
	TierPrimary   Tier = "primary"
	TierSecondary Tier = "secondary"
	TierWeak      Tier = "weak"
)

// Rank orders tiers from strongest (0) to weakest.
func (t Tier) Rank() int {
	switch t {
	case TierPrimary:
		return 0
	case TierSecondary:
		return 1
	default:
		return 2
	}
}

// ScoredSource is one unique normalized URL with its authority grading and
// every hit that referenced it.
type ScoredSource struct {
	// URL is the normalized URL; it is the key of the evidence set.
	URL string `json:"url" yaml:"url"`

	// Domain is the host the authority score was derived from.
	Domain string `json:"domain" yaml:"domain"`

	// Authority is a value between 0.0 and 1.0.
	Authority float64 `json:"authority" yaml:"authority"`

	Tier Tier `json:"tier" yaml:"tier"`

	// Class names the authority table class that matched (e.g. "government").
	Class string `json:"class" yaml:"class"`

	// Hits holds the raw hits for this URL in canonical order.
	Hits []RawHit `json:"hits" yaml:"hits"`
}

// Title returns the title of the first hit.
func (s ScoredSource) Title() string {
	for _, h := range s.Hits {
		if h.Title != "" {
			return h.Title
		}
	}
	return s.URL
}

// Snippet returns the longest snippet recorded for the source.
func (s ScoredSource) Snippet() string {
	best := ""
	for _, h := range s.Hits {
		if len(h.Snippet) > len(best) {
			best = h.Snippet
		}
	}
	return best
}

// SourcesByTier partitions the evidence set. Each slice is ordered by
// authority descending, then URL.
type SourcesByTier struct {
	Primary   []ScoredSource `json:"primary" yaml:"primary"`
	Secondary []ScoredSource `json:"secondary" yaml:"secondary"`
	Weak      []ScoredSource `json:"weak" yaml:"weak"`
}

// Total returns the number of sources across all tiers.
func (s SourcesByTier) Total() int {
	return len(s.Primary) + len(s.Secondary) + len(s.Weak)
}

// All returns every source, strongest tier first.
func (s SourcesByTier) All() []ScoredSource {
	all := make([]ScoredSource, 0, s.Total())
	all = append(all, s.Primary...)
	all = append(all, s.Secondary...)
	all = append(all, s.Weak...)
	return all
}
