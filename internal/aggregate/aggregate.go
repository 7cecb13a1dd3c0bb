// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package aggregate merges raw search hits into the evidence set: one
// ScoredSource per normalized URL, graded by the authority scorer.
//
// Merging is commutative and idempotent. Hits within a source are kept in a
// canonical order with exact duplicates removed, so delivering the same hits
// in any order, or twice, yields the same evidence set.
package aggregate

import (
	"sort"

	"github.com/pdiddy/research-pipeline/internal/authority"
	"github.com/pdiddy/research-pipeline/pkg/types"
)

// Evidence is the set of scored sources gathered during one request. It is
// owned by a single goroutine and is not safe for concurrent use.
type Evidence struct {
	scorer  *authority.Scorer
	sources map[string]*types.ScoredSource

	// rejected counts hits whose URL could not be normalized.
	rejected int
}

// New returns an empty evidence set graded by scorer. A nil scorer uses the
// built-in authority table.
func New(scorer *authority.Scorer) *Evidence {
	if scorer == nil {
		scorer = authority.Default()
	}
	return &Evidence{
		scorer:  scorer,
		sources: make(map[string]*types.ScoredSource),
	}
}

// Add upserts hits into the evidence set and returns the number of new
// sources created. Hits with unusable URLs are counted in Rejected and
// otherwise ignored.
func (e *Evidence) Add(hits ...types.RawHit) int {
	created := 0
	for _, h := range hits {
		key, err := NormalizeURL(h.URL)
		if err != nil {
			e.rejected++
			continue
		}
		src, ok := e.sources[key]
		if !ok {
			score := e.scorer.Score(key)
			src = &types.ScoredSource{
				URL:       key,
				Domain:    score.Domain,
				Authority: score.Authority,
				Tier:      score.Tier,
				Class:     score.Class,
			}
			e.sources[key] = src
			created++
		}
		src.Hits = mergeHit(src.Hits, h)
	}
	return created
}

// mergeHit inserts h in canonical position unless an identical hit exists.
func mergeHit(hits []types.RawHit, h types.RawHit) []types.RawHit {
	i := sort.Search(len(hits), func(i int) bool { return !hitLess(hits[i], h) })
	if i < len(hits) && hits[i] == h {
		return hits
	}
	hits = append(hits, types.RawHit{})
	copy(hits[i+1:], hits[i:])
	hits[i] = h
	return hits
}

func hitLess(a, b types.RawHit) bool {
	if a.QueryRef != b.QueryRef {
		return a.QueryRef < b.QueryRef
	}
	if a.URL != b.URL {
		return a.URL < b.URL
	}
	if a.Title != b.Title {
		return a.Title < b.Title
	}
	return a.Snippet < b.Snippet
}

// Len returns the number of unique sources.
func (e *Evidence) Len() int { return len(e.sources) }

// Rejected returns the number of hits dropped for unusable URLs.
func (e *Evidence) Rejected() int { return e.rejected }

// Has reports whether url (raw or normalized) is in the evidence set.
func (e *Evidence) Has(url string) bool {
	_, ok := e.Get(url)
	return ok
}

// Get returns a copy of the source for url (raw or normalized).
func (e *Evidence) Get(url string) (types.ScoredSource, bool) {
	key, err := NormalizeURL(url)
	if err != nil {
		return types.ScoredSource{}, false
	}
	src, ok := e.sources[key]
	if !ok {
		return types.ScoredSource{}, false
	}
	return cloneSource(src), true
}

// Keys returns the normalized URLs in the set, sorted.
func (e *Evidence) Keys() []string {
	keys := make([]string, 0, len(e.sources))
	for k := range e.sources {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Snapshot returns a deep copy of the set keyed by normalized URL.
func (e *Evidence) Snapshot() map[string]types.ScoredSource {
	out := make(map[string]types.ScoredSource, len(e.sources))
	for k, src := range e.sources {
		out[k] = cloneSource(src)
	}
	return out
}

// Sources returns copies of all sources ordered by tier, then authority
// descending, then URL.
func (e *Evidence) Sources() []types.ScoredSource {
	out := make([]types.ScoredSource, 0, len(e.sources))
	for _, src := range e.sources {
		out = append(out, cloneSource(src))
	}
	SortSources(out)
	return out
}

// ByTier partitions the set into primary, secondary and weak sources.
func (e *Evidence) ByTier() types.SourcesByTier {
	var out types.SourcesByTier
	for _, src := range e.Sources() {
		switch src.Tier {
		case types.TierPrimary:
			out.Primary = append(out.Primary, src)
		case types.TierSecondary:
			out.Secondary = append(out.Secondary, src)
		default:
			out.Weak = append(out.Weak, src)
		}
	}
	return out
}

// CountTier returns the number of sources in tier.
func (e *Evidence) CountTier(tier types.Tier) int {
	n := 0
	for _, src := range e.sources {
		if src.Tier == tier {
			n++
		}
	}
	return n
}

// HitsForQuery returns the number of sources that at least one hit from the
// given query text landed in.
func (e *Evidence) HitsForQuery(text string) int {
	n := 0
	for _, src := range e.sources {
		for _, h := range src.Hits {
			if h.QueryRef == text {
				n++
				break
			}
		}
	}
	return n
}

// SortSources orders sources by tier, authority descending, then URL.
func SortSources(sources []types.ScoredSource) {
	sort.SliceStable(sources, func(i, j int) bool {
		a, b := sources[i], sources[j]
		if a.Tier.Rank() != b.Tier.Rank() {
			return a.Tier.Rank() < b.Tier.Rank()
		}
		if a.Authority != b.Authority {
			return a.Authority > b.Authority
		}
		return a.URL < b.URL
	})
}

func cloneSource(src *types.ScoredSource) types.ScoredSource {
	c := *src
	c.Hits = append([]types.RawHit(nil), src.Hits...)
	return c
}
