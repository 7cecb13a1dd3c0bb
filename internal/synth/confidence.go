// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package synth

import (
	"math"

	"github.com/pdiddy/research-pipeline/pkg/types"
)

const (
	authorityWeight = 0.75
	citationWeight  = 0.25

	// fullCitations is the citation count that earns the full citation weight.
	fullCitations = 3

	// primaryFloor applies when two or more primary sources back a finding.
	primaryFloor = 0.8

	// weakCap applies when a finding rests on a single weak source.
	weakCap = 0.45
)

// Confidence blends the mean authority of the cited sources with how many
// there are. Two or more primary sources lift it to at least 0.8; a lone
// weak source holds it below 0.5. The result is rounded to two decimals.
func Confidence(sources []types.ScoredSource) float64 {
	if len(sources) == 0 {
		return 0
	}

	var sum float64
	primary := 0
	for _, s := range sources {
		sum += s.Authority
		if s.Tier == types.TierPrimary {
			primary++
		}
	}
	mean := sum / float64(len(sources))
	coverage := math.Min(1, float64(len(sources))/fullCitations)
	c := authorityWeight*mean + citationWeight*coverage

	if primary >= 2 {
		c = math.Max(c, primaryFloor)
	}
	if len(sources) == 1 && sources[0].Tier == types.TierWeak {
		c = math.Min(c, weakCap)
	}
	c = math.Max(0, math.Min(1, c))
	return math.Round(c*100) / 100
}
