// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package decompose turns one research question into an ordered list of
// atomic search queries, one per facet the question exhibits. The result is
// a pure function of the question, the context hints and the profile.
package decompose

import (
	"strings"

	"github.com/pdiddy/research-pipeline/pkg/types"
)

// MaxHints is the number of context hints considered.
const MaxHints = 5

// hintTerms bounds the terms borrowed from a context hint.
const hintTerms = 3

var howToCues = []string{
	"how to", "how do", "how can", "how should", "how does one",
	"steps", "guide", "tutorial", "implement", "implementing",
	"build", "building", "set up", "setup", "install", "deploy",
	"process for", "best practice", "best practices",
}

var alternativesCues = []string{
	" vs ", " vs. ", " versus ", "alternative", "alternatives",
	"compare", "comparison", "compared", "instead of", "options",
	"competitors", "better than",
}

// Decompose returns the round-0 queries for question. It never returns an
// empty list: a question with no usable terms is issued verbatim.
func Decompose(question string, hints []string, profile types.DepthProfile) []types.Query {
	question = strings.TrimSpace(question)
	limit := profile.InitialQueries
	if limit <= 0 || (profile.MaxQueries > 0 && limit > profile.MaxQueries) {
		limit = profile.MaxQueries
	}
	if limit <= 0 {
		limit = 1
	}

	a := Analyze(question)
	if a.Empty() {
		return []types.Query{{Text: question, Intent: types.IntentLandscape}}
	}

	core := a.Core()
	var queries []types.Query
	seen := map[string]bool{}
	add := func(text string, intent types.Intent) {
		text = strings.Join(strings.Fields(text), " ")
		key := strings.ToLower(text)
		if text == "" || seen[key] {
			return
		}
		seen[key] = true
		queries = append(queries, types.Query{Text: text, Intent: intent})
	}

	add(withTerms(core, "overview"), types.IntentLandscape)
	if specific := SpecificQuery(a); specific != "" {
		add(specific, types.IntentSpecific)
	}
	lower := " " + strings.ToLower(question) + " "
	if containsAny(lower, howToCues) {
		add(withTerms(core, "how", "to", "guide"), types.IntentHowTo)
	}
	if containsAny(lower, alternativesCues) {
		add(withTerms(core, "alternatives", "comparison"), types.IntentAlternatives)
	}
	if ctx := contextQuery(a, hints); ctx != "" {
		add(ctx, types.IntentContext)
	}

	if len(queries) > limit {
		queries = queries[:limit]
	}
	return queries
}

// SpecificQuery builds the entity-anchored query: entities first (quoted
// when they are phrases or compounds) followed by the remaining keywords.
// It returns "" when the question names no entities.
func SpecificQuery(a Analysis) string {
	if len(a.Entities) == 0 {
		return ""
	}
	isEntity := map[string]bool{}
	parts := make([]string, 0, len(a.Keywords))
	for _, e := range a.Entities {
		isEntity[e] = true
		if a.Quoted[e] || strings.ContainsAny(e, " -") {
			parts = append(parts, `"`+e+`"`)
		} else {
			parts = append(parts, e)
		}
	}
	for _, k := range a.Keywords {
		if !isEntity[k] {
			parts = append(parts, k)
		}
	}
	return strings.Join(parts, " ")
}

// contextQuery borrows up to hintTerms new keywords from the first hint that
// contributes any and appends them to the core topic.
func contextQuery(a Analysis, hints []string) string {
	if len(hints) > MaxHints {
		hints = hints[:MaxHints]
	}
	have := map[string]bool{}
	for _, k := range a.Keywords {
		have[k] = true
	}
	for _, h := range hints {
		var extra []string
		for _, k := range Keywords(h) {
			if have[k] || strings.Contains(k, " ") {
				continue
			}
			extra = append(extra, k)
			if len(extra) == hintTerms {
				break
			}
		}
		if len(extra) > 0 {
			return a.Core() + " " + strings.Join(extra, " ")
		}
	}
	return ""
}

// withTerms appends the terms core does not already contain.
func withTerms(core string, terms ...string) string {
	have := map[string]bool{}
	for _, w := range strings.Fields(core) {
		have[w] = true
	}
	out := core
	for _, t := range terms {
		if !have[t] {
			out += " " + t
		}
	}
	return out
}

func containsAny(s string, cues []string) bool {
	for _, c := range cues {
		if strings.Contains(s, c) {
			return true
		}
	}
	return false
}
