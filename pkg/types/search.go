// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the research pipeline:
// queries and raw hits, scored sources, findings, gaps, depth profiles and
// the terminal ResearchReport.
package types

// Intent tags the facet of the question a Query was issued for.
type Intent string

const (
	IntentLandscape    Intent = "landscape"
	IntentSpecific     Intent = "specific"
	IntentHowTo        Intent = "how_to"
	IntentAlternatives Intent = "alternatives"
	IntentContext      Intent = "context"
	IntentGap          Intent = "gap"
)

// Query is one atomic search query. Queries are immutable once issued.
type Query struct {
	// Text is the query string sent to the search provider.
	Text string `json:"text" yaml:"text"`

	// Intent is the facet the query covers.
	Intent Intent `json:"intent_tag" yaml:"intent_tag"`

	// Round is the search round (0 or 1) that issued the query.
	Round int `json:"round" yaml:"round"`
}

// RawHit is a single result returned by a search provider for one query.
type RawHit struct {
	Title   string `json:"title" yaml:"title"`
	URL     string `json:"url" yaml:"url"`
	Snippet string `json:"snippet" yaml:"snippet"`

	// QueryRef is the text of the query that produced the hit.
	QueryRef string `json:"query_ref" yaml:"query_ref"`
}

// QueryOutcome records what happened to one issued query.
type QueryOutcome struct {
	Query Query `json:"query" yaml:"query"`

	// Hits is the number of raw hits the query returned.
	Hits int `json:"hits" yaml:"hits"`

	// Error is the provider error kind, empty on success.
	Error string `json:"error,omitempty" yaml:"error,omitempty"`
}
