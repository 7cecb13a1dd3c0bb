// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func jsonServer(t *testing.T, status int, body string, check func(r *http.Request)) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if check != nil {
			check(r)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		fmt.Fprint(w, body)
	}))
	t.Cleanup(ts.Close)
	return ts
}

// --- SearXNG ---

const sampleSearXNGJSON = `{
  "query": "home health robots",
  "results": [
    {"title": "Home robots market", "url": "https://www.census.gov/robots", "content": "Shipments grew 12%", "engine": "bing"},
    {"title": "No url", "url": "", "content": "dropped"},
    {"title": "Forum thread", "url": "https://reddit.com/r/robotics/1", "content": "Anyone tried one?", "engine": "ddg"}
  ]
}`

func TestSearXNGSearch(t *testing.T) {
	ts := jsonServer(t, http.StatusOK, sampleSearXNGJSON, func(r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "json", r.URL.Query().Get("format"))
		assert.Equal(t, "home health robots", r.URL.Query().Get("q"))
		assert.Equal(t, "test/0.1", r.Header.Get("User-Agent"))
	})

	p := &SearXNGProvider{Client: ts.Client(), BaseURL: ts.URL + "/", UserAgent: "test/0.1"}
	hits, err := p.Search(context.Background(), "home health robots")
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "Home robots market", hits[0].Title)
	assert.Equal(t, "https://www.census.gov/robots", hits[0].URL)
	assert.Equal(t, "Shipments grew 12%", hits[0].Snippet)
}

func TestSearXNGMaxResults(t *testing.T) {
	ts := jsonServer(t, http.StatusOK, sampleSearXNGJSON, nil)
	p := &SearXNGProvider{Client: ts.Client(), BaseURL: ts.URL, MaxResults: 1}
	hits, err := p.Search(context.Background(), "q")
	require.NoError(t, err)
	assert.Len(t, hits, 1)
}

func TestSearXNGNoBaseURL(t *testing.T) {
	_, err := (&SearXNGProvider{}).Search(context.Background(), "q")
	assert.Equal(t, KindUnavailable, KindOf(err))
}

// --- Brave ---

const sampleBraveJSON = `{
  "type": "search",
  "web": {
    "results": [
      {"title": "Robotics spending", "url": "https://www.reuters.com/tech/robots", "description": "Spending reached $4.1 billion"},
      {"title": "Guide", "url": "https://spectrum.ieee.org/home-robots", "description": "How to evaluate"}
    ]
  }
}`

func TestBraveSearch(t *testing.T) {
	ts := jsonServer(t, http.StatusOK, sampleBraveJSON, func(r *http.Request) {
		assert.Equal(t, "secret-token", r.Header.Get("X-Subscription-Token"))
		assert.Equal(t, "robots", r.URL.Query().Get("q"))
		assert.Equal(t, "5", r.URL.Query().Get("count"))
	})
	old := braveSearchBase
	braveSearchBase = ts.URL
	defer func() { braveSearchBase = old }()

	p := &BraveProvider{Client: ts.Client(), APIKey: "secret-token", MaxResults: 5}
	hits, err := p.Search(context.Background(), "robots")
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "Spending reached $4.1 billion", hits[0].Snippet)
	assert.Equal(t, "https://spectrum.ieee.org/home-robots", hits[1].URL)
}

func TestBraveRequiresKey(t *testing.T) {
	_, err := (&BraveProvider{}).Search(context.Background(), "q")
	assert.Equal(t, KindUnavailable, KindOf(err))
}

// --- OpenAlex ---

const sampleOpenAlexJSON = `{
  "meta": {"count": 3, "per_page": 10, "page": 1},
  "results": [
    {
      "id": "https://openalex.org/W1",
      "title": "Assistive robots in home care",
      "doi": "https://doi.org/10.1000/robots.1",
      "publication_year": 2023,
      "abstract_inverted_index": {"We": [0], "survey": [1], "assistive": [2], "robots": [3]},
      "primary_location": {"landing_page_url": "https://www.nature.com/articles/robots1"}
    },
    {
      "id": "https://openalex.org/W2",
      "title": "Robot adoption",
      "doi": "10.1000/robots.2",
      "publication_year": 2022,
      "abstract_inverted_index": null,
      "primary_location": null
    },
    {
      "id": "https://openalex.org/W3",
      "title": "Untitled record",
      "doi": "",
      "publication_year": 0
    }
  ]
}`

func TestOpenAlexSearch(t *testing.T) {
	ts := jsonServer(t, http.StatusOK, sampleOpenAlexJSON, func(r *http.Request) {
		assert.Equal(t, "robots", r.URL.Query().Get("search"))
		assert.Equal(t, "me@example.com", r.URL.Query().Get("mailto"))
		assert.Equal(t, "10", r.URL.Query().Get("per_page"))
	})
	old := openAlexSearchBase
	openAlexSearchBase = ts.URL
	defer func() { openAlexSearchBase = old }()

	p := &OpenAlexProvider{Client: ts.Client(), Email: "me@example.com"}
	hits, err := p.Search(context.Background(), "robots")
	require.NoError(t, err)
	require.Len(t, hits, 3)

	assert.Equal(t, "https://www.nature.com/articles/robots1", hits[0].URL, "landing page preferred")
	assert.Equal(t, "We survey assistive robots", hits[0].Snippet)
	assert.Equal(t, "https://doi.org/10.1000/robots.2", hits[1].URL, "bare DOI expanded")
	assert.Equal(t, "Published 2022.", hits[1].Snippet)
	assert.Equal(t, "https://openalex.org/W3", hits[2].URL)
}

func TestReconstructAbstract(t *testing.T) {
	tests := []struct {
		name  string
		index map[string][]int
		want  string
	}{
		{"nil map", nil, ""},
		{"single word", map[string][]int{"hello": {0}}, "hello"},
		{"repeated word", map[string][]int{"the": {0, 4}, "cat": {1}, "sat": {2}, "on": {3}, "mat": {5}}, "the cat sat on the mat"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, reconstructAbstract(tt.index))
		})
	}
}

// --- status and decode classification, shared by all providers ---

func TestProviderErrorKinds(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   Kind
	}{
		{"rate limited", http.StatusTooManyRequests, `{}`, KindRateLimited},
		{"server error", http.StatusInternalServerError, `{}`, KindUnavailable},
		{"bad gateway", http.StatusBadGateway, `{}`, KindUnavailable},
		{"gateway timeout", http.StatusGatewayTimeout, `{}`, KindTimeout},
		{"forbidden", http.StatusForbidden, `{}`, KindUnavailable},
		{"bad json", http.StatusOK, `{"results": [`, KindMalformed},
		{"wrong shape", http.StatusOK, `{"results": "nope", "web": 3}`, KindMalformed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := jsonServer(t, tt.status, tt.body, nil)

			oldBrave, oldOA := braveSearchBase, openAlexSearchBase
			braveSearchBase, openAlexSearchBase = ts.URL, ts.URL
			defer func() { braveSearchBase, openAlexSearchBase = oldBrave, oldOA }()

			providers := []Provider{
				&SearXNGProvider{Client: ts.Client(), BaseURL: ts.URL},
				&BraveProvider{Client: ts.Client(), APIKey: "k"},
				&OpenAlexProvider{Client: ts.Client()},
			}
			for _, p := range providers {
				_, err := p.Search(context.Background(), "q")
				require.Error(t, err, p.Name())
				assert.Equal(t, tt.want, KindOf(err), "%s: %v", p.Name(), err)
			}
		})
	}
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abc...", truncate("abcdef", 3))
	got := truncate("héllo wörld", 2)
	assert.True(t, strings.HasSuffix(got, "..."))
	assert.Equal(t, "h...", got, "cut must not split a multi-byte rune")
}
