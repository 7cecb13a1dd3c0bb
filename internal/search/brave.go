// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/pdiddy/research-pipeline/pkg/types"
)

// braveSearchBase is the Brave web search endpoint. Declared as a var so
// tests can substitute an httptest server.
var braveSearchBase = "https://api.search.brave.com/res/v1/web/search"

// braveMaxCount is the largest page size the API accepts.
const braveMaxCount = 20

// BraveProvider queries the Brave Search web API.
type BraveProvider struct {
	Client     *http.Client
	APIKey     string
	UserAgent  string
	MaxResults int
}

// Name returns the provider identifier.
func (p *BraveProvider) Name() string { return "brave" }

// Search queries the Brave web search API.
func (p *BraveProvider) Search(ctx context.Context, query string) ([]types.RawHit, error) {
	if p.APIKey == "" {
		return nil, &Error{Kind: KindUnavailable, Provider: p.Name(), Err: fmt.Errorf("no API key configured")}
	}

	count := p.MaxResults
	if count <= 0 || count > braveMaxCount {
		count = braveMaxCount
	}
	params := url.Values{
		"q":     {query},
		"count": {fmt.Sprintf("%d", count)},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, braveSearchBase+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Subscription-Token", p.APIKey)
	if p.UserAgent != "" {
		req.Header.Set("User-Agent", p.UserAgent)
	}

	resp, err := httpClient(p.Client).Do(req)
	if err != nil {
		return nil, fmt.Errorf("Brave API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, statusError(p.Name(), resp.StatusCode)
	}

	var br braveResponse
	if err := json.NewDecoder(resp.Body).Decode(&br); err != nil {
		return nil, malformed(p.Name(), fmt.Errorf("parsing Brave response: %w", err))
	}

	var hits []types.RawHit
	for _, r := range br.Web.Results {
		if r.URL == "" {
			continue
		}
		hits = append(hits, types.RawHit{Title: r.Title, URL: r.URL, Snippet: r.Description})
	}
	return hits, nil
}

// Brave API JSON structures.
type braveResponse struct {
	Type string   `json:"type"`
	Web  braveWeb `json:"web"`
}

type braveWeb struct {
	Results []braveResult `json:"results"`
}

type braveResult struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	Description string `json:"description"`
	Age         string `json:"age,omitempty"`
}
