// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/pdiddy/research-pipeline/pkg/types"
)

// SearXNGProvider queries a SearXNG instance through its JSON API. The
// instance must have the json output format enabled.
type SearXNGProvider struct {
	Client     *http.Client
	BaseURL    string
	UserAgent  string
	MaxResults int
}

// Name returns the provider identifier.
func (p *SearXNGProvider) Name() string { return "searxng" }

// Search runs query against the instance's /search endpoint.
func (p *SearXNGProvider) Search(ctx context.Context, query string) ([]types.RawHit, error) {
	if p.BaseURL == "" {
		return nil, &Error{Kind: KindUnavailable, Provider: p.Name(), Err: fmt.Errorf("no base URL configured")}
	}

	params := url.Values{
		"q":      {query},
		"format": {"json"},
	}
	reqURL := strings.TrimRight(p.BaseURL, "/") + "/search?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if p.UserAgent != "" {
		req.Header.Set("User-Agent", p.UserAgent)
	}

	resp, err := httpClient(p.Client).Do(req)
	if err != nil {
		return nil, fmt.Errorf("SearXNG request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, statusError(p.Name(), resp.StatusCode)
	}

	var sr searxngResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, malformed(p.Name(), fmt.Errorf("parsing SearXNG response: %w", err))
	}

	var hits []types.RawHit
	for _, r := range sr.Results {
		if r.URL == "" {
			continue
		}
		hits = append(hits, types.RawHit{Title: r.Title, URL: r.URL, Snippet: r.Content})
		if p.MaxResults > 0 && len(hits) >= p.MaxResults {
			break
		}
	}
	return hits, nil
}

// SearXNG JSON structures.
type searxngResponse struct {
	Query   string          `json:"query"`
	Results []searxngResult `json:"results"`
}

type searxngResult struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Content string `json:"content"`
	Engine  string `json:"engine"`
}

func httpClient(c *http.Client) *http.Client {
	if c == nil {
		return http.DefaultClient
	}
	return c
}
