// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/pdiddy/research-pipeline/pkg/types"
)

// openAlexSearchBase is the OpenAlex Works search endpoint. Declared as a
// var so tests can substitute an httptest server.
var openAlexSearchBase = "https://api.openalex.org/works"

// openAlexSnippetLen bounds the reconstructed abstract used as snippet.
const openAlexSnippetLen = 400

// OpenAlexProvider queries the OpenAlex scholarly works index. Hits point
// at the work's landing page or DOI so they score as academic sources.
type OpenAlexProvider struct {
	Client *http.Client
	// Email is sent as mailto parameter for polite pool access.
	Email      string
	UserAgent  string
	MaxResults int
}

// Name returns the provider identifier.
func (p *OpenAlexProvider) Name() string { return "openalex" }

// Search queries the OpenAlex API and returns one hit per work.
func (p *OpenAlexProvider) Search(ctx context.Context, query string) ([]types.RawHit, error) {
	perPage := p.MaxResults
	if perPage <= 0 {
		perPage = 10
	}
	if perPage > 200 {
		perPage = 200
	}

	params := url.Values{
		"search":   {query},
		"per_page": {fmt.Sprintf("%d", perPage)},
		"page":     {"1"},
	}
	if p.Email != "" {
		params.Set("mailto", p.Email)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, openAlexSearchBase+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if p.UserAgent != "" {
		req.Header.Set("User-Agent", p.UserAgent)
	}

	resp, err := httpClient(p.Client).Do(req)
	if err != nil {
		return nil, fmt.Errorf("OpenAlex API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, statusError(p.Name(), resp.StatusCode)
	}

	var oar openAlexResponse
	if err := json.NewDecoder(resp.Body).Decode(&oar); err != nil {
		return nil, malformed(p.Name(), fmt.Errorf("parsing OpenAlex response: %w", err))
	}

	var hits []types.RawHit
	for _, work := range oar.Results {
		link := workURL(work)
		if link == "" {
			continue
		}
		snippet := reconstructAbstract(work.AbstractInvertedIndex)
		if snippet == "" && work.PublicationYear > 0 {
			snippet = fmt.Sprintf("Published %d.", work.PublicationYear)
		}
		hits = append(hits, types.RawHit{
			Title:   work.Title,
			URL:     link,
			Snippet: truncate(snippet, openAlexSnippetLen),
		})
	}
	return hits, nil
}

// workURL picks the most citable link for a work: landing page, then DOI,
// then the OpenAlex record itself.
func workURL(w openAlexWork) string {
	if w.PrimaryLocation.LandingPageURL != "" {
		return w.PrimaryLocation.LandingPageURL
	}
	if w.DOI != "" {
		if strings.HasPrefix(w.DOI, "http") {
			return w.DOI
		}
		return "https://doi.org/" + w.DOI
	}
	return w.ID
}

// reconstructAbstract converts OpenAlex's abstract_inverted_index back to
// plain text. The inverted index maps each word to a list of positions
// where that word appears.
func reconstructAbstract(invertedIndex map[string][]int) string {
	if len(invertedIndex) == 0 {
		return ""
	}

	type posWord struct {
		pos  int
		word string
	}
	var pairs []posWord
	for word, positions := range invertedIndex {
		for _, pos := range positions {
			pairs = append(pairs, posWord{pos: pos, word: word})
		}
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].pos != pairs[j].pos {
			return pairs[i].pos < pairs[j].pos
		}
		return pairs[i].word < pairs[j].word
	})

	words := make([]string, len(pairs))
	for i, p := range pairs {
		words[i] = p.word
	}
	return strings.Join(words, " ")
}

// OpenAlex API JSON structures.
type openAlexResponse struct {
	Meta    openAlexMeta   `json:"meta"`
	Results []openAlexWork `json:"results"`
}

type openAlexMeta struct {
	Count   int `json:"count"`
	PerPage int `json:"per_page"`
	Page    int `json:"page"`
}

type openAlexWork struct {
	ID                    string           `json:"id"`
	Title                 string           `json:"title"`
	DOI                   string           `json:"doi"`
	PublicationYear       int              `json:"publication_year"`
	AbstractInvertedIndex map[string][]int `json:"abstract_inverted_index"`
	PrimaryLocation       openAlexLocation `json:"primary_location"`
}

type openAlexLocation struct {
	LandingPageURL string `json:"landing_page_url"`
	PDFURL         string `json:"pdf_url"`
}
