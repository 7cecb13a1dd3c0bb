// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package authority

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/research-pipeline/pkg/types"
)

func TestDomain(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"https://www.Reuters.com/markets/x", "reuters.com"},
		{"http://example.org:8080/a?b=c", "example.org"},
		{"who.int/news", "who.int"},
		{"https://sub.example.com./", "sub.example.com"},
		{"", ""},
		{"   ", ""},
		{"http://[::1]:80/", "::1"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Domain(tt.in))
		})
	}
}

func TestScoreByClass(t *testing.T) {
	s := Default()
	tests := []struct {
		url   string
		class string
		tier  types.Tier
		min   float64
		max   float64
	}{
		{"https://www.cdc.gov/data", "government", types.TierPrimary, 0.90, 0.99},
		{"https://dot.state.ny.gov/", "government", types.TierPrimary, 0.90, 0.99},
		{"https://www.who.int/publications", "government", types.TierPrimary, 0.90, 0.99},
		{"https://cs.stanford.edu/paper", "academic", types.TierPrimary, 0.85, 0.92},
		{"https://pubmed.ncbi.nlm.nih.gov/123", "academic", types.TierPrimary, 0.85, 0.92},
		{"https://www.nature.com/articles/x", "academic", types.TierPrimary, 0.85, 0.92},
		{"https://www.reuters.com/tech", "news", types.TierSecondary, 0.70, 0.80},
		{"https://spectrum.ieee.org/robots", "trade", types.TierSecondary, 0.55, 0.65},
		{"https://www.statista.com/stat/1", "trade", types.TierSecondary, 0.55, 0.65},
		{"https://old.reddit.com/r/robotics", "forum", types.TierWeak, 0.35, 0.45},
		{"https://someone.blogspot.com/post", "forum", types.TierWeak, 0.35, 0.45},
		{"https://unknown-vendor.io/blog", "unclassified", types.TierSecondary, 0.50, 0.50},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			got := s.Score(tt.url)
			assert.Equal(t, tt.class, got.Class)
			assert.Equal(t, tt.tier, got.Tier)
			assert.GreaterOrEqual(t, got.Authority, tt.min)
			assert.LessOrEqual(t, got.Authority, tt.max)
		})
	}
}

func TestScoreDeterministic(t *testing.T) {
	s := Default()
	for _, u := range []string{"https://www.bls.gov/x", "https://a.b.c.example", "not a url", ""} {
		first := s.Score(u)
		for i := 0; i < 5; i++ {
			assert.Equal(t, first, s.Score(u), "score of %q changed between calls", u)
		}
		assert.Equal(t, first, Default().Score(u), "separate scorers disagree on %q", u)
	}
}

func TestScoreSameDomainSameScore(t *testing.T) {
	s := Default()
	a := s.Score("https://www.nih.gov/news/1")
	b := s.Score("http://nih.gov:443/other/page?q=2")
	assert.Equal(t, a.Authority, b.Authority)
	assert.Equal(t, a.Tier, b.Tier)
}

func TestScoreTotal(t *testing.T) {
	s := Default()
	for _, u := range []string{"", "::::", "http://", "http://127.0.0.1/x", "mailto:a@b"} {
		got := s.Score(u)
		assert.Equal(t, 0.50, got.Authority, "input %q", u)
		assert.Equal(t, types.TierSecondary, got.Tier, "input %q", u)
	}
}

func TestDomainEntryBeatsSuffix(t *testing.T) {
	// nih.gov matches both the ".gov" suffix and its own domain entry.
	got := Default().ScoreDomain("nih.gov")
	assert.Equal(t, "domain:nih.gov", got.Rule)
	assert.Equal(t, 0.96, got.Authority)
}

func TestLongestDomainWins(t *testing.T) {
	got := Default().ScoreDomain("spectrum.ieee.org")
	assert.Equal(t, "trade", got.Class)

	got = Default().ScoreDomain("ieeexplore.ieee.org")
	assert.Equal(t, "academic", got.Class)
}

func TestSubdomainBoundary(t *testing.T) {
	// "notreuters.com" must not match the reuters.com entry.
	got := Default().ScoreDomain("notreuters.com")
	assert.Equal(t, "unclassified", got.Class)
}

func TestClassScoreFallback(t *testing.T) {
	tbl := Table{
		Default: DefaultRule{Class: "unclassified", Tier: types.TierSecondary, Score: 0.5},
		Classes: []Class{{
			Name: "news", Tier: types.TierSecondary, Score: 0.72,
			Domains: []DomainEntry{{Domain: "example-news.com"}},
		}},
	}
	s, err := New(tbl)
	require.NoError(t, err)
	assert.Equal(t, 0.72, s.ScoreDomain("example-news.com").Authority)
}

func TestValidate(t *testing.T) {
	base := func() Table {
		return Table{
			Default: DefaultRule{Class: "unclassified", Tier: types.TierSecondary, Score: 0.5},
			Classes: []Class{{Name: "gov", Tier: types.TierPrimary, Score: 0.9, Suffixes: []string{".gov"}}},
		}
	}
	tests := []struct {
		name   string
		mutate func(*Table)
	}{
		{"default score above one", func(t *Table) { t.Default.Score = 1.2 }},
		{"default tier unknown", func(t *Table) { t.Default.Tier = "gold" }},
		{"class without name", func(t *Table) { t.Classes[0].Name = "" }},
		{"class tier unknown", func(t *Table) { t.Classes[0].Tier = "" }},
		{"class score negative", func(t *Table) { t.Classes[0].Score = -0.1 }},
		{"empty domain entry", func(t *Table) { t.Classes[0].Domains = []DomainEntry{{Domain: " "}} }},
		{"domain score out of range", func(t *Table) {
			t.Classes[0].Domains = []DomainEntry{{Domain: "x.gov", Score: 2}}
		}},
	}

	require.NoError(t, base().Validate())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tbl := base()
			tt.mutate(&tbl)
			_, err := New(tbl)
			assert.Error(t, err)
		})
	}
}

func TestLoadTable(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "table.yaml")
	data := `
default: {class: other, tier: weak, score: 0.3}
classes:
  - name: vendor
    tier: primary
    score: 0.91
    domains:
      - {domain: acme.example}
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	tbl, err := LoadTable(path)
	require.NoError(t, err)
	s, err := New(tbl)
	require.NoError(t, err)

	assert.Equal(t, types.TierPrimary, s.Score("https://docs.acme.example/x").Tier)
	assert.Equal(t, "other", s.Score("https://elsewhere.example").Class)
	assert.Equal(t, types.TierWeak, s.Score("https://elsewhere.example").Tier)
}

func TestLoadTableErrors(t *testing.T) {
	_, err := LoadTable(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("classes: [unclosed"), 0o644))
	_, err = LoadTable(path)
	assert.Error(t, err)
}

func TestDefaultTableWithinDocumentedRanges(t *testing.T) {
	ranges := map[string][2]float64{
		"government": {0.90, 0.99},
		"academic":   {0.85, 0.92},
		"news":       {0.70, 0.80},
		"trade":      {0.55, 0.65},
		"forum":      {0.35, 0.45},
	}
	for _, c := range DefaultTable().Classes {
		r, ok := ranges[c.Name]
		require.True(t, ok, "unexpected class %s", c.Name)
		for _, d := range c.Domains {
			score := d.Score
			if score == 0 {
				score = c.Score
			}
			assert.GreaterOrEqual(t, score, r[0], "%s/%s", c.Name, d.Domain)
			assert.LessOrEqual(t, score, r[1], "%s/%s", c.Name, d.Domain)
		}
	}
}
