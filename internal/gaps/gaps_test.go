// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package gaps

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/research-pipeline/internal/aggregate"
	"github.com/pdiddy/research-pipeline/pkg/types"
)

const question = "What is the current market size for home-health robotics?"

func profile(name string) types.DepthProfile {
	return types.DefaultProfiles()[name]
}

func evidence(hits ...types.RawHit) *aggregate.Evidence {
	ev := aggregate.New(nil)
	ev.Add(hits...)
	return ev
}

func hit(url, snippet string) types.RawHit {
	return types.RawHit{Title: "t", URL: url, Snippet: snippet, QueryRef: "q"}
}

func kinds(gs []types.Gap) []types.GapKind {
	out := make([]types.GapKind, len(gs))
	for i, g := range gs {
		out[i] = g.Kind
	}
	return out
}

func TestAnalyzeSkippedForSingleRoundProfile(t *testing.T) {
	in := Input{
		Question:         question,
		Evidence:         evidence(hit("https://reddit.com/r/a", "maybe")),
		Profile:          profile(types.ProfileQuick),
		RoundsUsed:       1,
		QueriesRemaining: 5,
	}
	assert.Nil(t, Analyze(in))
	assert.NotEmpty(t, Residual(in), "residual gaps are still reported")
}

func TestAnalyzeNoPrimarySources(t *testing.T) {
	gs := Analyze(Input{
		Question:         question,
		Evidence:         evidence(hit("https://www.therobotreport.com/a", "growing"), hit("https://reddit.com/r/b", "cool")),
		Profile:          profile(types.ProfileStandard),
		RoundsUsed:       1,
		QueriesRemaining: 6,
	})
	require.Len(t, gs, 1)
	assert.Equal(t, types.GapAuthority, gs[0].Kind)
	assert.Equal(t, "current market size home-health robotics official report research study", gs[0].SuggestedQuery)
	assert.Contains(t, gs[0].Description, "only 0 primary")
}

func TestAnalyzeEnoughPrimary(t *testing.T) {
	gs := Analyze(Input{
		Question:         question,
		Evidence:         evidence(hit("https://www.census.gov/a", "x"), hit("https://www.nih.gov/b", "y")),
		Profile:          profile(types.ProfileStandard),
		RoundsUsed:       1,
		QueriesRemaining: 6,
	})
	assert.Empty(t, gs)
}

func TestAnalyzeNoRoundOrBudgetLeft(t *testing.T) {
	base := Input{
		Question:         question,
		Evidence:         evidence(),
		Profile:          profile(types.ProfileStandard),
		RoundsUsed:       1,
		QueriesRemaining: 3,
	}
	require.NotEmpty(t, Analyze(base))

	noRound := base
	noRound.RoundsUsed = 2
	assert.Nil(t, Analyze(noRound))

	noBudget := base
	noBudget.QueriesRemaining = 0
	assert.Nil(t, Analyze(noBudget))
}

func TestAnalyzeBoundedByBudget(t *testing.T) {
	in := Input{
		Question: question,
		Evidence: evidence(hit("https://reddit.com/r/a", "the market hit $4.2 billion")),
		Outcomes: []types.QueryOutcome{
			{Query: types.Query{Text: `"home-health" robotics`, Intent: types.IntentSpecific}},
		},
		Profile:          profile(types.ProfileStandard),
		RoundsUsed:       1,
		QueriesRemaining: 2,
	}
	assert.Equal(t, []types.GapKind{types.GapAuthority, types.GapCoverage, types.GapCorroboration}, kinds(Detect(in)))

	gs := Analyze(in)
	assert.Equal(t, []types.GapKind{types.GapAuthority, types.GapCoverage}, kinds(gs))
}

func TestAnalyzeSkipsIssuedQueries(t *testing.T) {
	in := Input{
		Question: question,
		Evidence: evidence(),
		Outcomes: []types.QueryOutcome{
			{Query: types.Query{Text: "current market size home-health robotics official report research study"}, Hits: 0},
		},
		Profile:          profile(types.ProfileStandard),
		RoundsUsed:       1,
		QueriesRemaining: 3,
	}
	assert.Empty(t, Analyze(in))
	assert.Len(t, Residual(in), 1)
}

func TestCoverageGap(t *testing.T) {
	specific := types.Query{Text: `"home-health" current market size robotics`, Intent: types.IntentSpecific}
	relaxed := types.Query{Text: "home-health current market size robotics", Intent: types.IntentGap, Round: 1}

	tests := []struct {
		name     string
		outcomes []types.QueryOutcome
		want     bool
	}{
		{"zero hits", []types.QueryOutcome{{Query: specific}}, true},
		{"had hits", []types.QueryOutcome{{Query: specific, Hits: 3}}, false},
		{"failed call", []types.QueryOutcome{{Query: specific, Error: "timeout"}}, false},
		{"landscape with zero hits", []types.QueryOutcome{{Query: types.Query{Text: "x y", Intent: types.IntentLandscape}}}, false},
		{"relaxed query filled it", []types.QueryOutcome{{Query: specific}, {Query: relaxed, Hits: 4}}, false},
		{"relaxed query also empty", []types.QueryOutcome{{Query: specific}, {Query: relaxed}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, ok := coverageGap(Input{Outcomes: tt.outcomes})
			assert.Equal(t, tt.want, ok)
			if ok {
				assert.Equal(t, types.GapCoverage, g.Kind)
				assert.Equal(t, relaxed.Text, g.SuggestedQuery)
			}
		})
	}
}

func TestCorroborationGap(t *testing.T) {
	t.Run("single source figure", func(t *testing.T) {
		ev := evidence(
			hit("https://www.census.gov/a", "The market reached $4.2 billion in 2023."),
			hit("https://reddit.com/r/b", "I read it grows 30% a year"),
		)
		g, ok := corroborationGap(Input{Evidence: ev}, "home-health robotics")
		require.True(t, ok)
		assert.Equal(t, `"$4.2 billion" home-health robotics`, g.SuggestedQuery)
		assert.Contains(t, g.Description, "https://census.gov/a")
	})

	t.Run("corroborated figure", func(t *testing.T) {
		ev := evidence(
			hit("https://www.census.gov/a", "The market reached $4.2 billion."),
			hit("https://www.reuters.com/b", "Analysts put it at $4.2 Billion"),
		)
		_, ok := corroborationGap(Input{Evidence: ev}, "robotics")
		assert.False(t, ok)
	})

	t.Run("no figures", func(t *testing.T) {
		_, ok := corroborationGap(Input{Evidence: evidence(hit("https://a.com", "no numbers here, just 2023"))}, "x")
		assert.False(t, ok)
	})
}

func TestClaims(t *testing.T) {
	tests := []struct {
		text string
		want []string
	}{
		{"grew 12% in 2023", []string{"12%"}},
		{"about 22 percent of adults", []string{"22 percent"}},
		{"$4.2B market, $4.2B again", []string{"$4.2B"}},
		{"$1,200 per unit and 3.5 million units", []string{"$1,200", "3.5 million"}},
		{"$5 by 2030", []string{"$5"}},
		{"released in 2019 with 3 models", nil},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, Claims(tt.text))
		})
	}
}

func TestRelax(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{`"home-health" robotics`, "home-health robotics"},
		{`"socially assistive robots" adoption`, "socially assistive robots adoption"},
		{"toyota elder care robots", "toyota elder care"},
		{"toyota", ""},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Relax(tt.in), tt.in)
	}
}

func TestDetectDeterministic(t *testing.T) {
	in := Input{
		Question: question,
		Evidence: evidence(
			hit("https://reddit.com/r/a", "8% growth"),
			hit("https://www.therobotreport.com/b", "$3 billion"),
		),
		Profile:          profile(types.ProfileStandard),
		RoundsUsed:       1,
		QueriesRemaining: 4,
	}
	first := Analyze(in)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, Analyze(in))
	}
}
