// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package gaps inspects aggregated evidence and decides which follow-up
// queries, if any, are worth a second search round. Each trigger yields at
// most one gap and every gap carries a concrete query.
package gaps

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/pdiddy/research-pipeline/internal/decompose"
	"github.com/pdiddy/research-pipeline/pkg/types"
)

// MinPrimary is the number of primary sources below which an authority gap
// is raised.
const MinPrimary = 2

// authoritySuffix steers the follow-up query toward official and research
// publishers.
const authoritySuffix = "official report research study"

// Evidence is the read view of the evidence set the analyzer needs.
type Evidence interface {
	CountTier(tier types.Tier) int
	Sources() []types.ScoredSource
}

// Input is everything one analysis looks at.
type Input struct {
	Question string
	Evidence Evidence

	// Outcomes are the queries issued so far with their hit counts.
	Outcomes []types.QueryOutcome

	Profile types.DepthProfile

	// RoundsUsed is the number of search rounds already completed.
	RoundsUsed int

	// QueriesRemaining is the query budget left for follow-up.
	QueriesRemaining int
}

// Analyze returns the gaps that justify a follow-up round: nil when the
// profile allows a single round, no round or query budget remains, or the
// evidence shows no deficiency. The result never exceeds QueriesRemaining
// and never repeats a query already issued.
func Analyze(in Input) []types.Gap {
	if in.Profile.MaxRounds <= 1 || in.RoundsUsed >= in.Profile.MaxRounds || in.QueriesRemaining <= 0 {
		return nil
	}

	issued := map[string]bool{}
	for _, o := range in.Outcomes {
		issued[strings.ToLower(o.Query.Text)] = true
	}

	var out []types.Gap
	for _, g := range Detect(in) {
		if issued[strings.ToLower(g.SuggestedQuery)] {
			continue
		}
		out = append(out, g)
		if len(out) == in.QueriesRemaining {
			break
		}
	}
	return out
}

// Residual returns the gaps still open in the final evidence, regardless of
// round or budget. It is what the report lists as unfilled.
func Residual(in Input) []types.Gap {
	return Detect(in)
}

// Detect runs every trigger against the evidence, in the order authority,
// coverage, corroboration.
func Detect(in Input) []types.Gap {
	core := decompose.Analyze(in.Question).Core()
	if core == "" {
		core = strings.TrimSpace(in.Question)
	}

	var out []types.Gap
	if g, ok := authorityGap(in, core); ok {
		out = append(out, g)
	}
	if g, ok := coverageGap(in); ok {
		out = append(out, g)
	}
	if g, ok := corroborationGap(in, core); ok {
		out = append(out, g)
	}
	return out
}

func authorityGap(in Input, core string) (types.Gap, bool) {
	if in.Evidence == nil || core == "" {
		return types.Gap{}, false
	}
	n := in.Evidence.CountTier(types.TierPrimary)
	if n >= MinPrimary {
		return types.Gap{}, false
	}
	return types.Gap{
		Kind:           types.GapAuthority,
		Description:    fmt.Sprintf("only %d primary source(s) found; at least %d are needed", n, MinPrimary),
		SuggestedQuery: core + " " + authoritySuffix,
	}, true
}

// coverageGap fires when a specific query succeeded with zero hits and its
// relaxed form has not yet produced any.
func coverageGap(in Input) (types.Gap, bool) {
	hits := map[string]int{}
	for _, o := range in.Outcomes {
		hits[strings.ToLower(o.Query.Text)] += o.Hits
	}
	for _, o := range in.Outcomes {
		if o.Query.Intent != types.IntentSpecific || o.Error != "" || o.Hits > 0 {
			continue
		}
		relaxed := Relax(o.Query.Text)
		if relaxed == "" || hits[strings.ToLower(relaxed)] > 0 {
			continue
		}
		return types.Gap{
			Kind:           types.GapCoverage,
			Description:    fmt.Sprintf("specific query %q returned no results", o.Query.Text),
			SuggestedQuery: relaxed,
		}, true
	}
	return types.Gap{}, false
}

// Relax broadens a query that found nothing: quoted phrases are unquoted,
// and an unquoted query drops its last term.
func Relax(text string) string {
	fields := strings.Fields(strings.ReplaceAll(text, `"`, " "))
	relaxed := strings.Join(fields, " ")
	if relaxed != strings.Join(strings.Fields(text), " ") {
		return relaxed
	}
	if len(fields) > 1 {
		return strings.Join(fields[:len(fields)-1], " ")
	}
	return ""
}

// claimPattern matches statistical figures: percentages, currency amounts
// and magnitudes such as "4.2 billion".
var claimPattern = regexp.MustCompile(
	`(?i)\$\s?\d[\d,]*(?:\.\d+)?(?:\s?(?:billion|million|trillion|thousand|bn|mn|[bmk])\b)?` +
		`|\d[\d,]*(?:\.\d+)?\s?(?:%|percent\b|billion\b|million\b|trillion\b)`)

// Claims returns the distinct statistical figures in text, in order.
func Claims(text string) []string {
	var out []string
	seen := map[string]bool{}
	for _, m := range claimPattern.FindAllString(text, -1) {
		m = strings.Join(strings.Fields(m), " ")
		key := claimKey(m)
		if !seen[key] {
			seen[key] = true
			out = append(out, m)
		}
	}
	return out
}

func claimKey(claim string) string {
	return strings.ToLower(strings.ReplaceAll(claim, " ", ""))
}

// corroborationGap fires on the first figure, strongest source first, that
// exactly one source states.
func corroborationGap(in Input, core string) (types.Gap, bool) {
	if in.Evidence == nil {
		return types.Gap{}, false
	}
	sources := in.Evidence.Sources()

	bySource := make([][]string, len(sources))
	count := map[string]int{}
	for i, src := range sources {
		var text strings.Builder
		for _, h := range src.Hits {
			text.WriteString(h.Title)
			text.WriteString(" ")
			text.WriteString(h.Snippet)
			text.WriteString(" ")
		}
		bySource[i] = Claims(text.String())
		for _, c := range bySource[i] {
			count[claimKey(c)]++
		}
	}

	for i, claims := range bySource {
		for _, c := range claims {
			if count[claimKey(c)] != 1 {
				continue
			}
			return types.Gap{
				Kind:           types.GapCorroboration,
				Description:    fmt.Sprintf("the figure %q appears only in %s", c, sources[i].URL),
				SuggestedQuery: strings.TrimSpace(`"` + c + `" ` + core),
			}, true
		}
	}
	return types.Gap{}, false
}
