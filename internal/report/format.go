// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package report renders, saves and loads research reports and computes
// the evidence digest.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/research-pipeline/pkg/types"
)

// Output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Styles colors the text rendering. The zero value renders plain text.
type Styles struct {
	Heading   lipgloss.Style
	Muted     lipgloss.Style
	High      lipgloss.Style
	Medium    lipgloss.Style
	Low       lipgloss.Style
	Warning   lipgloss.Style
	initiated bool
}

// PlainStyles renders without escape sequences.
func PlainStyles() Styles {
	s := lipgloss.NewStyle()
	return Styles{Heading: s, Muted: s, High: s, Medium: s, Low: s, Warning: s, initiated: true}
}

// ColorStyles is the terminal palette.
func ColorStyles() Styles {
	return Styles{
		Heading:   lipgloss.NewStyle().Bold(true),
		Muted:     lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
		High:      lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true),
		Medium:    lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
		Low:       lipgloss.NewStyle().Foreground(lipgloss.Color("9")),
		Warning:   lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true),
		initiated: true,
	}
}

// Write renders r to w in format: text, json or yaml.
func Write(w io.Writer, r types.ResearchReport, format string, st Styles) error {
	switch strings.ToLower(format) {
	case "", FormatText:
		Text(w, r, st)
		return nil
	case FormatJSON:
		return JSON(w, r)
	case FormatYAML:
		return YAML(w, r)
	default:
		return fmt.Errorf("unknown format %q (want text, json or yaml)", format)
	}
}

// JSON writes r as indented JSON.
func JSON(w io.Writer, r types.ResearchReport) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

// YAML writes r as YAML.
func YAML(w io.Writer, r types.ResearchReport) error {
	enc := yaml.NewEncoder(w)
	defer enc.Close()
	return enc.Encode(r)
}

// ConfidenceMarker labels a confidence value. Zero is "unrated": degraded
// findings never claim a confidence.
func ConfidenceMarker(c float64) string {
	switch {
	case c <= 0:
		return "unrated"
	case c >= 0.8:
		return "high"
	case c >= 0.5:
		return "medium"
	default:
		return "low"
	}
}

// Text writes the human-readable rendering: findings with confidence
// markers, then open gaps, then sources grouped by tier.
func Text(w io.Writer, r types.ResearchReport, st Styles) {
	if !st.initiated {
		st = PlainStyles()
	}

	fmt.Fprintf(w, "%s %s\n", st.Heading.Render("Research:"), r.Query)
	fmt.Fprintln(w, st.Muted.Render(fmt.Sprintf("profile %s | state %s | rounds %d | queries %d | sources %d | %s",
		r.DepthProfile.Name, r.State, r.RoundsUsed, len(r.Queries), r.SourcesByTier.Total(),
		(time.Duration(r.ElapsedMS)*time.Millisecond).String())))
	if r.Degraded {
		reason := r.DegradedReason
		if reason == "" {
			reason = "reduced fidelity"
		}
		fmt.Fprintln(w, st.Warning.Render("degraded: "+reason))
	}

	fmt.Fprintf(w, "\n%s\n", st.Heading.Render("Findings"))
	if len(r.Findings) == 0 {
		fmt.Fprintln(w, "  (none)")
	}
	for i, f := range r.Findings {
		marker := ConfidenceMarker(f.Confidence)
		label := marker
		if f.Confidence > 0 {
			label = fmt.Sprintf("%s %.2f", marker, f.Confidence)
		}
		fmt.Fprintf(w, "  %d. [%s] %s\n", i+1, st.marker(marker).Render(label), f.Text)
		if len(f.SupportingSources) > 0 {
			fmt.Fprintf(w, "     %s\n", st.Muted.Render("sources: "+strings.Join(f.SupportingSources, ", ")))
		}
	}

	fmt.Fprintf(w, "\n%s\n", st.Heading.Render("Open gaps"))
	if len(r.Gaps) == 0 {
		fmt.Fprintln(w, "  (none)")
	}
	for _, g := range r.Gaps {
		fmt.Fprintf(w, "  - [%s] %s\n", g.Kind, g.Description)
		if g.SuggestedQuery != "" {
			fmt.Fprintf(w, "    %s\n", st.Muted.Render("follow-up: "+g.SuggestedQuery))
		}
	}

	fmt.Fprintf(w, "\n%s\n", st.Heading.Render("Sources"))
	tiers := []struct {
		name    string
		sources []types.ScoredSource
	}{
		{"Primary", r.SourcesByTier.Primary},
		{"Secondary", r.SourcesByTier.Secondary},
		{"Weak", r.SourcesByTier.Weak},
	}
	for _, tier := range tiers {
		fmt.Fprintf(w, "  %s (%d)\n", tier.name, len(tier.sources))
		for _, s := range tier.sources {
			fmt.Fprintf(w, "    %.2f  %s  %s\n", s.Authority, s.URL, st.Muted.Render(clip(s.Title(), 60)))
		}
	}

	if len(r.Errors) > 0 {
		fmt.Fprintf(w, "\n%s\n", st.Heading.Render("Errors"))
		for _, e := range r.Errors {
			fmt.Fprintf(w, "  - %s\n", e)
		}
	}
	if r.EvidenceDigest != "" {
		fmt.Fprintf(w, "\n%s\n", st.Muted.Render("evidence digest "+r.EvidenceDigest))
	}
}

func (st Styles) marker(m string) lipgloss.Style {
	switch m {
	case "high":
		return st.High
	case "medium":
		return st.Medium
	case "low":
		return st.Low
	default:
		return st.Muted
	}
}

func clip(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
