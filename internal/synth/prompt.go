// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package synth

import (
	"bytes"
	"fmt"
	"text/template"

	"github.com/pdiddy/research-pipeline/internal/aggregate"
	"github.com/pdiddy/research-pipeline/pkg/types"
)

// synthesisPromptTmpl is the prompt sent to the generator. Sources are
// listed strongest first with the exact URL the model must cite.
var synthesisPromptTmpl = template.Must(template.New("synthesis").Funcs(template.FuncMap{
	"inc": func(i int) int { return i + 1 },
}).Parse(`You are a research analyst. Answer the research question using only the numbered sources below.

Research question:
{{.Question}}

Write at most {{.MaxFindings}} findings. Each finding must:
- state one concrete, specific fact or conclusion drawn from the sources
- cite one or more sources by copying their URL exactly into "supporting_sources"
- use a short lowercase "category" label (e.g. "market-size", "adoption", "regulation")

Never cite a URL that is not listed below. Do not rate confidence; it is computed from the sources.
If the sources leave part of the question unanswered, add a "residual_gaps" entry with a description and a concrete follow-up search query.
{{if .Gaps}}
Known gaps in the evidence:
{{range .Gaps}}- {{.Description}} (follow-up: {{.SuggestedQuery}})
{{end}}{{end}}
Respond with a JSON object only, no text outside it:
{"findings": [{"text": "...", "supporting_sources": ["https://..."], "category": "..."}], "residual_gaps": [{"description": "...", "suggested_query": "..."}]}

Sources:
{{range $i, $s := .Sources}}[{{inc $i}}] {{$s.URL}}
    tier: {{$s.Tier}} (authority {{printf "%.2f" $s.Authority}})
    title: {{$s.Title}}
    snippet: {{$s.Snippet}}
{{end}}`))

type promptData struct {
	Question    string
	MaxFindings int
	Gaps        []types.Gap
	Sources     []types.ScoredSource
}

// RenderPrompt renders the synthesis prompt for req with at most
// maxSources sources, strongest first.
func RenderPrompt(req Request, maxFindings, maxSources int) (string, error) {
	sources := make([]types.ScoredSource, 0, len(req.Evidence))
	for _, src := range req.Evidence {
		sources = append(sources, src)
	}
	aggregate.SortSources(sources)
	if maxSources > 0 && len(sources) > maxSources {
		sources = sources[:maxSources]
	}

	var buf bytes.Buffer
	err := synthesisPromptTmpl.Execute(&buf, promptData{
		Question:    req.Question,
		MaxFindings: maxFindings,
		Gaps:        req.Gaps,
		Sources:     sources,
	})
	if err != nil {
		return "", fmt.Errorf("executing synthesis template: %w", err)
	}
	return buf.String(), nil
}
