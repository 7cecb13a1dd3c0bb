// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package knowledge

import (
	"context"
	"fmt"
	"strings"

	"github.com/pdiddy/research-pipeline/internal/decompose"
	"github.com/pdiddy/research-pipeline/internal/enrich"
)

// hintLength bounds the runes of one hint.
const hintLength = 200

// Enrich returns context hints for question: the best-ranked notes that
// share any keyword with it, rendered as "topic: content". A question with
// no keywords yields no hints.
func (s *Store) Enrich(ctx context.Context, question string) ([]string, error) {
	match := MatchAny(decompose.Keywords(question))
	if match == "" {
		return nil, nil
	}

	results, err := s.Retrieve(ctx, QueryOptions{Query: match, MaxResults: enrich.MaxHints})
	if err != nil {
		return nil, fmt.Errorf("enriching question: %w", err)
	}

	hints := make([]string, 0, len(results))
	for _, r := range results {
		hints = append(hints, clip(r.Topic+": "+r.Content, hintLength))
	}
	return hints, nil
}

// MatchAny builds an FTS5 expression matching any of terms. Each term is
// quoted so punctuation in it is never parsed as query syntax.
func MatchAny(terms []string) string {
	quoted := make([]string, 0, len(terms))
	for _, t := range terms {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		quoted = append(quoted, `"`+strings.ReplaceAll(t, `"`, `""`)+`"`)
	}
	return strings.Join(quoted, " OR ")
}

func clip(s string, max int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return strings.TrimSpace(string(r[:max-3])) + "..."
}
