// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package synth

import (
	"context"
	"fmt"
	"net/http"

	"github.com/pdiddy/research-pipeline/pkg/types"
)

// NewGenerator builds the generator selected by cfg. GeneratorNone, or an
// empty selection, returns nil so every synthesis is degraded.
func NewGenerator(ctx context.Context, cfg types.SynthesisConfig, client *http.Client) (Generator, error) {
	switch cfg.Generator {
	case "", types.GeneratorNone:
		return nil, nil
	case types.GeneratorClaude:
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("claude generator requires an API key (.secrets/anthropic-api-key)")
		}
		return &ClaudeGenerator{APIKey: cfg.APIKey, Model: cfg.Model, MaxRetries: cfg.MaxRetries, Client: client}, nil
	case types.GeneratorGemini:
		g, err := NewGeminiGenerator(ctx, cfg.APIKey, cfg.Model, "")
		if err != nil {
			return nil, err
		}
		return g, nil
	default:
		return nil, fmt.Errorf("unknown generator %q (want none, claude or gemini)", cfg.Generator)
	}
}
