// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads API keys and credentials from a directory of plain-text files.
// Each file in the directory represents one secret: the filename is the key name and the
// file contents (trimmed) are the value.
package secrets

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/pdiddy/research-pipeline/pkg/types"
)

// Key file names understood by Apply.
const (
	BraveAPIKey     = "brave-api-key"
	AnthropicAPIKey = "anthropic-api-key"
	GeminiAPIKey    = "gemini-api-key"
	OpenAlexEmail   = "openalex-email"
)

// Load reads all files in dir and returns a map of filename to trimmed contents.
// A missing directory or missing files are not errors; Load returns an empty map.
// Unreadable files are logged and skipped.
func Load(dir string, logger *zap.Logger) (map[string]string, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	secrets := make(map[string]string)
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			logger.Warn("could not read secret", zap.String("name", name), zap.Error(err))
			continue
		}

		if value := strings.TrimSpace(string(data)); value != "" {
			secrets[name] = value
		}
	}

	return secrets, nil
}

// Apply fills credentials missing from cfg. Values already set by the
// config file or environment win over secret files.
func Apply(cfg *types.PipelineConfig, secrets map[string]string) {
	if cfg.Search.APIKey == "" && cfg.Search.Provider == types.ProviderBrave {
		cfg.Search.APIKey = secrets[BraveAPIKey]
	}
	if cfg.Search.Email == "" {
		cfg.Search.Email = secrets[OpenAlexEmail]
	}
	if cfg.Synthesis.APIKey == "" {
		switch cfg.Synthesis.Generator {
		case types.GeneratorClaude:
			cfg.Synthesis.APIKey = secrets[AnthropicAPIKey]
		case types.GeneratorGemini:
			cfg.Synthesis.APIKey = secrets[GeminiAPIKey]
		}
	}
}
