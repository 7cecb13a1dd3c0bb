// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/research-pipeline/pkg/types"
)

// FormatForPath picks the file format from the extension: .json, .yaml or
// .yml, and text for anything else (.md, .txt).
func FormatForPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatText
	}
}

// WriteFile saves r to path in the format its extension selects. A report
// saved as JSON or YAML can be loaded again with ReadFile.
func WriteFile(path string, r types.ResearchReport) error {
	var buf bytes.Buffer
	if err := Write(&buf, r, FormatForPath(path), PlainStyles()); err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating report directory: %w", err)
		}
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("writing report file: %w", err)
	}
	return nil
}

// ReadFile loads a report saved as JSON or YAML.
func ReadFile(path string) (types.ResearchReport, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return types.ResearchReport{}, fmt.Errorf("reading report file: %w", err)
	}

	var r types.ResearchReport
	switch FormatForPath(path) {
	case FormatJSON:
		err = json.Unmarshal(data, &r)
	case FormatYAML:
		err = yaml.Unmarshal(data, &r)
	default:
		return types.ResearchReport{}, fmt.Errorf("cannot load %s: only .json and .yaml reports can be read back", path)
	}
	if err != nil {
		return types.ResearchReport{}, fmt.Errorf("parsing report file: %w", err)
	}
	return r, nil
}
