// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package knowledge

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/research-pipeline/pkg/types"
)

const exportLimit = 100000

// ExportYAML writes matching notes to knowledge/index/export.yaml in the
// notes file layout, so the export can be ingested again. It returns the
// path written.
func (s *Store) ExportYAML(ctx context.Context, opts QueryOptions) (string, error) {
	nf, err := s.exportNotes(ctx, opts)
	if err != nil {
		return "", err
	}
	data, err := yaml.Marshal(nf)
	if err != nil {
		return "", fmt.Errorf("marshaling YAML: %w", err)
	}
	return s.writeExport("export.yaml", data)
}

// ExportJSON writes matching notes to knowledge/index/export.json.
func (s *Store) ExportJSON(ctx context.Context, opts QueryOptions) (string, error) {
	nf, err := s.exportNotes(ctx, opts)
	if err != nil {
		return "", err
	}
	data, err := json.MarshalIndent(nf, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshaling JSON: %w", err)
	}
	return s.writeExport("export.json", data)
}

func (s *Store) writeExport(name string, data []byte) (string, error) {
	path := filepath.Join(s.knowledgeDir, indexDir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing %s: %w", path, err)
	}
	return path, nil
}

func (s *Store) exportNotes(ctx context.Context, opts QueryOptions) (types.NoteFile, error) {
	if opts.MaxResults <= 0 {
		opts.MaxResults = exportLimit
	}
	results, err := s.Retrieve(ctx, opts)
	if err != nil {
		return types.NoteFile{}, fmt.Errorf("querying for export: %w", err)
	}
	nf := types.NoteFile{Notes: make([]types.Note, len(results))}
	for i, r := range results {
		nf.Notes[i] = r.Note
	}
	return nf, nil
}
