// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package knowledge keeps short domain notes in a local SQLite database with
// FTS5 indexing and serves them as context hints for query decomposition.
// The store is an optional collaborator: research runs work without it.
package knowledge

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/research-pipeline/pkg/types"
)

const (
	notesDir = "notes"
	indexDir = "index"
	dbFile   = "knowledge.db"
)

// Store manages the knowledge base SQLite database.
type Store struct {
	db           *sql.DB
	knowledgeDir string
	maxResults   int
	logger       *zap.Logger
}

// NewStore opens or creates the database at knowledgeDir/index/knowledge.db
// and creates the schema if it does not exist.
func NewStore(cfg types.KnowledgeBaseConfig, logger *zap.Logger) (*Store, error) {
	dbDir := filepath.Join(cfg.KnowledgeDir, indexDir)
	if err := os.MkdirAll(dbDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating index directory: %w", err)
	}

	dbPath := filepath.Join(dbDir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 20
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Store{
		db:           db,
		knowledgeDir: cfg.KnowledgeDir,
		maxResults:   maxResults,
		logger:       logger,
	}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS notes (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			topic TEXT NOT NULL,
			content TEXT NOT NULL,
			tags TEXT,
			file TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_notes_file ON notes(file)`,
		`CREATE TABLE IF NOT EXISTS indexing_status (
			file TEXT PRIMARY KEY,
			file_mod_time TEXT
		)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}

	var ftsExists int
	if err := s.db.QueryRow(
		`SELECT count(*) FROM sqlite_master WHERE type='table' AND name='notes_fts'`,
	).Scan(&ftsExists); err != nil {
		return fmt.Errorf("checking FTS table: %w", err)
	}

	if ftsExists == 0 {
		ftsStatements := []string{
			`CREATE VIRTUAL TABLE notes_fts USING fts5(topic, content, content=notes, content_rowid=rowid)`,
			`CREATE TRIGGER notes_ai AFTER INSERT ON notes BEGIN
				INSERT INTO notes_fts(rowid, topic, content) VALUES (new.rowid, new.topic, new.content);
			END`,
			`CREATE TRIGGER notes_ad AFTER DELETE ON notes BEGIN
				INSERT INTO notes_fts(notes_fts, rowid, topic, content) VALUES('delete', old.rowid, old.topic, old.content);
			END`,
			`CREATE TRIGGER notes_au AFTER UPDATE ON notes BEGIN
				INSERT INTO notes_fts(notes_fts, rowid, topic, content) VALUES('delete', old.rowid, old.topic, old.content);
				INSERT INTO notes_fts(rowid, topic, content) VALUES (new.rowid, new.topic, new.content);
			END`,
		}
		for _, stmt := range ftsStatements {
			if _, err := s.db.Exec(stmt); err != nil {
				return fmt.Errorf("creating FTS infrastructure: %w", err)
			}
		}
	}

	return nil
}

// IngestSummary holds counts from one ingestion run.
type IngestSummary struct {
	Indexed int
	Updated int
	Skipped int
	Failed  int
	Notes   int
}

// Total returns the number of files processed.
func (s IngestSummary) Total() int {
	return s.Indexed + s.Updated + s.Skipped + s.Failed
}

// Ingest reads note files (*.yaml, *.yml) from knowledgeDir/notes/ and
// indexes them. Files whose modification time is unchanged since the last
// run are skipped; changed files replace their previous notes.
func (s *Store) Ingest(ctx context.Context, w io.Writer) (IngestSummary, error) {
	dir := filepath.Join(s.knowledgeDir, notesDir)

	entries, err := os.ReadDir(dir)
	if err != nil {
		return IngestSummary{}, fmt.Errorf("reading notes directory %s: %w", dir, err)
	}

	var summary IngestSummary

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !(strings.HasSuffix(name, ".yaml") || strings.HasSuffix(name, ".yml")) {
			continue
		}

		select {
		case <-ctx.Done():
			return summary, ctx.Err()
		default:
		}

		info, err := entry.Info()
		if err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", name, err)
			summary.Failed++
			continue
		}
		modTime := info.ModTime().UTC().Format(time.RFC3339Nano)

		var storedModTime string
		err = s.db.QueryRowContext(ctx,
			`SELECT file_mod_time FROM indexing_status WHERE file = ?`, name,
		).Scan(&storedModTime)

		if err == nil && storedModTime == modTime {
			fmt.Fprintf(w, "skipped %s\n", name)
			summary.Skipped++
			continue
		}
		isUpdate := err == nil

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", name, err)
			summary.Failed++
			continue
		}

		var nf types.NoteFile
		if err := yaml.Unmarshal(data, &nf); err != nil {
			fmt.Fprintf(w, "failed  %s: parse error: %v\n", name, err)
			summary.Failed++
			continue
		}
		notes := normalizeNotes(name, nf.Notes)

		if err := s.ingestFile(ctx, name, notes, modTime); err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", name, err)
			summary.Failed++
			continue
		}
		summary.Notes += len(notes)

		if isUpdate {
			fmt.Fprintf(w, "updated %s (%d notes)\n", name, len(notes))
			summary.Updated++
		} else {
			fmt.Fprintf(w, "indexing %s (%d notes)\n", name, len(notes))
			summary.Indexed++
		}
	}

	fmt.Fprintf(w, "\nindexed: %d, updated: %d, skipped: %d, failed: %d\n",
		summary.Indexed, summary.Updated, summary.Skipped, summary.Failed)
	s.logger.Info("knowledge ingest finished",
		zap.Int("indexed", summary.Indexed),
		zap.Int("updated", summary.Updated),
		zap.Int("skipped", summary.Skipped),
		zap.Int("failed", summary.Failed),
	)

	return summary, nil
}

// normalizeNotes drops empty notes, fills missing IDs from the file name
// and lowercases tags.
func normalizeNotes(file string, notes []types.Note) []types.Note {
	base := strings.TrimSuffix(strings.TrimSuffix(file, ".yaml"), ".yml")
	out := make([]types.Note, 0, len(notes))
	for i, n := range notes {
		n.Content = strings.TrimSpace(n.Content)
		n.Topic = strings.TrimSpace(n.Topic)
		if n.Content == "" {
			continue
		}
		if n.ID == "" {
			n.ID = fmt.Sprintf("%s-%d", base, i+1)
		}
		if n.Topic == "" {
			n.Topic = base
		}
		for j, tag := range n.Tags {
			n.Tags[j] = strings.ToLower(strings.TrimSpace(tag))
		}
		sort.Strings(n.Tags)
		out = append(out, n)
	}
	return out
}

func (s *Store) ingestFile(ctx context.Context, file string, notes []types.Note, modTime string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM notes WHERE file = ?`, file); err != nil {
		return fmt.Errorf("deleting old notes: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR REPLACE INTO notes (id, topic, content, tags, file) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, n := range notes {
		tagsJSON, _ := json.Marshal(n.Tags)
		if _, err := stmt.ExecContext(ctx, n.ID, n.Topic, n.Content, string(tagsJSON), file); err != nil {
			return fmt.Errorf("inserting note %s: %w", n.ID, err)
		}
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO indexing_status (file, file_mod_time) VALUES (?, ?)
		 ON CONFLICT(file) DO UPDATE SET file_mod_time=excluded.file_mod_time`,
		file, modTime,
	)
	if err != nil {
		return fmt.Errorf("updating indexing status: %w", err)
	}

	return tx.Commit()
}

// Count returns the number of indexed notes.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM notes`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting notes: %w", err)
	}
	return n, nil
}
