// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package knowledge

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pdiddy/research-pipeline/pkg/types"
)

// QueryOptions holds parameters for knowledge base queries.
type QueryOptions struct {
	// Query is an FTS5 match expression.
	Query string

	// Tags filters by one or more tags with AND semantics.
	Tags []string

	// MaxResults limits result count. Zero uses the store default.
	MaxResults int
}

// IsEmpty reports whether the query has no search terms or filters.
func (q QueryOptions) IsEmpty() bool {
	return q.Query == "" && len(q.Tags) == 0
}

// QueryResult is a note with the file it came from.
type QueryResult struct {
	types.Note
	File string  `json:"file" yaml:"file"`
	Rank float64 `json:"rank" yaml:"rank"`
}

// Retrieve queries the knowledge base with optional full-text search and
// tag filters. Full-text results are ranked by bm25; filter-only results
// are ordered by file and id.
func (s *Store) Retrieve(ctx context.Context, opts QueryOptions) ([]QueryResult, error) {
	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = s.maxResults
	}

	var (
		qb     strings.Builder
		args   []any
		useFTS = opts.Query != ""
	)

	if useFTS {
		qb.WriteString(
			`SELECT n.id, n.topic, n.content, n.tags, n.file, notes_fts.rank
			FROM notes_fts
			JOIN notes n ON n.rowid = notes_fts.rowid
			WHERE notes_fts MATCH ?`)
		args = append(args, opts.Query)
	} else {
		qb.WriteString(
			`SELECT n.id, n.topic, n.content, n.tags, n.file, 0 AS rank
			FROM notes n
			WHERE 1=1`)
	}

	for _, tag := range opts.Tags {
		qb.WriteString(` AND EXISTS (SELECT 1 FROM json_each(n.tags) WHERE value = ?)`)
		args = append(args, strings.ToLower(tag))
	}

	if useFTS {
		qb.WriteString(` ORDER BY notes_fts.rank, n.id`)
	} else {
		qb.WriteString(` ORDER BY n.file, n.id`)
	}

	qb.WriteString(` LIMIT ?`)
	args = append(args, maxResults)

	rows, err := s.db.QueryContext(ctx, qb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("querying knowledge base: %w", err)
	}
	defer rows.Close()

	var results []QueryResult
	for rows.Next() {
		var (
			qr       QueryResult
			tagsJSON sql.NullString
		)
		if err := rows.Scan(&qr.ID, &qr.Topic, &qr.Content, &tagsJSON, &qr.File, &qr.Rank); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		if tagsJSON.Valid {
			json.Unmarshal([]byte(tagsJSON.String), &qr.Tags)
		}
		results = append(results, qr)
	}

	return results, rows.Err()
}
