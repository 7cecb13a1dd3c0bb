// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/research-pipeline/internal/knowledge"
	"github.com/pdiddy/research-pipeline/pkg/types"
)

var knowledgeCmd = &cobra.Command{
	Use:   "knowledge",
	Short: "Manage the knowledge base of domain notes (ingest, query, export)",
	Long: `Knowledge manages a local SQLite knowledge base built from YAML note files
in knowledge/notes/. Research runs use it for context hints when
knowledge_base.enabled is set or --knowledge is passed.`,
}

// --- ingest subcommand ---

var knowledgeIngestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Index note files into the knowledge base",
	Long: `Ingest reads *.yaml note files from knowledge/notes/ and indexes them into a
SQLite database with FTS5. Unchanged files are skipped on later runs;
changed files replace their previous notes.`,
	RunE: runKnowledgeIngest,
}

func runKnowledgeIngest(cmd *cobra.Command, args []string) error {
	store, err := knowledge.NewStore(knowledgeConfig(cmd), logger)
	if err != nil {
		return err
	}
	defer store.Close()

	summary, err := store.Ingest(cmd.Context(), cmd.OutOrStdout())
	if err != nil {
		return err
	}
	if summary.Failed > 0 {
		return fmt.Errorf("%d file(s) failed indexing", summary.Failed)
	}
	return nil
}

// --- query subcommand ---

var knowledgeQueryCmd = &cobra.Command{
	Use:   "query [terms]",
	Short: "Search the knowledge base",
	Long: `Query searches notes with FTS5 full-text search, tag filters, or both.
With --hints it shows the context hints a research run would receive for the
given question instead.`,
	RunE: runKnowledgeQuery,
}

func runKnowledgeQuery(cmd *cobra.Command, args []string) error {
	store, err := knowledge.NewStore(knowledgeConfig(cmd), logger)
	if err != nil {
		return err
	}
	defer store.Close()

	w := cmd.OutOrStdout()
	if hints, _ := cmd.Flags().GetBool("hints"); hints {
		if len(args) == 0 {
			return fmt.Errorf("a question is required with --hints")
		}
		found, err := store.Enrich(cmd.Context(), strings.Join(args, " "))
		if err != nil {
			return err
		}
		for i, h := range found {
			fmt.Fprintf(w, "%d. %s\n", i+1, h)
		}
		if len(found) == 0 {
			fmt.Fprintln(w, "No hints.")
		}
		return nil
	}

	opts := queryOptsFromFlags(cmd, args)
	if opts.IsEmpty() {
		return fmt.Errorf("query or filter required: provide search terms or --tag")
	}

	results, err := store.Retrieve(cmd.Context(), opts)
	if err != nil {
		return err
	}

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	if len(results) == 0 {
		fmt.Fprintln(w, "No results found.")
		return nil
	}

	fmt.Fprintf(w, "%-4s  %-16s  %-24s  %-50s  %s\n", "Rank", "ID", "Topic", "Content", "Tags")
	fmt.Fprintln(w, strings.Repeat("-", 110))
	for i, r := range results {
		fmt.Fprintf(w, "%-4d  %-16s  %-24s  %-50s  %s\n",
			i+1, clip(r.ID, 16), clip(r.Topic, 24), clip(r.Content, 50), strings.Join(r.Tags, ","))
	}
	fmt.Fprintf(w, "\n%d results\n", len(results))
	return nil
}

func clip(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

// --- export subcommand ---

var knowledgeExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the knowledge base to YAML or JSON",
	Long: `Export writes the knowledge base (or a filtered subset) to
knowledge/index/export.yaml or export.json in the note file format, so an
export can be copied back into knowledge/notes/.`,
	RunE: runKnowledgeExport,
}

func runKnowledgeExport(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")

	store, err := knowledge.NewStore(knowledgeConfig(cmd), logger)
	if err != nil {
		return err
	}
	defer store.Close()

	opts := queryOptsFromFlags(cmd, args)
	ctx := cmd.Context()

	var path string
	switch format {
	case "yaml", "":
		path, err = store.ExportYAML(ctx, opts)
	case "json":
		path, err = store.ExportJSON(ctx, opts)
	default:
		return fmt.Errorf("unsupported format %q: use yaml or json", format)
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Exported to %s\n", path)
	return nil
}

// --- shared helpers ---

func knowledgeConfig(cmd *cobra.Command) types.KnowledgeBaseConfig {
	cfg := pipelineCfg.KnowledgeBase
	if cmd.Flags().Changed("knowledge-dir") || cfg.KnowledgeDir == "" {
		cfg.KnowledgeDir, _ = cmd.Flags().GetString("knowledge-dir")
	}
	if cmd.Flags().Changed("max-results") || cfg.MaxResults <= 0 {
		cfg.MaxResults, _ = cmd.Flags().GetInt("max-results")
	}
	return cfg
}

func queryOptsFromFlags(cmd *cobra.Command, args []string) knowledge.QueryOptions {
	queryText, _ := cmd.Flags().GetString("query")
	if queryText == "" && len(args) > 0 {
		queryText = knowledge.MatchAny(args)
	}
	tags, _ := cmd.Flags().GetStringSlice("tag")
	limit, _ := cmd.Flags().GetInt("limit")

	return knowledge.QueryOptions{
		Query:      queryText,
		Tags:       tags,
		MaxResults: limit,
	}
}

func init() {
	// Shared flags on the parent command, inherited by subcommands.
	knowledgeCmd.PersistentFlags().String("knowledge-dir", "knowledge", "base directory for knowledge (contains notes/, index/)")
	knowledgeCmd.PersistentFlags().Int("max-results", 20, "maximum number of query results")

	knowledgeQueryCmd.Flags().String("query", "", "raw FTS5 match expression (overrides positional terms)")
	knowledgeQueryCmd.Flags().StringSlice("tag", nil, "filter by tag (repeatable, all must match)")
	knowledgeQueryCmd.Flags().Int("limit", 0, "maximum results (0 = use default)")
	knowledgeQueryCmd.Flags().Bool("json", false, "output results as JSON")
	knowledgeQueryCmd.Flags().Bool("hints", false, "show the context hints a research run would get for the question")

	knowledgeExportCmd.Flags().String("format", "yaml", "export format: yaml or json")
	knowledgeExportCmd.Flags().String("query", "", "full-text search filter for partial export")
	knowledgeExportCmd.Flags().StringSlice("tag", nil, "filter by tag for partial export")
	knowledgeExportCmd.Flags().Int("limit", 0, "maximum notes to export (0 = all)")

	knowledgeCmd.AddCommand(knowledgeIngestCmd)
	knowledgeCmd.AddCommand(knowledgeQueryCmd)
	knowledgeCmd.AddCommand(knowledgeExportCmd)

	rootCmd.AddCommand(knowledgeCmd)
}
