// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/research-pipeline/internal/authority"
)

var scoreCmd = &cobra.Command{
	Use:   "score <url>...",
	Short: "Show the authority score and tier of URLs",
	Long: `Score grades each URL with the authority table (built in, or the file named
by authority.table_file) and shows which table rule matched. Use it to check
a tuned table before a research run.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		scorer, err := newScorer(pipelineCfg.Authority)
		if err != nil {
			return err
		}

		scores := make([]authority.Score, len(args))
		for i, u := range args {
			scores[i] = scorer.Score(u)
		}

		w := cmd.OutOrStdout()
		if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
			enc := json.NewEncoder(w)
			enc.SetIndent("", "  ")
			return enc.Encode(scores)
		}

		fmt.Fprintf(w, "%-40s  %-9s  %-10s  %-14s  %s\n", "Domain", "Authority", "Tier", "Class", "Rule")
		fmt.Fprintln(w, strings.Repeat("-", 100))
		for _, s := range scores {
			rule := s.Rule
			if rule == "" {
				rule = "default"
			}
			fmt.Fprintf(w, "%-40s  %-9.2f  %-10s  %-14s  %s\n", clip(s.Domain, 40), s.Authority, s.Tier, s.Class, rule)
		}
		return nil
	},
}

func init() {
	scoreCmd.Flags().Bool("json", false, "output scores as JSON")

	rootCmd.AddCommand(scoreCmd)
}
