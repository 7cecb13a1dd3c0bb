// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var profilesCmd = &cobra.Command{
	Use:   "profiles",
	Short: "List the effective depth profiles",
	RunE: func(cmd *cobra.Command, args []string) error {
		profiles := effectiveProfiles(pipelineCfg)
		w := cmd.OutOrStdout()

		fmt.Fprintf(w, "%-12s  %7s  %6s  %7s  %8s  %8s  %11s  %7s\n",
			"Profile", "Queries", "Rounds", "Initial", "Findings", "Budget", "Concurrency", "Reserve")
		fmt.Fprintln(w, strings.Repeat("-", 86))
		for _, name := range profileNames(profiles) {
			p := profiles[name]
			fmt.Fprintf(w, "%-12s  %7d  %6d  %7d  %8d  %8s  %11d  %6.0f%%\n",
				name, p.MaxQueries, p.MaxRounds, p.InitialQueries, p.MaxFindings,
				p.TimeBudget, p.Concurrency, p.SynthesisReserve*100)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(profilesCmd)
}
