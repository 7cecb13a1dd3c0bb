// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"github.com/spf13/cobra"

	"github.com/pdiddy/research-pipeline/internal/report"
)

var showCmd = &cobra.Command{
	Use:   "show <report.json|report.yaml>",
	Short: "Render a saved report without re-running the research",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		noColor, _ := cmd.Flags().GetBool("no-color")

		rep, err := report.ReadFile(args[0])
		if err != nil {
			return err
		}
		styles := report.ColorStyles()
		if noColor {
			styles = report.PlainStyles()
		}
		return report.Write(cmd.OutOrStdout(), rep, format, styles)
	},
}

func init() {
	showCmd.Flags().StringP("format", "f", report.FormatText, "output format: text, json or yaml")
	showCmd.Flags().Bool("no-color", false, "disable colored text output")

	rootCmd.AddCommand(showCmd)
}
