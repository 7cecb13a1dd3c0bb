// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pdiddy/research-pipeline/internal/report"
	"github.com/pdiddy/research-pipeline/pkg/types"
)

var researchCmd = &cobra.Command{
	Use:   "research [question]",
	Short: "Research a question and print a cited report",
	Long: `Research decomposes the question into search queries, runs them against
the configured search provider, scores every source by domain authority and
synthesizes findings under the selected depth profile's query and time budget.

Progress goes to stderr; the report goes to stdout. Use --out to also save it
(.json, .yaml or .md). Ctrl-C aborts the run and still prints the evidence
gathered so far.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runResearch,
}

func runResearch(cmd *cobra.Command, args []string) error {
	question := strings.Join(args, " ")
	profileName, _ := cmd.Flags().GetString("profile")
	format, _ := cmd.Flags().GetString("format")
	out, _ := cmd.Flags().GetString("out")
	noColor, _ := cmd.Flags().GetBool("no-color")
	quiet, _ := cmd.Flags().GetBool("quiet")
	withKnowledge, _ := cmd.Flags().GetBool("knowledge")

	profile, err := types.LookupProfile(effectiveProfiles(pipelineCfg), profileName)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	progress := cmd.ErrOrStderr()
	if quiet {
		progress = nil
	}
	p, err := buildPipeline(ctx, pipelineCfg, withKnowledge, progress, logger)
	if err != nil {
		return err
	}
	defer p.Close()

	rep, runErr := p.orch.Run(ctx, question, profile)

	styles := report.ColorStyles()
	if noColor {
		styles = report.PlainStyles()
	}
	if err := report.Write(cmd.OutOrStdout(), rep, format, styles); err != nil {
		return err
	}
	if out != "" {
		if err := report.WriteFile(out, rep); err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "saved report to %s\n", out)
	}
	return runErr
}

func init() {
	researchCmd.Flags().StringP("profile", "p", types.ProfileStandard, "depth profile: quick, standard, deep or a configured name")
	researchCmd.Flags().StringP("format", "f", report.FormatText, "output format: text, json or yaml")
	researchCmd.Flags().StringP("out", "o", "", "also save the report to this file (.json, .yaml, .md)")
	researchCmd.Flags().Bool("no-color", false, "disable colored text output")
	researchCmd.Flags().BoolP("quiet", "q", false, "suppress progress output")
	researchCmd.Flags().Bool("knowledge", false, "use the knowledge base for context hints even if not enabled in config")

	rootCmd.AddCommand(researchCmd)
}
