// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the research-pipeline CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pdiddy/research-pipeline/internal/secrets"
	"github.com/pdiddy/research-pipeline/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

var (
	// logger is built in PersistentPreRunE from --verbose.
	logger = zap.NewNop()

	// pipelineCfg is the effective configuration: defaults, config file,
	// environment, then secret files for anything still empty.
	pipelineCfg types.PipelineConfig
)

var rootCmd = &cobra.Command{
	Use:   "research-pipeline",
	Short: "Answer research questions from scored web evidence",
	Long: `research-pipeline turns a research question into a cited report. It
decomposes the question into search queries, runs them concurrently against a
search provider, grades every source by domain authority, fills evidence gaps
with one follow-up round and synthesizes findings that cite only sources it
actually found.

Budgets come from depth profiles (quick, standard, deep). A local knowledge
base of domain notes can supply context hints.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// A missing .env is normal.
		_ = godotenv.Load()

		verbose, _ := cmd.Flags().GetBool("verbose")
		l, err := newLogger(verbose)
		if err != nil {
			return err
		}
		logger = l

		cfg, err := loadConfig(viper.GetViper())
		if err != nil {
			return err
		}

		secretsDir, _ := cmd.Flags().GetString("secrets-dir")
		s, err := secrets.Load(secretsDir, logger)
		if err != nil {
			return err
		}
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			logger.Debug("loaded secrets", zap.Strings("keys", keys))
		}
		secrets.Apply(&cfg, s)
		pipelineCfg = cfg
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./research-pipeline.yaml or ~/.config/research-pipeline/config.yaml)")
	rootCmd.PersistentFlags().String("secrets-dir", ".secrets", "directory of secret files (brave-api-key, anthropic-api-key, ...)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "debug logging to stderr")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("research-pipeline")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "research-pipeline"))
		}
	}

	viper.SetEnvPrefix("RESEARCH_PIPELINE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	setDefaults(viper.GetViper())

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// newLogger returns a development logger at debug level when verbose, and a
// production logger that only reports warnings otherwise.
func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	cfg.Encoding = "console"
	cfg.EncoderConfig = zap.NewDevelopmentEncoderConfig()
	return cfg.Build()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
