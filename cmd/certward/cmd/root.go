// Package cmd provides the CLI commands for certward.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/certward/certward/internal/config"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "certward",
	Short: "certward - batch access certification",
	Long: `certward evaluates a table of user/entitlement access records against a
declarative policy rule set and produces a per-row certification decision
(approve, revoke, or flag for human review) with a rationale, plus aggregate
reports.

Quick start:
  1. Write a rules file: rules.yaml
  2. Run: certward run entitlements.csv --rules rules.yaml --out out/

Configuration:
  Optional config is loaded from certward.yaml in the current directory,
  $HOME/.certward/, or /etc/certward/.

  Environment variables can override config values with the CERTWARD_ prefix.
  Example: CERTWARD_EVALUATION_WORKERS=8

Commands:
  run         Evaluate a batch and write all reports
  validate    Check records and rules without writing output
  generate    Synthesize a sample entitlements dataset
  version     Print version information`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./certward.yaml)")
}

func initConfig() {
	config.InitViper(cfgFile)
}
