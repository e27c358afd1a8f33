package cmd

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/certward/certward/internal/adapter/inbound/csvfile"
	"github.com/certward/certward/internal/adapter/inbound/rulesfile"
	"github.com/certward/certward/internal/adapter/outbound/report"
	"github.com/certward/certward/internal/config"
	"github.com/certward/certward/internal/service"
)

var (
	runRules   string
	runOut     string
	runAsOf    string
	runWorkers int
)

var runCmd = &cobra.Command{
	Use:   "run <entitlements.csv>",
	Short: "Evaluate a batch and write all reports",
	Long: `Evaluate every entitlement record against the policy rule set and write
decisions.csv, decisions.json, report.md, and metrics.prom into the output
directory.

All validation happens before evaluation starts: a malformed record or rule
aborts the run with a non-zero exit and no output files are written.

Examples:
  certward run entitlements.csv --rules rules.yaml --out out/
  certward run entitlements.csv --rules rules.yaml --as-of 2026-06-30`,
	Args: cobra.ExactArgs(1),
	RunE: runRun,
}

func init() {
	runCmd.Flags().StringVar(&runRules, "rules", "rules.yaml", "policy rules file")
	runCmd.Flags().StringVar(&runOut, "out", "out", "output directory for reports")
	runCmd.Flags().StringVar(&runAsOf, "as-of", "", "reference date for day counts, YYYY-MM-DD (default: today)")
	runCmd.Flags().IntVar(&runWorkers, "workers", 0, "evaluation workers (default: config, then GOMAXPROCS)")
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := newLogger(cfg.Log.Level)

	asOf, err := resolveAsOf(runAsOf)
	if err != nil {
		return err
	}
	workers := runWorkers
	if workers == 0 {
		workers = cfg.Evaluation.Workers
	}

	inputPath := args[0]

	set, err := rulesfile.Load(runRules)
	if err != nil {
		return err
	}
	records, err := csvfile.NewLoader(logger).Load(inputPath)
	if err != nil {
		return err
	}
	logger.Info("inputs loaded",
		"records", len(records),
		"rules", len(set.Rules),
		"sod_pairs", len(set.SoD),
	)

	engine, err := service.NewEngine(set, asOf, logger,
		service.WithCacheSize(cfg.Evaluation.CacheSize))
	if err != nil {
		return err
	}

	runner := service.NewRunner(engine, workers, logger)
	result, err := runner.Run(cmd.Context(), records, filepath.Base(inputPath))
	if err != nil {
		return err
	}

	writer := report.NewWriter(cfg.Report.FlaggedSamples, logger)
	if err := writer.WriteAll(runOut, result); err != nil {
		return err
	}

	fmt.Printf("Processed %d records: %d approve, %d revoke, %d flagged (%.1f%% auto-decided)\n",
		result.Total, result.Counts.Approve, result.Counts.Revoke, result.Counts.Flag,
		result.AutomationRate*100)
	return nil
}

// resolveAsOf parses the --as-of flag, defaulting to today (UTC). Pinning
// the date once per run keeps evaluation deterministic.
func resolveAsOf(flag string) (time.Time, error) {
	if flag == "" {
		return time.Now().UTC(), nil
	}
	t, err := time.Parse("2006-01-02", flag)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --as-of date %q: expected YYYY-MM-DD", flag)
	}
	return t, nil
}
