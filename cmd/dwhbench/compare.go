package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Mrcocacola21/nyc-taxi-dwh-pipeline/pkg/artifact"
	"github.com/Mrcocacola21/nyc-taxi-dwh-pipeline/pkg/compare"
	"github.com/Mrcocacola21/nyc-taxi-dwh-pipeline/pkg/config"
	"github.com/Mrcocacola21/nyc-taxi-dwh-pipeline/pkg/resolver"
)

var (
	compareRunID      string
	compareBeforeFile string
	compareAfterFile  string
	compareAllowMixed bool
)

var compareCmd = &cobra.Command{
	Use:     "compare",
	Aliases: []string{"bench-compare"},
	Short:   "Compare a before/after measurement pair",
	Long: `Resolve a before/after measurement pair from the reports
directory and write the per-query median speedup report. With no flags
the most recent complete pair is used.`,
	RunE: runCompare,
}

func init() {
	rootCmd.AddCommand(compareCmd)
	compareCmd.Flags().StringVar(&compareRunID, "run-id", "",
		"Compare the pair belonging to this run id")
	compareCmd.Flags().StringVar(&compareBeforeFile, "before-file", "",
		"Explicit before measurement CSV")
	compareCmd.Flags().StringVar(&compareAfterFile, "after-file", "",
		"Explicit after measurement CSV")
	compareCmd.Flags().BoolVar(&compareAllowMixed, "allow-mismatched-runs", false,
		"Accept explicit file pairs from different runs")
}

func runCompare(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("validating config: %w", err)
	}

	res, err := resolver.Resolve(cfg.Bench.ReportsDir, resolver.Request{
		RunID:               compareRunID,
		BeforeFile:          compareBeforeFile,
		AfterFile:           compareAfterFile,
		AllowMismatchedRuns: compareAllowMixed,
	})
	if err != nil {
		if errors.Is(err, artifact.ErrInvalidArgument) {
			return err
		}

		return operational(err)
	}

	log.WithField("before", res.BeforePath).
		WithField("after", res.AfterPath).
		Info("Resolved measurement pair")

	reportPath, err := compare.Compare(log, res.BeforePath, res.AfterPath, compare.Options{
		OutDir: cfg.Bench.ReportsDir,
		RunID:  res.RunID,
	})
	if err != nil {
		return operational(err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), reportPath)

	return nil
}
