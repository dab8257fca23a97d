package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Mrcocacola21/nyc-taxi-dwh-pipeline/pkg/config"
	"github.com/Mrcocacola21/nyc-taxi-dwh-pipeline/pkg/indexstore"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List indexed benchmark runs",
	RunE:  runRuns,
}

func init() {
	rootCmd.AddCommand(runsCmd)
}

func runRuns(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("validating config: %w", err)
	}

	if !cfg.Index.Enabled {
		return fmt.Errorf("run index is disabled in config")
	}

	ctx := cmd.Context()

	idx := indexstore.NewStore(log, &cfg.Index)
	if err := idx.Start(ctx); err != nil {
		return operational(err)
	}
	defer func() { _ = idx.Stop() }()

	runs, err := idx.ListRuns(ctx)
	if err != nil {
		return operational(err)
	}

	if len(runs) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No indexed runs.")

		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "RUN ID\tPHASE\tQUERIES\tITERS\tTOTAL MEDIAN (MS)\tINDEXED AT")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%.3f\t%s\n",
			run.RunID, run.Phase, run.Queries, run.Iterations,
			run.TotalMedianMS, run.IndexedAt.UTC().Format("2006-01-02 15:04:05"))
	}

	return w.Flush()
}
