package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Mrcocacola21/nyc-taxi-dwh-pipeline/pkg/artifact"
	"github.com/Mrcocacola21/nyc-taxi-dwh-pipeline/pkg/catalog"
	"github.com/Mrcocacola21/nyc-taxi-dwh-pipeline/pkg/config"
	"github.com/Mrcocacola21/nyc-taxi-dwh-pipeline/pkg/harness"
	"github.com/Mrcocacola21/nyc-taxi-dwh-pipeline/pkg/indexstore"
	"github.com/Mrcocacola21/nyc-taxi-dwh-pipeline/pkg/store"
)

var (
	benchIters    int
	benchWarmup   int
	benchPhase    string
	benchRunID    string
	benchBatchIDs []string
)

var benchCmd = &cobra.Command{
	Use:   "bench",
	Short: "Run the SQL benchmarks against the warehouse",
	Long: `Execute every catalog query with warmup and measured iterations,
writing the raw measurement CSV, the markdown report and the merged run
metadata record.`,
	RunE: runBench,
}

func init() {
	rootCmd.AddCommand(benchCmd)
	benchCmd.Flags().IntVar(&benchIters, "iters", -1,
		"Measured iterations per query (default from config)")
	benchCmd.Flags().IntVar(&benchWarmup, "warmup", -1,
		"Discarded warmup iterations per query (default from config)")
	benchCmd.Flags().StringVar(&benchPhase, "phase", "after",
		"Measurement phase: before or after")
	benchCmd.Flags().StringVar(&benchRunID, "run-id", "",
		"Optional run id; use the same value for before/after pair comparisons")
	benchCmd.Flags().StringSliceVar(&benchBatchIDs, "batches", nil,
		"Optional batch ids recorded in run metadata, e.g. 2024-01,2024-02")
}

func runBench(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("validating config: %w", err)
	}

	iters := benchIters
	if iters < 0 {
		iters = cfg.Bench.Iterations
	}

	warmup := benchWarmup
	if warmup < 0 {
		warmup = cfg.Bench.Warmup
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		log.WithField("signal", sig).Info("Received shutdown signal")
		cancel()
	}()

	st, err := store.Open(log, &cfg.Store)
	if err != nil {
		return operational(err)
	}
	defer st.Close()

	h := harness.New(log, &harness.Config{
		ReportsDir:     cfg.Bench.ReportsDir,
		CountRelations: cfg.Bench.CountRelations,
		BatchRelations: cfg.Bench.BatchRelations,
	}, st, catalog.Default())

	result, err := h.Measure(ctx, harness.Options{
		Iterations: iters,
		Warmup:     warmup,
		Phase:      benchPhase,
		RunID:      benchRunID,
		BatchIDs:   benchBatchIDs,
	})
	if err != nil {
		if errors.Is(err, artifact.ErrInvalidArgument) {
			return err
		}

		return operational(err)
	}

	if cfg.Index.Enabled {
		indexResult(ctx, cfg, result, iters, warmup)
	}

	return nil
}

// indexResult records the invocation in the run index. Best-effort: an
// index failure never fails a completed measurement.
func indexResult(
	ctx context.Context,
	cfg *config.Config,
	result *harness.Result,
	iters, warmup int,
) {
	idx := indexstore.NewStore(log, &cfg.Index)

	if err := idx.Start(ctx); err != nil {
		log.WithError(err).Warn("Could not open run index; skipping indexing")

		return
	}
	defer func() { _ = idx.Stop() }()

	var totalMedian float64

	for _, s := range result.Summaries {
		totalMedian += s.MedianMS
	}

	err := idx.UpsertRun(ctx, &indexstore.Run{
		RunID:         result.RunID,
		Phase:         string(result.Phase),
		GitSHA:        result.GitSHA,
		Iterations:    iters,
		Warmup:        warmup,
		Queries:       len(result.Summaries),
		TotalMedianMS: totalMedian,
		CSVPath:       result.CSVPath,
		ReportPath:    result.ReportPath,
		IndexedAt:     time.Now().UTC(),
	})
	if err != nil {
		log.WithError(err).Warn("Could not index benchmark run")
	}
}
