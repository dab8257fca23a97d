// Package harness measures the benchmark query catalog against a live
// warehouse and produces the raw measurement, report and metadata
// artifacts for one (run id, phase) invocation.
package harness

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Mrcocacola21/nyc-taxi-dwh-pipeline/pkg/artifact"
	"github.com/Mrcocacola21/nyc-taxi-dwh-pipeline/pkg/catalog"
	"github.com/Mrcocacola21/nyc-taxi-dwh-pipeline/pkg/store"
	"github.com/Mrcocacola21/nyc-taxi-dwh-pipeline/pkg/sysinfo"
)

// Harness runs timed measurements of the query catalog.
type Harness interface {
	// Measure executes one benchmark invocation and returns the produced
	// artifact paths. Any query execution failure aborts the whole call;
	// no partial artifacts are written.
	Measure(ctx context.Context, opts Options) (*Result, error)
}

// Options control a single benchmark invocation.
type Options struct {
	Iterations int
	Warmup     int
	Phase      string

	// RunID is used verbatim (trimmed) when supplied; otherwise a
	// sortable timestamp id is generated.
	RunID string

	// BatchIDs are recorded in run metadata after normalization.
	BatchIDs []string
}

// Config contains the harness settings.
type Config struct {
	ReportsDir     string
	CountRelations []string
	BatchRelations map[string]string
}

// Result describes the artifacts of a completed invocation.
type Result struct {
	RunID      string
	Phase      artifact.Phase
	GitSHA     string
	CSVPath    string
	ReportPath string
	MetaPath   string
	Summaries  []QuerySummary
}

// RelationCount is the typed outcome of one diagnostic row count:
// either a count, or unavailable. Zero rows and "could not count" stay
// distinguishable.
type RelationCount struct {
	Relation  string
	Count     int64
	Available bool
}

// Compile-time interface check.
var _ Harness = (*harness)(nil)

type harness struct {
	log     logrus.FieldLogger
	cfg     *Config
	store   store.Store
	catalog catalog.Catalog

	// Seams for tests.
	now     func() time.Time
	sha     func() string
	collect func(ctx context.Context) *sysinfo.Info
}

// New creates a harness over the given store and query catalog.
func New(
	log logrus.FieldLogger,
	cfg *Config,
	st store.Store,
	cat catalog.Catalog,
) Harness {
	return &harness{
		log:     log.WithField("component", "harness"),
		cfg:     cfg,
		store:   st,
		catalog: cat,
		now:     time.Now,
		sha:     gitSHA,
		collect: sysinfo.Collect,
	}
}

func (h *harness) Measure(ctx context.Context, opts Options) (*Result, error) {
	phase, err := artifact.ParsePhase(opts.Phase)
	if err != nil {
		return nil, err
	}

	if opts.Iterations < 0 {
		return nil, fmt.Errorf("%w: iterations must not be negative, got %d",
			artifact.ErrInvalidArgument, opts.Iterations)
	}

	if opts.Warmup < 0 {
		return nil, fmt.Errorf("%w: warmup must not be negative, got %d",
			artifact.ErrInvalidArgument, opts.Warmup)
	}

	runID := strings.TrimSpace(opts.RunID)
	if runID == "" {
		runID = NewRunID(h.now())
	}

	batchIDs := normalizeBatchIDs(opts.BatchIDs)
	createdAt := h.now().UTC().Format("2006-01-02T15:04:05Z")

	if err := os.MkdirAll(h.cfg.ReportsDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating reports directory: %w", err)
	}

	h.log.WithFields(logrus.Fields{
		"run_id":     runID,
		"phase":      phase,
		"iterations": opts.Iterations,
		"warmup":     opts.Warmup,
		"queries":    h.catalog.Len(),
	}).Info("Starting benchmark run")

	sess, err := h.store.Session(ctx)
	if err != nil {
		return nil, fmt.Errorf("opening store session: %w", err)
	}
	defer sess.Close()

	if err := sess.Quiet(ctx); err != nil {
		h.log.WithError(err).Warn("Could not quiet session; timings may be noisier")
	}

	measurements, summaries, err := h.measureQueries(ctx, sess, runID, phase, opts)
	if err != nil {
		return nil, err
	}

	rowCounts := h.collectRowCounts(ctx, sess)
	discovered := h.collectBatchIDs(ctx, sess)

	csvPath := filepath.Join(h.cfg.ReportsDir, artifact.CSVName(runID, phase))
	reportPath := filepath.Join(h.cfg.ReportsDir, artifact.ReportName(runID, phase))
	metaPath := filepath.Join(h.cfg.ReportsDir, artifact.MetaName(runID))

	if err := artifact.WriteCSV(csvPath, measurements); err != nil {
		return nil, err
	}

	report := renderReport(&reportData{
		RunID:      runID,
		Phase:      phase,
		Generated:  createdAt,
		Iterations: opts.Iterations,
		Warmup:     opts.Warmup,
		Summaries:  summaries,
		Queries:    h.catalog.Queries(),
	})

	if err := os.WriteFile(reportPath, []byte(report), 0o644); err != nil {
		return nil, fmt.Errorf("writing report: %w", err)
	}

	meta := &RunMetadata{
		RunID:             runID,
		GitSHA:            h.sha(),
		CreatedAt:         createdAt,
		LastUpdatedAt:     createdAt,
		Phase:             phase,
		RequestedBatches:  batchIDs,
		DiscoveredBatches: discovered,
		RowCounts:         rowCountsJSON(rowCounts),
		System:            h.collect(ctx),
		Phases: map[artifact.Phase]*PhaseMeta{
			phase: {
				Phase:      phase,
				CreatedAt:  createdAt,
				CSVFile:    filepath.ToSlash(csvPath),
				ReportFile: filepath.ToSlash(reportPath),
				Iterations: opts.Iterations,
				Warmup:     opts.Warmup,
			},
		},
	}

	meta = mergeMetadata(loadMetadata(metaPath), meta)

	if err := writeMetadata(metaPath, meta); err != nil {
		return nil, err
	}

	h.log.WithFields(logrus.Fields{
		"run_id": runID,
		"csv":    csvPath,
		"report": reportPath,
		"meta":   metaPath,
	}).Info("Benchmark run complete")

	return &Result{
		RunID:      runID,
		Phase:      phase,
		GitSHA:     meta.GitSHA,
		CSVPath:    csvPath,
		ReportPath: reportPath,
		MetaPath:   metaPath,
		Summaries:  summaries,
	}, nil
}

// measureQueries runs warmup and measured iterations for every catalog
// query in declaration order.
func (h *harness) measureQueries(
	ctx context.Context,
	sess store.Session,
	runID string,
	phase artifact.Phase,
	opts Options,
) ([]artifact.Measurement, []QuerySummary, error) {
	measurements := make([]artifact.Measurement, 0, h.catalog.Len()*opts.Iterations)
	summaries := make([]QuerySummary, 0, h.catalog.Len())

	for _, q := range h.catalog.Queries() {
		for i := 0; i < opts.Warmup; i++ {
			if err := sess.ExecDrain(ctx, q.SQL); err != nil {
				return nil, nil, fmt.Errorf("warming up %s: %w", q.ID, err)
			}
		}

		samples := make([]float64, 0, opts.Iterations)

		for i := 1; i <= opts.Iterations; i++ {
			start := time.Now()

			if err := sess.ExecDrain(ctx, q.SQL); err != nil {
				return nil, nil, fmt.Errorf("measuring %s (iteration %d): %w", q.ID, i, err)
			}

			elapsed := round3(float64(time.Since(start).Microseconds()) / 1000.0)
			samples = append(samples, elapsed)

			measurements = append(measurements, artifact.Measurement{
				RunID:     runID,
				Phase:     phase,
				Query:     q.ID,
				Iteration: i,
				ElapsedMS: elapsed,
			})
		}

		summary := summarize(q.ID, samples)
		summaries = append(summaries, summary)

		h.log.WithFields(logrus.Fields{
			"query":     q.ID,
			"median_ms": summary.MedianMS,
			"p95_ms":    summary.P95MS,
			"min_ms":    summary.MinMS,
			"max_ms":    summary.MaxMS,
		}).Info("Query measured")
	}

	return measurements, summaries, nil
}

// collectRowCounts gathers diagnostic row counts. Per-relation failures
// are recorded as unavailable, never returned as errors.
func (h *harness) collectRowCounts(
	ctx context.Context, sess store.Session,
) []RelationCount {
	counts := make([]RelationCount, 0, len(h.cfg.CountRelations))

	for _, relation := range h.cfg.CountRelations {
		count, err := sess.Count(ctx, relation)
		if err != nil {
			h.log.WithError(err).WithField("relation", relation).
				Debug("Row count unavailable")

			counts = append(counts, RelationCount{Relation: relation})

			continue
		}

		counts = append(counts, RelationCount{
			Relation:  relation,
			Count:     count,
			Available: true,
		})
	}

	return counts
}

// collectBatchIDs gathers the distinct batch ids per source tier.
// Failures yield an empty list for that tier.
func (h *harness) collectBatchIDs(
	ctx context.Context, sess store.Session,
) map[string][]string {
	discovered := make(map[string][]string, len(h.cfg.BatchRelations))

	for tier, relation := range h.cfg.BatchRelations {
		ids, err := sess.DistinctBatchIDs(ctx, relation)
		if err != nil {
			h.log.WithError(err).WithField("relation", relation).
				Debug("Batch id discovery unavailable")

			discovered[tier] = []string{}

			continue
		}

		discovered[tier] = ids
	}

	return discovered
}

// rowCountsJSON converts typed relation counts to the metadata shape:
// unavailable counts become JSON null.
func rowCountsJSON(counts []RelationCount) map[string]*int64 {
	out := make(map[string]*int64, len(counts))

	for _, rc := range counts {
		if rc.Available {
			count := rc.Count
			out[rc.Relation] = &count
		} else {
			out[rc.Relation] = nil
		}
	}

	return out
}
