// Package compare joins two resolved measurement artifacts into a
// deterministic before/after speedup report.
package compare

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Mrcocacola21/nyc-taxi-dwh-pipeline/pkg/artifact"
)

// Row is one compared query in the report.
type Row struct {
	Query          string
	BeforeMS       float64
	AfterMS        float64
	SpeedupX       float64
	ImprovementPct float64
}

// Options control report placement and labeling.
type Options struct {
	// OutDir receives the speedup report.
	OutDir string

	// RunID labels the comparison. Empty means the pair had no common
	// run id and is reported as "mixed".
	RunID string

	// Now stamps the report filename when no run id is available.
	// Defaults to time.Now.
	Now func() time.Time
}

// Compare loads both measurement tables, aggregates per-query medians,
// computes speedup metrics and writes the comparison report. It assumes
// the paths were already validated by the resolver and never mutates its
// inputs.
func Compare(
	log logrus.FieldLogger,
	beforePath, afterPath string,
	opts Options,
) (string, error) {
	before, err := artifact.ReadCSV(beforePath)
	if err != nil {
		return "", err
	}

	after, err := artifact.ReadCSV(afterPath)
	if err != nil {
		return "", err
	}

	rows := buildRows(medianByQuery(before), medianByQuery(after))

	stamp := opts.RunID
	if stamp == "" {
		now := opts.Now
		if now == nil {
			now = time.Now
		}

		stamp = "mixed_" + now().UTC().Format("20060102_150405")
	}

	reportPath := filepath.Join(opts.OutDir, artifact.SpeedupName(stamp))

	report := renderReport(
		filepath.Base(beforePath), filepath.Base(afterPath),
		runLabel(opts.RunID), rows,
	)

	if err := os.WriteFile(reportPath, []byte(report), 0o644); err != nil {
		return "", fmt.Errorf("writing comparison report: %w", err)
	}

	log.WithFields(logrus.Fields{
		"run_id":  runLabel(opts.RunID),
		"queries": len(rows),
		"report":  reportPath,
	}).Info("Comparison report written")

	return reportPath, nil
}

// medianByQuery groups measurements by query id and takes the median
// elapsed time. Median over mean resists warmup and GC-style outliers.
func medianByQuery(measurements []artifact.Measurement) map[string]float64 {
	byQuery := make(map[string][]float64)

	for _, m := range measurements {
		byQuery[m.Query] = append(byQuery[m.Query], m.ElapsedMS)
	}

	medians := make(map[string]float64, len(byQuery))

	for query, samples := range byQuery {
		slices.Sort(samples)
		medians[query] = nearestRankMedian(samples)
	}

	return medians
}

// nearestRankMedian selects the median by nearest rank over the sorted
// sample, matching the harness tie-break so both sides agree on what a
// median is.
func nearestRankMedian(sorted []float64) float64 {
	if len(sorted) == 0 {
		return math.NaN()
	}

	idx := int(math.Ceil(0.5*float64(len(sorted)-1) - 0.5))
	if idx < 0 {
		idx = 0
	}

	return sorted[idx]
}

// buildRows inner-joins the per-query medians and computes the speedup
// metrics. Queries present on only one side are dropped: both runs are
// expected to share the same catalog. Rows are ordered by speedup
// descending, ties keeping query-id order (stable sort over the sorted
// join keys).
func buildRows(before, after map[string]float64) []Row {
	queries := make([]string, 0, len(before))

	for query := range before {
		if _, ok := after[query]; ok {
			queries = append(queries, query)
		}
	}

	slices.Sort(queries)

	rows := make([]Row, 0, len(queries))

	for _, query := range queries {
		b, a := before[query], after[query]

		// A zero after-median yields an infinite speedup; preserved so
		// degenerate zero-latency measurements stay visible.
		rows = append(rows, Row{
			Query:          query,
			BeforeMS:       b,
			AfterMS:        a,
			SpeedupX:       round2(b / a),
			ImprovementPct: round1((1 - a/b) * 100),
		})
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].SpeedupX > rows[j].SpeedupX
	})

	return rows
}

func round2(v float64) float64 {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return v
	}

	return math.Round(v*100) / 100
}

func round1(v float64) float64 {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return v
	}

	return math.Round(v*10) / 10
}

func runLabel(runID string) string {
	if runID == "" {
		return "mixed"
	}

	return runID
}

// renderReport produces the markdown comparison report.
func renderReport(beforeName, afterName, runLabel string, rows []Row) string {
	var sb strings.Builder

	sb.Grow(2048)

	sb.WriteString("# Benchmarks (before vs after)\n\n")
	fmt.Fprintf(&sb, "Run ID: `%s`\n\n", runLabel)
	fmt.Fprintf(&sb, "Before: `%s`  \nAfter: `%s`\n\n", beforeName, afterName)
	sb.WriteString("Median elapsed time per query (ms).\n\n")

	sb.WriteString("| query | before_ms | after_ms | speedup_x | improvement_pct |\n")
	sb.WriteString("|---|---:|---:|---:|---:|\n")

	for _, r := range rows {
		fmt.Fprintf(&sb, "| %s | %.1f | %.1f | %.2f | %.1f%% |\n",
			r.Query, r.BeforeMS, r.AfterMS, r.SpeedupX, r.ImprovementPct)
	}

	return sb.String()
}
