package compare

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mrcocacola21/nyc-taxi-dwh-pipeline/pkg/artifact"
)

func writeMeasurements(
	t *testing.T, dir, runID string, phase artifact.Phase,
	samples map[string][]float64,
) string {
	t.Helper()

	var measurements []artifact.Measurement

	for query, elapsed := range samples {
		for i, ms := range elapsed {
			measurements = append(measurements, artifact.Measurement{
				RunID:     runID,
				Phase:     phase,
				Query:     query,
				Iteration: i + 1,
				ElapsedMS: ms,
			})
		}
	}

	path := filepath.Join(dir, artifact.CSVName(runID, phase))
	require.NoError(t, artifact.WriteCSV(path, measurements))

	return path
}

func testLogger() logrus.FieldLogger {
	log := logrus.New()
	log.SetLevel(logrus.ErrorLevel)

	return log
}

func TestCompare(t *testing.T) {
	dir := t.TempDir()

	before := writeMeasurements(t, dir, "r1", artifact.PhaseBefore, map[string][]float64{
		"q1": {100, 110, 90},
		"q2": {50, 50, 50},
	})
	after := writeMeasurements(t, dir, "r1", artifact.PhaseAfter, map[string][]float64{
		"q1": {50, 55, 45},
		"q2": {50, 50, 50},
	})

	reportPath, err := Compare(testLogger(), before, after, Options{
		OutDir: dir,
		RunID:  "r1",
	})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "benchmarks_speedup_r1.md"), reportPath)

	data, err := os.ReadFile(reportPath)
	require.NoError(t, err)

	report := string(data)
	assert.Contains(t, report, "Run ID: `r1`")
	assert.Contains(t, report, "| q1 | 100.0 | 50.0 | 2.00 | 50.0% |")
	assert.Contains(t, report, "| q2 | 50.0 | 50.0 | 1.00 | 0.0% |")

	// Biggest speedup first.
	assert.Less(t,
		indexOf(t, report, "| q1 |"),
		indexOf(t, report, "| q2 |"))
}

func TestCompareIsIdempotent(t *testing.T) {
	dir := t.TempDir()

	before := writeMeasurements(t, dir, "r1", artifact.PhaseBefore, map[string][]float64{
		"q1": {10, 20, 30},
	})
	after := writeMeasurements(t, dir, "r1", artifact.PhaseAfter, map[string][]float64{
		"q1": {5, 10, 15},
	})

	path, err := Compare(testLogger(), before, after, Options{OutDir: dir, RunID: "r1"})
	require.NoError(t, err)

	first, err := os.ReadFile(path)
	require.NoError(t, err)

	path, err = Compare(testLogger(), before, after, Options{OutDir: dir, RunID: "r1"})
	require.NoError(t, err)

	second, err := os.ReadFile(path)
	require.NoError(t, err)

	assert.Equal(t, string(first), string(second))
}

func TestCompareMixedStamp(t *testing.T) {
	dir := t.TempDir()

	before := writeMeasurements(t, dir, "r1", artifact.PhaseBefore, map[string][]float64{
		"q1": {10},
	})
	after := writeMeasurements(t, dir, "r2", artifact.PhaseAfter, map[string][]float64{
		"q1": {5},
	})

	now := func() time.Time {
		return time.Date(2024, 3, 15, 9, 30, 45, 0, time.UTC)
	}

	path, err := Compare(testLogger(), before, after, Options{
		OutDir: dir,
		Now:    now,
	})
	require.NoError(t, err)
	assert.Equal(t,
		filepath.Join(dir, "benchmarks_speedup_mixed_20240315_093045.md"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Run ID: `mixed`")
}

func TestCompareDropsUnmatchedQueries(t *testing.T) {
	dir := t.TempDir()

	before := writeMeasurements(t, dir, "r1", artifact.PhaseBefore, map[string][]float64{
		"q1":     {10},
		"q_gone": {99},
	})
	after := writeMeasurements(t, dir, "r1", artifact.PhaseAfter, map[string][]float64{
		"q1":    {5},
		"q_new": {1},
	})

	path, err := Compare(testLogger(), before, after, Options{OutDir: dir, RunID: "r1"})
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	report := string(data)
	assert.Contains(t, report, "| q1 |")
	assert.NotContains(t, report, "q_gone")
	assert.NotContains(t, report, "q_new")
}

func TestCompareMissingInput(t *testing.T) {
	dir := t.TempDir()
	after := writeMeasurements(t, dir, "r1", artifact.PhaseAfter, map[string][]float64{
		"q1": {5},
	})

	_, err := Compare(testLogger(), filepath.Join(dir, "absent.csv"), after,
		Options{OutDir: dir, RunID: "r1"})
	require.Error(t, err)
}

func TestMedianByQuery(t *testing.T) {
	measurements := []artifact.Measurement{
		{Query: "q1", ElapsedMS: 30},
		{Query: "q1", ElapsedMS: 10},
		{Query: "q1", ElapsedMS: 20},
		{Query: "q1", ElapsedMS: 40},
		{Query: "q2", ElapsedMS: 5},
	}

	medians := medianByQuery(measurements)

	// Even counts resolve to the lower middle sample.
	assert.Equal(t, 20.0, medians["q1"])
	assert.Equal(t, 5.0, medians["q2"])
}

func TestBuildRowsInfiniteSpeedup(t *testing.T) {
	rows := buildRows(
		map[string]float64{"q1": 10},
		map[string]float64{"q1": 0},
	)

	require.Len(t, rows, 1)
	assert.True(t, math.IsInf(rows[0].SpeedupX, 1))
	assert.Equal(t, 100.0, rows[0].ImprovementPct)
}

func indexOf(t *testing.T, haystack, needle string) int {
	t.Helper()

	idx := strings.Index(haystack, needle)
	require.GreaterOrEqual(t, idx, 0, "%q not found in report", needle)

	return idx
}
