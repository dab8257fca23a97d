// Package artifact defines the benchmark artifact vocabulary shared by the
// timing harness, the run resolver and the comparator: measurement phases,
// the artifact filename grammar and the error taxonomy surfaced to callers.
package artifact

import (
	"errors"
	"fmt"
	"strings"
)

// Phase labels one of the two measurement conditions of a run.
type Phase string

const (
	PhaseBefore Phase = "before"
	PhaseAfter  Phase = "after"
)

// Error taxonomy for artifact resolution and validation. Callers match
// these with errors.Is; wrapped messages carry the offending paths.
var (
	// ErrInvalidArgument indicates a malformed argument (bad phase value,
	// or exactly one file of a before/after pair supplied).
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrNotFound indicates a missing artifact file or an empty discovery.
	ErrNotFound = errors.New("not found")

	// ErrInvalidFormat indicates a filename without the expected phase suffix.
	ErrInvalidFormat = errors.New("invalid artifact filename")

	// ErrMismatch indicates run ids that disagree where strict matching
	// is required.
	ErrMismatch = errors.New("run id mismatch")

	// ErrAmbiguousRunID indicates a filename whose run id cannot be parsed
	// while strict matching requires one.
	ErrAmbiguousRunID = errors.New("ambiguous run id")
)

// ParsePhase validates a caller-supplied phase value.
func ParsePhase(s string) (Phase, error) {
	switch Phase(strings.ToLower(strings.TrimSpace(s))) {
	case PhaseBefore:
		return PhaseBefore, nil
	case PhaseAfter:
		return PhaseAfter, nil
	}

	return "", fmt.Errorf("%w: phase must be %q or %q, got %q",
		ErrInvalidArgument, PhaseBefore, PhaseAfter, s)
}

const (
	csvPrefix     = "benchmarks_"
	csvExt        = ".csv"
	reportExt     = ".md"
	metaPrefix    = "bench_meta_"
	speedupPrefix = "benchmarks_speedup_"
)

// CSVName returns the raw measurement filename for a run and phase.
func CSVName(runID string, phase Phase) string {
	return fmt.Sprintf("%s%s_%s%s", csvPrefix, runID, phase, csvExt)
}

// ReportName returns the human-readable report filename for a run and phase.
func ReportName(runID string, phase Phase) string {
	return fmt.Sprintf("%s%s_%s%s", csvPrefix, runID, phase, reportExt)
}

// MetaName returns the run metadata filename for a run.
func MetaName(runID string) string {
	return metaPrefix + runID + ".json"
}

// SpeedupName returns the comparison report filename for a run id or stamp.
func SpeedupName(stamp string) string {
	return speedupPrefix + stamp + reportExt
}

// ParsePhaseSuffix extracts the phase from a measurement CSV filename,
// requiring only the `_<phase>.csv` suffix. It does not require the
// full grammar, so explicit caller-supplied files with arbitrary stems
// can still be phase-checked.
func ParsePhaseSuffix(name string) (Phase, bool) {
	switch {
	case strings.HasSuffix(name, "_"+string(PhaseBefore)+csvExt):
		return PhaseBefore, true
	case strings.HasSuffix(name, "_"+string(PhaseAfter)+csvExt):
		return PhaseAfter, true
	}

	return "", false
}

// ParseCSVName parses a filename against the full grammar
// `benchmarks_<run_id>_<phase>.csv`. The run id is matched greedily up
// to the final `_before`/`_after` token and must be non-empty.
func ParseCSVName(name string) (runID string, phase Phase, ok bool) {
	phase, ok = ParsePhaseSuffix(name)
	if !ok {
		return "", "", false
	}

	stem := strings.TrimSuffix(name, "_"+string(phase)+csvExt)

	runID = strings.TrimPrefix(stem, csvPrefix)
	if runID == stem || runID == "" {
		return "", "", false
	}

	return runID, phase, true
}
