// Package resolver determines which two measurement artifacts form a
// valid before/after pair for comparison. Resolution is strict: file
// names are validated against the artifact grammar and run id mismatches
// are rejected unless explicitly allowed.
package resolver

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/Mrcocacola21/nyc-taxi-dwh-pipeline/pkg/artifact"
)

// Request holds the caller-supplied resolution inputs. All fields are
// optional; the populated combination selects the resolution branch.
type Request struct {
	RunID      string
	BeforeFile string
	AfterFile  string

	// AllowMismatchedRuns accepts explicit file pairs whose run ids
	// differ or cannot be parsed. The resulting comparison is labeled
	// "mixed" when no common run id exists.
	AllowMismatchedRuns bool
}

// Resolution is a validated before/after artifact pair. RunID is empty
// when the pair has no common run id (mismatched runs allowed).
type Resolution struct {
	BeforePath string
	AfterPath  string
	RunID      string
}

// Resolve locates the before/after pair in dir according to the
// request, in strict precedence order: explicit run id, explicit file
// pair, auto-discovery of the most recent complete run.
func Resolve(dir string, req Request) (*Resolution, error) {
	switch {
	case req.RunID != "":
		return resolveByRunID(dir, req)
	case req.BeforeFile != "" || req.AfterFile != "":
		return resolveByFiles(req)
	default:
		return resolveByDiscovery(dir)
	}
}

// resolveByRunID builds the expected paths for the requested run id.
// Explicitly supplied files win over the derived path for their slot but
// must still name the requested run.
func resolveByRunID(dir string, req Request) (*Resolution, error) {
	beforePath := req.BeforeFile
	if beforePath == "" {
		beforePath = filepath.Join(dir, artifact.CSVName(req.RunID, artifact.PhaseBefore))
	}

	afterPath := req.AfterFile
	if afterPath == "" {
		afterPath = filepath.Join(dir, artifact.CSVName(req.RunID, artifact.PhaseAfter))
	}

	for _, path := range []string{beforePath, afterPath} {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("%w: measurement file %s does not exist",
				artifact.ErrNotFound, path)
		}
	}

	if err := checkPhase(beforePath, artifact.PhaseBefore); err != nil {
		return nil, err
	}

	if err := checkPhase(afterPath, artifact.PhaseAfter); err != nil {
		return nil, err
	}

	for _, path := range []string{beforePath, afterPath} {
		runID, _, ok := artifact.ParseCSVName(filepath.Base(path))
		if !ok || runID != req.RunID {
			return nil, fmt.Errorf("%w: %s does not belong to run %q",
				artifact.ErrMismatch, path, req.RunID)
		}
	}

	return &Resolution{
		BeforePath: beforePath,
		AfterPath:  afterPath,
		RunID:      req.RunID,
	}, nil
}

// resolveByFiles validates an explicit file pair without a run id.
func resolveByFiles(req Request) (*Resolution, error) {
	if req.BeforeFile == "" || req.AfterFile == "" {
		return nil, fmt.Errorf(
			"%w: before and after files must be supplied together",
			artifact.ErrInvalidArgument)
	}

	for _, path := range []string{req.BeforeFile, req.AfterFile} {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("%w: measurement file %s does not exist",
				artifact.ErrNotFound, path)
		}
	}

	if err := checkPhase(req.BeforeFile, artifact.PhaseBefore); err != nil {
		return nil, err
	}

	if err := checkPhase(req.AfterFile, artifact.PhaseAfter); err != nil {
		return nil, err
	}

	beforeRun, _, beforeOK := artifact.ParseCSVName(filepath.Base(req.BeforeFile))
	afterRun, _, afterOK := artifact.ParseCSVName(filepath.Base(req.AfterFile))

	if !req.AllowMismatchedRuns {
		if !beforeOK {
			return nil, fmt.Errorf(
				"%w: cannot parse a run id from %s (expected benchmarks_<run_id>_before.csv)",
				artifact.ErrAmbiguousRunID, req.BeforeFile)
		}

		if !afterOK {
			return nil, fmt.Errorf(
				"%w: cannot parse a run id from %s (expected benchmarks_<run_id>_after.csv)",
				artifact.ErrAmbiguousRunID, req.AfterFile)
		}

		if beforeRun != afterRun {
			return nil, fmt.Errorf(
				"%w: before run %q != after run %q (use --allow-mismatched-runs to override)",
				artifact.ErrMismatch, beforeRun, afterRun)
		}
	}

	matched := ""
	if beforeOK && afterOK && beforeRun == afterRun {
		matched = beforeRun
	}

	return &Resolution{
		BeforePath: req.BeforeFile,
		AfterPath:  req.AfterFile,
		RunID:      matched,
	}, nil
}

// resolveByDiscovery scans dir for complete before/after pairs and
// selects the lexicographically greatest run id, which for generated ids
// means the most recent.
func resolveByDiscovery(dir string) (*Resolution, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: reading artifact directory %s: %v",
			artifact.ErrNotFound, dir, err)
	}

	type pair struct {
		before string
		after  string
	}

	pairs := make(map[string]*pair)

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		runID, phase, ok := artifact.ParseCSVName(entry.Name())
		if !ok {
			continue
		}

		p := pairs[runID]
		if p == nil {
			p = &pair{}
			pairs[runID] = p
		}

		path := filepath.Join(dir, entry.Name())

		if phase == artifact.PhaseBefore {
			p.before = path
		} else {
			p.after = path
		}
	}

	var best string

	for runID, p := range pairs {
		if p.before == "" || p.after == "" {
			continue
		}

		if runID > best {
			best = runID
		}
	}

	if best == "" {
		return nil, fmt.Errorf(
			"%w: no complete before/after measurement pair in %s",
			artifact.ErrNotFound, dir)
	}

	return &Resolution{
		BeforePath: pairs[best].before,
		AfterPath:  pairs[best].after,
		RunID:      best,
	}, nil
}

// checkPhase validates that the filename carries the expected phase
// suffix.
func checkPhase(path string, want artifact.Phase) error {
	phase, ok := artifact.ParsePhaseSuffix(filepath.Base(path))
	if !ok || phase != want {
		return fmt.Errorf("%w: %s does not end with _%s.csv",
			artifact.ErrInvalidFormat, path, want)
	}

	return nil
}
