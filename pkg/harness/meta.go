package harness

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/Mrcocacola21/nyc-taxi-dwh-pipeline/pkg/artifact"
	"github.com/Mrcocacola21/nyc-taxi-dwh-pipeline/pkg/sysinfo"
)

// RunMetadata is the per-run record persisted to bench_meta_<run_id>.json.
// It is created on the first phase invocation for a run id and merged on
// every subsequent one: git_sha and created_at keep their first-write
// values, last_updated_at and phases[phase] are overwritten.
type RunMetadata struct {
	RunID             string                        `json:"run_id"`
	GitSHA            string                        `json:"git_sha,omitempty"`
	CreatedAt         string                        `json:"created_at"`
	LastUpdatedAt     string                        `json:"last_updated_at"`
	Phase             artifact.Phase                `json:"phase"`
	RequestedBatches  []string                      `json:"requested_batches"`
	DiscoveredBatches map[string][]string           `json:"discovered_batches"`
	RowCounts         map[string]*int64             `json:"row_counts"`
	System            *sysinfo.Info                 `json:"system,omitempty"`
	Phases            map[artifact.Phase]*PhaseMeta `json:"phases"`
}

// PhaseMeta records one phase's invocation within a run.
type PhaseMeta struct {
	Phase      artifact.Phase `json:"phase"`
	CreatedAt  string         `json:"created_at"`
	CSVFile    string         `json:"csv_file"`
	ReportFile string         `json:"md_file"`
	Iterations int            `json:"iters"`
	Warmup     int            `json:"warmup"`
}

// loadMetadata reads an existing metadata record. A missing or
// unreadable file yields nil, matching the create-on-first-write
// lifecycle.
func loadMetadata(path string) *RunMetadata {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil
	}

	return &meta
}

// mergeMetadata folds a fresh phase record into the existing one, if any.
func mergeMetadata(existing *RunMetadata, fresh *RunMetadata) *RunMetadata {
	if existing == nil {
		return fresh
	}

	if existing.GitSHA != "" {
		fresh.GitSHA = existing.GitSHA
	}

	if existing.CreatedAt != "" {
		fresh.CreatedAt = existing.CreatedAt
	}

	for phase, meta := range existing.Phases {
		if _, ok := fresh.Phases[phase]; !ok {
			fresh.Phases[phase] = meta
		}
	}

	return fresh
}

// writeMetadata persists the metadata record.
func writeMetadata(path string, meta *RunMetadata) error {
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling run metadata: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing run metadata: %w", err)
	}

	return nil
}
