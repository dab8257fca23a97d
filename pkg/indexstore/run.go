package indexstore

import "time"

// Run represents one indexed benchmark invocation: a (run id, phase)
// pair with its artifact locations and denormalized timing stats.
type Run struct {
	ID     uint   `gorm:"primaryKey"`
	RunID  string `gorm:"not null;uniqueIndex:idx_runs_run_phase"`
	Phase  string `gorm:"not null;uniqueIndex:idx_runs_run_phase"`
	GitSHA string

	Iterations int
	Warmup     int
	Queries    int

	// TotalMedianMS is the sum of per-query medians, a cheap headline
	// number for run listings.
	TotalMedianMS float64

	CSVPath    string
	ReportPath string

	IndexedAt time.Time
}
