package artifact

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
)

// Measurement is one measured query iteration. Rows are append-only
// within one CSV file per (run id, phase); warmup iterations are never
// recorded.
type Measurement struct {
	RunID     string
	Phase     Phase
	Query     string
	Iteration int
	ElapsedMS float64
}

// csvHeader is the fixed column order of measurement CSV artifacts.
var csvHeader = []string{"run_id", "phase", "query", "iter", "elapsed_ms"}

// WriteCSV writes the full measurement table to path. Elapsed times are
// written rounded to 3 decimals, matching the artifact contract.
func WriteCSV(path string, measurements []Measurement) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating measurement file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)

	if err := w.Write(csvHeader); err != nil {
		return fmt.Errorf("writing csv header: %w", err)
	}

	for _, m := range measurements {
		record := []string{
			m.RunID,
			string(m.Phase),
			m.Query,
			strconv.Itoa(m.Iteration),
			strconv.FormatFloat(m.ElapsedMS, 'f', 3, 64),
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("writing csv record: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flushing csv: %w", err)
	}

	return f.Close()
}

// ReadCSV loads a measurement table written by WriteCSV.
func ReadCSV(path string) ([]Measurement, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening measurement file: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	if len(records) == 0 {
		return nil, fmt.Errorf("reading %s: empty measurement file", path)
	}

	measurements := make([]Measurement, 0, len(records)-1)

	for i, record := range records[1:] {
		if len(record) != len(csvHeader) {
			return nil, fmt.Errorf("reading %s: row %d has %d columns, want %d",
				path, i+2, len(record), len(csvHeader))
		}

		iter, err := strconv.Atoi(record[3])
		if err != nil {
			return nil, fmt.Errorf("reading %s: row %d: bad iteration: %w", path, i+2, err)
		}

		elapsed, err := strconv.ParseFloat(record[4], 64)
		if err != nil {
			return nil, fmt.Errorf("reading %s: row %d: bad elapsed_ms: %w", path, i+2, err)
		}

		measurements = append(measurements, Measurement{
			RunID:     record[0],
			Phase:     Phase(record[1]),
			Query:     record[2],
			Iteration: iter,
			ElapsedMS: elapsed,
		})
	}

	return measurements, nil
}
