package harness

import (
	"math"
	"slices"
)

// QuerySummary contains aggregated timing statistics for a single query.
type QuerySummary struct {
	Query    string
	Count    int
	MinMS    float64
	MaxMS    float64
	MeanMS   float64
	MedianMS float64
	P95MS    float64
}

// summarize computes the summary statistics for one query's samples.
func summarize(query string, samples []float64) QuerySummary {
	if len(samples) == 0 {
		nan := math.NaN()

		return QuerySummary{
			Query: query,
			MinMS: nan, MaxMS: nan, MeanMS: nan, MedianMS: nan, P95MS: nan,
		}
	}

	sorted := make([]float64, len(samples))
	copy(sorted, samples)
	slices.Sort(sorted)

	var sum float64
	for _, s := range sorted {
		sum += s
	}

	return QuerySummary{
		Query:    query,
		Count:    len(samples),
		MinMS:    sorted[0],
		MaxMS:    sorted[len(sorted)-1],
		MeanMS:   sum / float64(len(samples)),
		MedianMS: percentileSorted(sorted, 0.5),
		P95MS:    percentileSorted(sorted, 0.95),
	}
}

// percentileSorted selects the nearest-rank percentile from an already
// sorted sample: index = round((n-1)*p), with exact halves resolved
// downward. The tie-break is part of the artifact contract; comparison
// reports depend on it being reproduced exactly.
func percentileSorted(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return math.NaN()
	}

	idx := int(math.Ceil(p*float64(n-1) - 0.5))
	if idx < 0 {
		idx = 0
	}

	if idx >= n {
		idx = n - 1
	}

	return sorted[idx]
}

// round3 rounds to 3 decimals, the precision of recorded elapsed times.
func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
