package harness

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPercentileSorted(t *testing.T) {
	tests := []struct {
		name   string
		sorted []float64
		p      float64
		want   float64
	}{
		{
			name:   "median of even count resolves downward",
			sorted: []float64{10, 20, 30, 40},
			p:      0.5,
			want:   20,
		},
		{
			name:   "p95 of small sample",
			sorted: []float64{10, 20, 30, 40},
			p:      0.95,
			want:   40,
		},
		{
			name:   "median of odd count",
			sorted: []float64{1, 2, 3},
			p:      0.5,
			want:   2,
		},
		{
			name:   "single sample",
			sorted: []float64{7.5},
			p:      0.95,
			want:   7.5,
		},
		{
			name:   "p0 is the minimum",
			sorted: []float64{1, 2, 3, 4, 5},
			p:      0,
			want:   1,
		},
		{
			name:   "p100 is the maximum",
			sorted: []float64{1, 2, 3, 4, 5},
			p:      1,
			want:   5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, percentileSorted(tt.sorted, tt.p))
		})
	}
}

func TestPercentileSortedEmpty(t *testing.T) {
	assert.True(t, math.IsNaN(percentileSorted(nil, 0.5)))
}

func TestSummarize(t *testing.T) {
	// Unsorted input; summarize sorts a copy.
	s := summarize("q1", []float64{30, 10, 40, 20})

	assert.Equal(t, "q1", s.Query)
	assert.Equal(t, 4, s.Count)
	assert.Equal(t, 10.0, s.MinMS)
	assert.Equal(t, 40.0, s.MaxMS)
	assert.Equal(t, 25.0, s.MeanMS)
	assert.Equal(t, 20.0, s.MedianMS)
	assert.Equal(t, 40.0, s.P95MS)
}

func TestSummarizeDoesNotMutateInput(t *testing.T) {
	samples := []float64{3, 1, 2}
	summarize("q1", samples)

	assert.Equal(t, []float64{3, 1, 2}, samples)
}

func TestSummarizeEmpty(t *testing.T) {
	s := summarize("q1", nil)

	require.Equal(t, 0, s.Count)
	assert.True(t, math.IsNaN(s.MedianMS))
	assert.True(t, math.IsNaN(s.MeanMS))
}

func TestRound3(t *testing.T) {
	assert.Equal(t, 1.235, round3(1.23456))
	assert.Equal(t, 0.001, round3(0.0009999999))
	assert.Equal(t, 12.0, round3(12))
}
