package artifact

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteCSVFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "benchmarks_r1_before.csv")

	err := WriteCSV(path, []Measurement{
		{RunID: "r1", Phase: PhaseBefore, Query: "q1", Iteration: 0, ElapsedMS: 12.3456},
		{RunID: "r1", Phase: PhaseBefore, Query: "q1", Iteration: 1, ElapsedMS: 10},
	})
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "run_id,phase,query,iter,elapsed_ms", lines[0])
	assert.Equal(t, "r1,before,q1,0,12.346", lines[1])
	assert.Equal(t, "r1,before,q1,1,10.000", lines[2])
}

func TestReadCSVRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "benchmarks_r1_after.csv")

	want := []Measurement{
		{RunID: "r1", Phase: PhaseAfter, Query: "q1", Iteration: 0, ElapsedMS: 5.125},
		{RunID: "r1", Phase: PhaseAfter, Query: "q2", Iteration: 0, ElapsedMS: 0.001},
	}

	require.NoError(t, WriteCSV(path, want))

	got, err := ReadCSV(path)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestReadCSVRejectsBadRows(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{
			name:    "empty file",
			content: "",
		},
		{
			name:    "non-numeric elapsed",
			content: "run_id,phase,query,iter,elapsed_ms\nr1,before,q1,0,fast\n",
		},
		{
			name:    "non-numeric iteration",
			content: "run_id,phase,query,iter,elapsed_ms\nr1,before,q1,one,1.0\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "benchmarks_r1_before.csv")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o644))

			_, err := ReadCSV(path)
			require.Error(t, err)
		})
	}
}

func TestReadCSVMissingFile(t *testing.T) {
	_, err := ReadCSV(filepath.Join(t.TempDir(), "nope.csv"))
	require.Error(t, err)
}
