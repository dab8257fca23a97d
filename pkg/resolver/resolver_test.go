package resolver

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mrcocacola21/nyc-taxi-dwh-pipeline/pkg/artifact"
)

func touch(t *testing.T, dir, name string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("run_id,phase,query,iter,elapsed_ms\n"), 0o644))

	return path
}

func TestResolveByRunID(t *testing.T) {
	dir := t.TempDir()
	before := touch(t, dir, "benchmarks_r1_before.csv")
	after := touch(t, dir, "benchmarks_r1_after.csv")

	res, err := Resolve(dir, Request{RunID: "r1"})
	require.NoError(t, err)

	assert.Equal(t, before, res.BeforePath)
	assert.Equal(t, after, res.AfterPath)
	assert.Equal(t, "r1", res.RunID)
}

func TestResolveByRunIDMissingFile(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "benchmarks_r1_before.csv")

	_, err := Resolve(dir, Request{RunID: "r1"})
	require.Error(t, err)
	assert.ErrorIs(t, err, artifact.ErrNotFound)
}

func TestResolveByRunIDForeignFile(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "benchmarks_r1_after.csv")
	foreign := touch(t, dir, "benchmarks_r2_before.csv")

	// An explicit before file from another run must be rejected.
	_, err := Resolve(dir, Request{RunID: "r1", BeforeFile: foreign})
	require.Error(t, err)
	assert.ErrorIs(t, err, artifact.ErrMismatch)
}

func TestResolveByFiles(t *testing.T) {
	dir := t.TempDir()
	before := touch(t, dir, "benchmarks_r1_before.csv")
	after := touch(t, dir, "benchmarks_r1_after.csv")

	res, err := Resolve(dir, Request{BeforeFile: before, AfterFile: after})
	require.NoError(t, err)

	assert.Equal(t, "r1", res.RunID)
}

func TestResolveByFilesSingleFile(t *testing.T) {
	dir := t.TempDir()
	before := touch(t, dir, "benchmarks_r1_before.csv")

	_, err := Resolve(dir, Request{BeforeFile: before})
	require.Error(t, err)
	assert.ErrorIs(t, err, artifact.ErrInvalidArgument)
}

func TestResolveByFilesWrongPhaseSuffix(t *testing.T) {
	dir := t.TempDir()
	before := touch(t, dir, "benchmarks_r1_before.csv")
	wrong := touch(t, dir, "benchmarks_r1_before_copy.csv")

	_, err := Resolve(dir, Request{BeforeFile: before, AfterFile: wrong})
	require.Error(t, err)
	assert.ErrorIs(t, err, artifact.ErrInvalidFormat)
}

func TestResolveByFilesMismatchedRuns(t *testing.T) {
	dir := t.TempDir()
	before := touch(t, dir, "benchmarks_r1_before.csv")
	after := touch(t, dir, "benchmarks_r2_after.csv")

	_, err := Resolve(dir, Request{BeforeFile: before, AfterFile: after})
	require.Error(t, err)
	assert.ErrorIs(t, err, artifact.ErrMismatch)

	// Explicitly allowed: the pair resolves with no common run id.
	res, err := Resolve(dir, Request{
		BeforeFile: before, AfterFile: after, AllowMismatchedRuns: true,
	})
	require.NoError(t, err)
	assert.Empty(t, res.RunID)
}

func TestResolveByFilesUnparseableRunID(t *testing.T) {
	dir := t.TempDir()
	before := touch(t, dir, "export_before.csv")
	after := touch(t, dir, "benchmarks_r1_after.csv")

	_, err := Resolve(dir, Request{BeforeFile: before, AfterFile: after})
	require.Error(t, err)
	assert.ErrorIs(t, err, artifact.ErrAmbiguousRunID)

	// Allowed pairs accept grammar-free stems as long as the phase
	// suffix checks out.
	res, err := Resolve(dir, Request{
		BeforeFile: before, AfterFile: after, AllowMismatchedRuns: true,
	})
	require.NoError(t, err)
	assert.Empty(t, res.RunID)
}

func TestResolveByDiscovery(t *testing.T) {
	dir := t.TempDir()

	// r1 and r2 complete, r3 missing its after half.
	touch(t, dir, "benchmarks_r1_before.csv")
	touch(t, dir, "benchmarks_r1_after.csv")
	touch(t, dir, "benchmarks_r2_before.csv")
	touch(t, dir, "benchmarks_r2_after.csv")
	touch(t, dir, "benchmarks_r3_before.csv")
	touch(t, dir, "unrelated.csv")

	res, err := Resolve(dir, Request{})
	require.NoError(t, err)

	assert.Equal(t, "r2", res.RunID)
	assert.Equal(t, filepath.Join(dir, "benchmarks_r2_before.csv"), res.BeforePath)
	assert.Equal(t, filepath.Join(dir, "benchmarks_r2_after.csv"), res.AfterPath)
}

func TestResolveByDiscoveryNoCompletePair(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "benchmarks_r1_before.csv")

	_, err := Resolve(dir, Request{})
	require.Error(t, err)
	assert.ErrorIs(t, err, artifact.ErrNotFound)
}

func TestResolveByDiscoveryMissingDir(t *testing.T) {
	_, err := Resolve(filepath.Join(t.TempDir(), "absent"), Request{})
	require.Error(t, err)
	assert.ErrorIs(t, err, artifact.ErrNotFound)
}
