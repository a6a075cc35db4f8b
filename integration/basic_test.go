//go:build basic

package integration

import (
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestCqscopeVersion verifies the binary reports version details.
func TestCqscopeVersion(t *testing.T) {
	binaryPath := getCqscopeBinary()
	output, err := exec.Command(binaryPath, "version").CombinedOutput()
	require.NoError(t, err)
	assert.Contains(t, string(output), "cqscope CLI")
	assert.Contains(t, string(output), "Version:")
}

// TestCqscopeClassifyOutputs exercises classification across output formats.
func TestCqscopeClassifyOutputs(t *testing.T) {
	fixture := writeFixtureCSV(t)

	err := runCqscopeCommand(t, "classify", fixture)
	require.NoError(t, err)

	err = runCqscopeCommand(t, "classify", fixture, "--site", "alpha", "--output", "json")
	require.NoError(t, err)

	csvFile := filepath.Join(t.TempDir(), "phases.csv")
	err = runCqscopeCommand(t, "classify", fixture, "--output", "csv", "--output-file", csvFile)
	require.NoError(t, err)
	assert.FileExists(t, csvFile)
}

// TestCqscopeMetricsOutputs exercises event metrics across output formats.
func TestCqscopeMetricsOutputs(t *testing.T) {
	fixture := writeFixtureCSV(t)

	err := runCqscopeCommand(t, "metrics", fixture)
	require.NoError(t, err)

	err = runCqscopeCommand(t, "metrics", fixture, "--output", "json")
	require.NoError(t, err)
}

// TestCqscopeSQLiteRunTracking exercises the full run tracking loop on SQLite.
func TestCqscopeSQLiteRunTracking(t *testing.T) {
	fixture := writeFixtureCSV(t)

	t.Setenv("CQSCOPE_RUNS_BACKEND", "sqlite")

	err := runCqscopeCommand(t, "runs", "clear")
	require.NoError(t, err)

	err = runCqscopeCommand(t, "runs", "migrate")
	require.NoError(t, err)

	err = runCqscopeCommand(t, "classify", fixture)
	require.NoError(t, err)

	err = runCqscopeCommand(t, "runs", "status")
	require.NoError(t, err)

	err = runCqscopeCommand(t, "runs", "list")
	require.NoError(t, err)

	exportFile := filepath.Join(t.TempDir(), "export.parquet")
	err = runCqscopeCommand(t, "runs", "export", "--output-file", exportFile)
	require.NoError(t, err)
	assert.FileExists(t, exportFile+".runs.parquet")
	assert.FileExists(t, exportFile+".segment_rows.parquet")

	err = runCqscopeCommand(t, "runs", "clear")
	require.NoError(t, err)
}
