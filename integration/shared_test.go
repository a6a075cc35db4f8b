//go:build basic || database

// Package integration contains integration tests for cqscope.
// These tests are excluded from normal test runs due to build tags.
// To run these tests: go test -tags basic ./integration
// Database tests need Docker: go test -tags database ./integration
package integration

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"testing"
)

var (
	// sharedBinaryPath holds the path to a shared cqscope binary built once for all tests.
	sharedBinaryPath string

	// buildOnce ensures we only build the binary once.
	buildOnce sync.Once

	// buildMutex protects the shared binary path.
	buildMutex sync.Mutex

	// tempDir holds the temp directory for cleanup.
	tempDir string
)

// TestMain handles setup and cleanup for all integration tests.
func TestMain(m *testing.M) {
	// Run all tests
	code := m.Run()

	// Cleanup the shared binary after all tests
	if tempDir != "" {
		_ = os.RemoveAll(tempDir)
	}

	os.Exit(code)
}

// getCqscopeBinary returns the path to the cqscope binary, building it once if needed.
func getCqscopeBinary() string {
	buildMutex.Lock()
	defer buildMutex.Unlock()

	buildOnce.Do(func() {
		// Create a temp directory for the binary
		var err error
		tempDir, err = os.MkdirTemp("", "cqscope-integration-*")
		if err != nil {
			panic(fmt.Sprintf("failed to create temp dir: %v", err))
		}

		binaryPath := filepath.Join(tempDir, "cqscope")
		buildCmd := exec.Command("go", "build", "-o", binaryPath, ".")
		buildCmd.Dir = ".." // Build from parent directory (project root)
		err = buildCmd.Run()
		if err != nil {
			panic(fmt.Sprintf("failed to build cqscope: %v", err))
		}

		sharedBinaryPath = binaryPath
	})

	return sharedBinaryPath
}

// writeFixtureCSV writes a two-site observation file with enough samples
// for the rolling window and the event metrics calculators.
func writeFixtureCSV(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "observations.csv")
	rows := []string{"site_id,date,Q,C"}
	qs := []float64{1.0, 1.4, 2.1, 3.6, 5.8, 8.0, 9.5, 8.2, 6.1, 4.0, 2.4, 1.3}
	cs := []float64{10.0, 11.5, 13.8, 17.2, 21.0, 24.5, 26.0, 22.1, 18.4, 15.0, 12.2, 10.6}
	for _, site := range []string{"alpha", "beta"} {
		for i := range qs {
			rows = append(rows, fmt.Sprintf("%s,2024-03-%02dT00:00:00Z,%.2f,%.2f", site, i+1, qs[i], cs[i]))
		}
	}

	content := ""
	for _, row := range rows {
		content += row + "\n"
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}
	return path
}

func runCqscopeCommand(t *testing.T, args ...string) error {
	t.Helper()

	binaryPath := getCqscopeBinary()
	cmd := exec.Command(binaryPath, args...)
	cmd.Dir = "../" // Run from project root
	output, err := cmd.CombinedOutput()
	if err != nil {
		t.Logf("Command failed: %s\nOutput: %s", cmd.String(), string(output))
		return err
	}
	return nil
}
