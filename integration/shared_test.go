//go:build basic || database

// Package integration runs the runlens binary end to end against real catalogs.
// These tests are excluded from normal test runs due to build tags.
// To run them: go test -tags basic ./integration (SQLite only)
// Or: go test -tags database ./integration (MySQL and PostgreSQL containers)
package integration

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"testing"
)

var (
	// sharedRunlensPath holds the path to a shared runlens binary built once for all tests.
	sharedRunlensPath string

	// buildOnce ensures we only build the binary once.
	buildOnce sync.Once

	// buildMutex protects the shared binary path.
	buildMutex sync.Mutex

	// tempDir holds the temp directory for cleanup.
	tempDir string
)

// TestMain handles setup and cleanup for all integration tests.
func TestMain(m *testing.M) {
	code := m.Run()

	// Cleanup the shared binary after all tests
	if tempDir != "" {
		_ = os.RemoveAll(tempDir)
	}

	os.Exit(code)
}

// getRunlensBinary returns the path to the runlens binary, building it once if needed.
func getRunlensBinary() string {
	buildMutex.Lock()
	defer buildMutex.Unlock()

	buildOnce.Do(func() {
		var err error
		tempDir, err = os.MkdirTemp("", "runlens-integration-*")
		if err != nil {
			panic(fmt.Sprintf("failed to create temp dir: %v", err))
		}

		runlensPath := filepath.Join(tempDir, "runlens")
		buildCmd := exec.Command("go", "build", "-o", runlensPath, ".")
		buildCmd.Dir = ".." // Build from parent directory (project root)
		if err := buildCmd.Run(); err != nil {
			panic(fmt.Sprintf("failed to build runlens: %v", err))
		}

		sharedRunlensPath = runlensPath
	})

	return sharedRunlensPath
}

// catalogEnv points the binary at a catalog without touching the test process environment.
func catalogEnv(backend, dsn string) []string {
	return append(os.Environ(),
		"RUNLENS_CATALOG_BACKEND="+backend,
		"RUNLENS_CATALOG_DB_CONNECT="+dsn,
		"RUNLENS_COLOR=no",
	)
}

// runRunlens runs the binary and returns its stdout. Stderr is logged on failure.
func runRunlens(t *testing.T, env []string, args ...string) (string, error) {
	t.Helper()
	cmd := exec.Command(getRunlensBinary(), args...)
	cmd.Dir = t.TempDir() // keep stray config files out of the way
	cmd.Env = env
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		t.Logf("Command failed: %s\nStdout: %s\nStderr: %s", cmd.String(), stdout.String(), stderr.String())
		return stdout.String(), err
	}
	return stdout.String(), nil
}

// seedAndQuery migrates and seeds a catalog, then runs every read command against it.
func seedAndQuery(t *testing.T, env []string) {
	t.Helper()
	steps := [][]string{
		{"catalog", "migrate"},
		{"catalog", "seed", "--days", "7", "--seed", "42"},
		{"catalog", "status"},
		{"dashboard", "--limit", "5"},
		{"dashboard", "--business-unit", "ClientRepo", "--output", "json"},
		{"analytics", "--output", "csv"},
		{"analytics", "--metric", "reliability", "--output", "json"},
	}
	for _, args := range steps {
		_, err := runRunlens(t, env, args...)
		if err != nil {
			t.Fatalf("runlens %v: %v", args, err)
		}
	}
}
