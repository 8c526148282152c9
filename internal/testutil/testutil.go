// Package testutil provides testing utilities for weft tests.
package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// SetupWorkspace creates a temporary directory holding the given files.
// The files map contains relative paths to file contents. The directory is
// cleaned up when the test completes.
func SetupWorkspace(t *testing.T, files map[string]string) string {
	t.Helper()

	dir := t.TempDir()
	for path, content := range files {
		WriteFile(t, dir, path, content)
	}
	return dir
}

// WriteFile creates or replaces a file below dir, creating parent
// directories as needed. It returns the absolute path of the file.
func WriteFile(t *testing.T, dir, path, content string) string {
	t.Helper()

	fullPath := filepath.Join(dir, path)
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		t.Fatalf("failed to create directory for %s: %v", path, err)
	}
	if err := os.WriteFile(fullPath, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write file %s: %v", path, err)
	}
	return fullPath
}

// ReadFile returns the contents of a file below dir, failing the test if it
// cannot be read.
func ReadFile(t *testing.T, dir, path string) string {
	t.Helper()

	data, err := os.ReadFile(filepath.Join(dir, path))
	if err != nil {
		t.Fatalf("failed to read file %s: %v", path, err)
	}
	return string(data)
}

// FileExists reports whether path exists below dir.
func FileExists(t *testing.T, dir, path string) bool {
	t.Helper()

	_, err := os.Stat(filepath.Join(dir, path))
	return err == nil
}
