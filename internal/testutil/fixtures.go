package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// LoadTestdataFile loads a file from the project-level testdata directory
func LoadTestdataFile(t *testing.T, relativePath string) []byte {
	t.Helper()

	fullPath := GetTestdataPath(t, relativePath)
	content, err := os.ReadFile(fullPath) //nolint:gosec // test fixture path
	if err != nil {
		t.Fatalf("Failed to load testdata file %s: %v", relativePath, err)
	}

	return content
}

// GetTestdataPath returns the full path to a testdata file
func GetTestdataPath(t *testing.T, relativePath string) string {
	t.Helper()

	// Find project root by looking for go.mod
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}

	projectRoot := wd
	for {
		if _, statErr := os.Stat(filepath.Join(projectRoot, "go.mod")); statErr == nil {
			break
		}
		parent := filepath.Dir(projectRoot)
		if parent == projectRoot {
			t.Fatal("Could not find project root (go.mod)")
		}
		projectRoot = parent
	}

	return filepath.Join(projectRoot, "testdata", relativePath)
}
