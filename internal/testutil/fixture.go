// Package testutil provides helpers for tests that need a TypeScript project on disk.
package testutil

import (
	"os"
	"path/filepath"
	"sort"
	"testing"
)

// DefaultTSConfig is written when a fixture does not provide its own tsconfig.json.
const DefaultTSConfig = `{
  "compilerOptions": {
    "target": "es2020",
    "module": "esnext",
    "strict": true
  }
}
`

// WriteProject writes files (slash-separated relative path -> content) into a
// fresh temporary directory and returns its absolute path. A tsconfig.json is
// added at the root unless files already contains one.
func WriteProject(t *testing.T, files map[string]string) string {
	t.Helper()

	root := t.TempDir()
	if _, ok := files["tsconfig.json"]; !ok {
		WriteFile(t, root, "tsconfig.json", DefaultTSConfig)
	}

	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		WriteFile(t, root, name, files[name])
	}
	return root
}

// WriteFile writes content to root/name, creating parent directories.
func WriteFile(t *testing.T, root, name, content string) {
	t.Helper()

	path := filepath.Join(root, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("Failed to create directory for %s: %v", name, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write %s: %v", name, err)
	}
}

// ReadFile returns the content of root/name, failing the test on error.
func ReadFile(t *testing.T, root, name string) string {
	t.Helper()

	data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(name)))
	if err != nil {
		t.Fatalf("Failed to read %s: %v", name, err)
	}
	return string(data)
}
