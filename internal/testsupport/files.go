package testsupport

import (
	"os"
	"path/filepath"
	"testing"
)

// WriteImage creates a placeholder image file for pipeline tests and returns
// its path.
func WriteImage(t testing.TB, dir, name string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte("\x89PNG\r\n\x1a\nstub"), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}
