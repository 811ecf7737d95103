package testsupport

import (
	"os"
	"path/filepath"
	"testing"
)

// WriteFile creates path, and any missing parent directories, with size bytes
// of deterministic content. A size <= 0 still produces a one-byte file so the
// path exists and stats cleanly.
func WriteFile(t testing.TB, path string, size int64) {
	t.Helper()

	if size <= 0 {
		size = 1
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}

	data := make([]byte, size)
	for i := range data {
		data[i] = byte('a' + i%26)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
