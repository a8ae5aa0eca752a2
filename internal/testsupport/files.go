package testsupport

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

// WriteFile creates a placeholder media file of size bytes, creating parent
// directories. Its content is never parsed; the cache keys on size and
// mtime only. A size <= 0 writes a single byte.
func WriteFile(t testing.TB, path string, size int64) {
	t.Helper()
	writeBytes(t, path, bytes.Repeat([]byte{0x47}, int(max(size, 1))))
}

// WriteSUP writes a raw PGS stream, typically built with PGSStream, to path.
func WriteSUP(t testing.TB, path string, stream *PGSStream) {
	t.Helper()
	writeBytes(t, path, stream.Bytes())
}

func writeBytes(t testing.TB, path string, data []byte) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
