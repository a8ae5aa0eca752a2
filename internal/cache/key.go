package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Key identifies one extraction.
type Key struct {
	Path      string
	Size      int64
	ModTime   time.Time
	Track     int
	Language  string
	Offset    time.Duration
	Duration  time.Duration
	MaxEvents int
	// Variant covers settings outside the window, e.g. OCR language or
	// filter thresholds.
	Variant string
}

// KeyForFile fills Path, Size and ModTime from the file at path.
func KeyForFile(path string) (Key, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return Key{}, fmt.Errorf("resolve path: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return Key{}, fmt.Errorf("stat source: %w", err)
	}
	if info.IsDir() {
		return Key{}, fmt.Errorf("source %q is a directory", abs)
	}
	return Key{Path: abs, Size: info.Size(), ModTime: info.ModTime().UTC()}, nil
}

// Hash returns the hex digest stored as the cache key.
func (k Key) Hash() string {
	sum := sha256.Sum256(fmt.Appendf(nil, "%s\x00%d\x00%d\x00%d\x00%s\x00%d\x00%d\x00%d\x00%s",
		k.Path, k.Size, k.ModTime.UnixNano(), k.Track, k.Language,
		k.Offset, k.Duration, k.MaxEvents, k.Variant))
	return hex.EncodeToString(sum[:])
}
