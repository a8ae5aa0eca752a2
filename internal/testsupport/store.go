package testsupport

import (
	"testing"

	"tvidentify/internal/cache"
	"tvidentify/internal/config"
)

// MustOpenCache opens the extraction cache under cfg.Paths.CacheDir and
// registers cleanup.
func MustOpenCache(t testing.TB, cfg *config.Config) *cache.Cache {
	t.Helper()

	c, err := cache.Open(cfg.Paths.CacheDir, nil)
	if err != nil {
		t.Fatalf("cache.Open: %v", err)
	}
	t.Cleanup(func() {
		c.Close()
	})
	return c
}
