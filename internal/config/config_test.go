package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"

	"tvidentify/internal/config"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("TESSDATA_PREFIX", "")
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}
	if resolved != filepath.Join(tempHome, ".config", "tvidentify", "config.toml") {
		t.Fatalf("unexpected resolved path %q", resolved)
	}
	if cfg.Paths.CacheDir != filepath.Join(tempHome, ".cache", "tvidentify") {
		t.Fatalf("unexpected cache dir %q", cfg.Paths.CacheDir)
	}
	if cfg.Offset() != 0 || cfg.ScanDuration() != 15*time.Minute {
		t.Fatalf("unexpected window %v+%v", cfg.Offset(), cfg.ScanDuration())
	}
	if cfg.Extraction.SubtitleTrack != -1 || cfg.Extraction.SubtitleLanguage != "en" {
		t.Fatalf("unexpected track selection %+v", cfg.Extraction)
	}
	if cfg.Filter.MinLetters != 2 || cfg.Filter.MinValidRatio != 0.75 {
		t.Fatalf("unexpected filter defaults %+v", cfg.Filter)
	}
	if cfg.CacheMaxAge() != 30*24*time.Hour {
		t.Fatalf("unexpected cache max age %v", cfg.CacheMaxAge())
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{cfg.Paths.WorkDir, cfg.Paths.CacheDir, cfg.Paths.LogDir} {
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
	}
}

func TestLoadCustomPath(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "tvidentify.toml")
	contents := `
[extraction]
offset_minutes = 2
scan_duration_minutes = 5
max_frames = 3
subtitle_language = "fre"

[filter]
min_valid_ratio = 0.5

[logging]
format = "JSON"
`
	if err := os.WriteFile(configPath, []byte(contents), 0o644); err != nil {
		t.Fatalf("write custom config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != configPath {
		t.Fatalf("unexpected resolution %q exists=%v", resolved, exists)
	}
	if cfg.Offset() != 2*time.Minute || cfg.ScanDuration() != 5*time.Minute || cfg.Extraction.MaxFrames != 3 {
		t.Fatalf("unexpected extraction settings %+v", cfg.Extraction)
	}
	if cfg.Extraction.SubtitleLanguage != "fr" {
		t.Fatalf("expected language normalized to fr, got %q", cfg.Extraction.SubtitleLanguage)
	}
	if cfg.Filter.MinValidRatio != 0.5 || cfg.Filter.MinLetters != 2 {
		t.Fatalf("expected partial override, got %+v", cfg.Filter)
	}
	if cfg.Logging.Format != "json" {
		t.Fatalf("expected lower-cased log format, got %q", cfg.Logging.Format)
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "tvidentify.toml")
	if err := os.WriteFile(configPath, []byte("[extraction]\noffset_minute = 2\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, _, _, err := config.Load(configPath); err == nil {
		t.Fatal("expected unknown key to be rejected")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("TVIDENTIFY_TESSERACT", "/opt/tesseract/bin/tesseract")
	t.Setenv("TESSDATA_PREFIX", "/opt/tessdata")
	t.Chdir(t.TempDir())

	cfg, _, _, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Tools.Tesseract != "/opt/tesseract/bin/tesseract" {
		t.Fatalf("expected tesseract from env, got %q", cfg.Tools.Tesseract)
	}
	if cfg.OCR.TessdataDir != "/opt/tessdata" {
		t.Fatalf("expected tessdata from env, got %q", cfg.OCR.TessdataDir)
	}
}

func TestCreateSampleDecodesToDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}
	contents, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}

	cfg := config.Default()
	decoder := toml.NewDecoder(strings.NewReader(string(contents)))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&cfg); err != nil {
		t.Fatalf("decode sample: %v", err)
	}
	want := config.Default()
	if cfg.Extraction != want.Extraction || cfg.OCR != want.OCR || cfg.Filter != want.Filter || cfg.Cache != want.Cache {
		t.Fatalf("sample drifted from defaults:\n got %+v\nwant %+v", cfg, want)
	}
}

func TestMarshalRoundTrip(t *testing.T) {
	cfg := config.Default()
	cfg.Extraction.MaxFrames = 7
	data, err := cfg.Marshal()
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var decoded config.Config
	if err := toml.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if decoded.Extraction.MaxFrames != 7 {
		t.Fatalf("expected max_frames 7, got %d", decoded.Extraction.MaxFrames)
	}
}

func TestValidateDetectsInvalidValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"negative offset", func(c *config.Config) { c.Extraction.OffsetMinutes = -1 }},
		{"negative frames", func(c *config.Config) { c.Extraction.MaxFrames = -5 }},
		{"bad track", func(c *config.Config) { c.Extraction.SubtitleTrack = -2 }},
		{"zero jobs", func(c *config.Config) { c.Extraction.Jobs = 0 }},
		{"ratio above one", func(c *config.Config) { c.Filter.MinValidRatio = 1.5 }},
		{"dedupe below zero", func(c *config.Config) { c.Filter.DedupeSimilarity = -0.1 }},
		{"scale zero", func(c *config.Config) { c.OCR.ScaleFactor = 0 }},
		{"psm out of range", func(c *config.Config) { c.OCR.PageSegMode = 14 }},
		{"bad log format", func(c *config.Config) { c.Logging.Format = "xml" }},
		{"bad log level", func(c *config.Config) { c.Logging.Level = "trace" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
	cfg := config.Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}
