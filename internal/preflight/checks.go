package preflight

import (
	"context"
	"fmt"
	"os"
	"strings"

	"golang.org/x/sys/unix"

	"tvidentify/internal/config"
	"tvidentify/internal/deps"
	"tvidentify/internal/language"
)

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckDirectories checks the configured working directories. The output
// directory is only checked when set.
func CheckDirectories(cfg *config.Config) []Result {
	results := []Result{
		CheckDirectoryAccess("Work directory", cfg.Paths.WorkDir),
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
	}
	if cfg.Cache.Enabled {
		results = append(results, CheckDirectoryAccess("Cache directory", cfg.Paths.CacheDir))
	}
	if strings.TrimSpace(cfg.Paths.OutputDir) != "" {
		results = append(results, CheckDirectoryAccess("Output directory", cfg.Paths.OutputDir))
	}
	return results
}

// CheckSystemDeps evaluates the external tools for the given config, plus
// the tesseract language data when tesseract itself is present.
func CheckSystemDeps(ctx context.Context, cfg *config.Config) []deps.Status {
	requirements := []deps.Requirement{
		{
			Name:        "FFmpeg",
			Command:     cfg.Tools.FFmpeg,
			Description: "Required to copy subtitle streams",
		},
		{
			Name:        "FFprobe",
			Command:     cfg.Tools.FFprobe,
			Description: "Required for track discovery",
		},
		{
			Name:        "Tesseract",
			Command:     cfg.Tools.Tesseract,
			Description: "Required for subtitle OCR",
		},
	}
	statuses := deps.CheckBinaries(requirements)
	if statuses[2].Available {
		statuses = append(statuses, deps.CheckTesseractLanguage(ctx, cfg.Tools.Tesseract, ocrLanguage(cfg)))
	}
	return statuses
}

func ocrLanguage(cfg *config.Config) string {
	if lang := strings.TrimSpace(cfg.OCR.Language); lang != "" {
		return lang
	}
	return language.TesseractCode(cfg.Extraction.SubtitleLanguage)
}
