package config

import (
	"fmt"
	"os"
	"strings"

	"tvidentify/internal/language"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeTools()
	c.normalizeExtraction()
	c.normalizeOCR()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.WorkDir) == "" {
		c.Paths.WorkDir = defaultWorkDir
	}
	if c.Paths.WorkDir, err = expandPath(c.Paths.WorkDir); err != nil {
		return fmt.Errorf("paths.work_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.CacheDir) == "" {
		c.Paths.CacheDir = defaultCacheDir
	}
	if c.Paths.CacheDir, err = expandPath(c.Paths.CacheDir); err != nil {
		return fmt.Errorf("paths.cache_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(strings.TrimSpace(c.Paths.LogDir)); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if c.Paths.OutputDir, err = expandPath(strings.TrimSpace(c.Paths.OutputDir)); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeTools() {
	if value, ok := os.LookupEnv("TVIDENTIFY_TESSERACT"); ok && strings.TrimSpace(value) != "" {
		c.Tools.Tesseract = strings.TrimSpace(value)
	}
	c.Tools.FFmpeg = defaultIfBlank(c.Tools.FFmpeg, "ffmpeg")
	c.Tools.FFprobe = defaultIfBlank(c.Tools.FFprobe, "ffprobe")
	c.Tools.Tesseract = defaultIfBlank(c.Tools.Tesseract, "tesseract")
}

func (c *Config) normalizeExtraction() {
	c.Extraction.SubtitleLanguage = strings.ToLower(strings.TrimSpace(c.Extraction.SubtitleLanguage))
	if iso := language.ToISO2(c.Extraction.SubtitleLanguage); iso != "" {
		c.Extraction.SubtitleLanguage = iso
	}
	if c.Extraction.Jobs <= 0 {
		c.Extraction.Jobs = defaultJobs
	}
}

func (c *Config) normalizeOCR() {
	c.OCR.Language = strings.TrimSpace(c.OCR.Language)
	if c.OCR.Language == "" {
		c.OCR.Language = language.TesseractCode(c.Extraction.SubtitleLanguage)
	}
	c.OCR.TessdataDir = strings.TrimSpace(c.OCR.TessdataDir)
	if c.OCR.TessdataDir == "" {
		if value, ok := os.LookupEnv("TESSDATA_PREFIX"); ok {
			c.OCR.TessdataDir = strings.TrimSpace(value)
		}
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

func defaultIfBlank(value, fallback string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return fallback
	}
	return value
}
