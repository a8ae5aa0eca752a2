package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateExtraction(); err != nil {
		return err
	}
	if err := c.validateOCR(); err != nil {
		return err
	}
	if err := c.validateFilter(); err != nil {
		return err
	}
	if err := c.validateCache(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateExtraction() error {
	if err := ensureNonNegativeMap(map[string]int{
		"extraction.offset_minutes":        c.Extraction.OffsetMinutes,
		"extraction.scan_duration_minutes": c.Extraction.ScanDurationMinutes,
		"extraction.max_frames":            c.Extraction.MaxFrames,
	}); err != nil {
		return err
	}
	if c.Extraction.SubtitleTrack < -1 {
		return errors.New("extraction.subtitle_track must be -1 (auto) or a stream index")
	}
	if c.Extraction.Jobs <= 0 {
		return errors.New("extraction.jobs must be positive")
	}
	return nil
}

func (c *Config) validateOCR() error {
	if c.OCR.EngineMode < 0 || c.OCR.EngineMode > 3 {
		return errors.New("ocr.engine_mode must be between 0 and 3")
	}
	if c.OCR.PageSegMode < 0 || c.OCR.PageSegMode > 13 {
		return errors.New("ocr.page_seg_mode must be between 0 and 13")
	}
	if c.OCR.ScaleFactor < 1 || c.OCR.ScaleFactor > 8 {
		return errors.New("ocr.scale_factor must be between 1 and 8")
	}
	if c.OCR.Border < 0 {
		return errors.New("ocr.border must not be negative")
	}
	return nil
}

func (c *Config) validateFilter() error {
	if c.Filter.MinLetters < 0 {
		return errors.New("filter.min_letters must not be negative")
	}
	if c.Filter.MinValidRatio < 0 || c.Filter.MinValidRatio > 1 {
		return errors.New("filter.min_valid_ratio must be between 0 and 1")
	}
	if c.Filter.DedupeSimilarity < 0 || c.Filter.DedupeSimilarity > 1 {
		return errors.New("filter.dedupe_similarity must be between 0 and 1")
	}
	return nil
}

func (c *Config) validateCache() error {
	if c.Cache.MaxAgeDays < 0 {
		return errors.New("cache.max_age_days must not be negative")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}

func ensureNonNegativeMap(values map[string]int) error {
	for key, value := range values {
		if value < 0 {
			return fmt.Errorf("%s must not be negative", key)
		}
	}
	return nil
}
