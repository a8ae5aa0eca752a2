package config

const (
	defaultConfigPath          = "~/.config/tvidentify/config.toml"
	projectConfigName          = "tvidentify.toml"
	defaultWorkDir             = "~/.cache/tvidentify/work"
	defaultCacheDir            = "~/.cache/tvidentify"
	defaultLogDir              = "~/.local/share/tvidentify/logs"
	defaultOffsetMinutes       = 0
	defaultScanDurationMinutes = 15
	defaultSubtitleLanguage    = "en"
	defaultJobs                = 2
	defaultOCRLanguage         = "eng"
	defaultOCREngineMode       = 3
	defaultOCRPageSegMode      = 6
	defaultOCRScaleFactor      = 3
	defaultOCRBorder           = 20
	defaultMinLetters          = 2
	defaultMinValidRatio       = 0.75
	defaultDedupeSimilarity    = 0.9
	defaultCacheMaxAgeDays     = 30
	defaultLogFormat           = "console"
	defaultLogLevel            = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			WorkDir:  defaultWorkDir,
			CacheDir: defaultCacheDir,
			LogDir:   defaultLogDir,
		},
		Tools: Tools{
			FFmpeg:    "ffmpeg",
			FFprobe:   "ffprobe",
			Tesseract: "tesseract",
		},
		Extraction: Extraction{
			OffsetMinutes:       defaultOffsetMinutes,
			ScanDurationMinutes: defaultScanDurationMinutes,
			SubtitleLanguage:    defaultSubtitleLanguage,
			SubtitleTrack:       -1,
			Jobs:                defaultJobs,
		},
		OCR: OCR{
			Language:    defaultOCRLanguage,
			EngineMode:  defaultOCREngineMode,
			PageSegMode: defaultOCRPageSegMode,
			ScaleFactor: defaultOCRScaleFactor,
			Border:      defaultOCRBorder,
			Cleanup:     true,
		},
		Filter: Filter{
			MinLetters:       defaultMinLetters,
			MinValidRatio:    defaultMinValidRatio,
			DedupeSimilarity: defaultDedupeSimilarity,
		},
		Cache: Cache{
			Enabled:    true,
			MaxAgeDays: defaultCacheMaxAgeDays,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
