// Package config loads, normalizes, and validates tvidentify configuration.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// TVIDENTIFY_TESSERACT and TESSDATA_PREFIX. The Config type centralizes the
// extraction window, OCR and filter thresholds, cache and logging settings so
// the CLI and the pipeline read every knob from one place.
package config
