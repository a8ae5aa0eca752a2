package subtitles

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"tvidentify/internal/fileutil"
	"tvidentify/internal/textutil"
)

// OutputSuffix is appended to the source base name by WriteJSON.
const OutputSuffix = "_subtitles.json"

// OutputPath returns the file WriteJSON uses for res inside dir.
func OutputPath(dir string, res *Result) string {
	base := filepath.Base(res.Source)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	base = textutil.SanitizeFileName(base)
	return filepath.Join(dir, base+OutputSuffix)
}

// WriteJSON writes res as indented JSON into dir and returns the path. Results
// are never written next to the source, so dir is required.
func WriteJSON(dir string, res *Result) (string, error) {
	if res == nil {
		return "", fmt.Errorf("write subtitles: nil result")
	}
	if strings.TrimSpace(dir) == "" {
		return "", fmt.Errorf("write subtitles: output directory is required")
	}
	path := OutputPath(dir, res)
	data, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode subtitles: %w", err)
	}
	data = append(data, '\n')
	if err := fileutil.WriteFileAtomic(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write subtitles: %w", err)
	}
	return path, nil
}
