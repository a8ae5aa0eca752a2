package ocr

import (
	"regexp"
	"strings"
)

var (
	leadingBarPattern = regexp.MustCompile(`(?m)^\|`)
	sdhPattern        = regexp.MustCompile(`[(\[].*?[)\]]`)
	ocrFixes          = strings.NewReplacer("l'm", "I'm", "l'll", "I'll", "♪", "")
)

// Clean repairs common subtitle OCR misreads and strips hearing-impaired
// annotations. A bar at the start of a line becomes "I", bracketed or
// parenthesized SDH tags and music notes are removed, and whitespace is
// collapsed to single spaces.
func Clean(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}
	text = leadingBarPattern.ReplaceAllString(text, "I")
	text = ocrFixes.Replace(text)
	text = sdhPattern.ReplaceAllString(text, "")
	return strings.Join(strings.Fields(text), " ")
}
