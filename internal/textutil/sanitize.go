package textutil

import (
	"strings"
	"unicode"
)

// fallbackFileName is used when nothing printable survives sanitizing.
const fallbackFileName = "subtitles"

// SanitizeFileName makes a source base name safe for a result file. Path
// separators, colons and asterisks become dashes. Quotes, wildcards, angle
// brackets, pipes and other control characters are dropped. Runs of whitespace,
// tabs and newlines included, collapse to one space.
func SanitizeFileName(name string) string {
	mapped := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*':
			return '-'
		case '?', '"', '<', '>', '|':
			return -1
		}
		switch {
		case unicode.IsSpace(r):
			return ' '
		case unicode.IsControl(r):
			return -1
		}
		return r
	}, name)
	cleaned := strings.Join(strings.Fields(mapped), " ")
	if cleaned == "" || strings.Trim(cleaned, ".") == "" {
		return fallbackFileName
	}
	return cleaned
}
