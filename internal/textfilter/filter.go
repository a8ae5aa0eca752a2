package textfilter

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Default thresholds. A two-letter line such as "No." passes, a run of stray
// bars and dots does not.
const (
	DefaultMinLetters    = 2
	DefaultMinValidRatio = 0.75
)

// Rejection reasons reported in Verdict.Reason.
const (
	ReasonEmpty      = "empty"
	ReasonTooFew     = "too_few_letters"
	ReasonLowQuality = "low_valid_ratio"
)

// Filter holds the thresholds for a text check.
type Filter struct {
	// MinLetters is the minimum number of alphabetic characters.
	MinLetters int
	// MinValidRatio is the minimum share of letters, digits and common
	// punctuation among the non-space characters.
	MinValidRatio float64
}

// Verdict is the outcome of a single check.
type Verdict struct {
	Accepted bool
	Text     string
	Reason   string
	Letters  int
	Ratio    float64
}

// New returns a Filter, substituting defaults for non-positive thresholds.
func New(minLetters int, minValidRatio float64) Filter {
	if minLetters <= 0 {
		minLetters = DefaultMinLetters
	}
	if minValidRatio <= 0 {
		minValidRatio = DefaultMinValidRatio
	}
	return Filter{MinLetters: minLetters, MinValidRatio: minValidRatio}
}

// Check classifies text. Accepted text has its whitespace collapsed and is
// otherwise returned as given.
func (f Filter) Check(text string) Verdict {
	cleaned := CollapseSpace(norm.NFKC.String(text))
	if cleaned == "" {
		return Verdict{Reason: ReasonEmpty}
	}

	var letters, valid, total int
	for _, r := range cleaned {
		if unicode.IsSpace(r) {
			continue
		}
		total++
		switch {
		case unicode.IsLetter(r):
			letters++
			valid++
		case unicode.IsDigit(r), isCommonPunct(r):
			valid++
		}
	}
	v := Verdict{Text: cleaned, Letters: letters}
	if total > 0 {
		v.Ratio = float64(valid) / float64(total)
	}
	switch {
	case letters < f.MinLetters:
		v.Reason = ReasonTooFew
	case v.Ratio < f.MinValidRatio:
		v.Reason = ReasonLowQuality
	default:
		v.Accepted = true
	}
	return v
}

// Accept reports whether text passes f.
func (f Filter) Accept(text string) bool {
	return f.Check(text).Accepted
}

// CollapseSpace trims text and replaces every whitespace run with one space.
func CollapseSpace(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

func isCommonPunct(r rune) bool {
	switch r {
	case '.', ',', '!', '?', '\'', '"', '-', ':', ';', '(', ')', '&',
		'‘', '’', '“', '”', '…', '—', '–':
		return true
	}
	return false
}
