// Package textutil provides token fingerprints for comparing subtitle lines
// and filename sanitization for output artifacts.
//
// Fingerprints are term-frequency vectors over lowercase alphanumeric tokens
// of at least three characters. Consecutive subtitle events frequently carry
// the same line re-rendered (a karaoke-style reveal, a repositioned caption),
// and NearDuplicate uses cosine similarity between fingerprints to catch
// those repeats even when OCR reads them slightly differently.
package textutil
