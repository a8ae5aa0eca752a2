package textutil

import "strings"

// CosineSimilarity computes the cosine similarity between two fingerprints.
// Returns 0 if either fingerprint is nil or has zero norm.
func CosineSimilarity(a, b *Fingerprint) float64 {
	if a == nil || b == nil || a.norm == 0 || b.norm == 0 {
		return 0
	}
	var dot float64
	for token, count := range a.tokens {
		if other, ok := b.tokens[token]; ok {
			dot += count * other
		}
	}
	if dot == 0 {
		return 0
	}
	return dot / (a.norm * b.norm)
}

// NearDuplicate reports whether b repeats a: equal ignoring case and spacing,
// or fingerprints at least threshold similar. A threshold of zero or less
// disables the fingerprint comparison.
func NearDuplicate(a, b string, threshold float64) bool {
	na := strings.ToLower(strings.Join(strings.Fields(a), " "))
	nb := strings.ToLower(strings.Join(strings.Fields(b), " "))
	if na == "" || nb == "" {
		return false
	}
	if na == nb {
		return true
	}
	if threshold <= 0 {
		return false
	}
	return CosineSimilarity(NewFingerprint(a), NewFingerprint(b)) >= threshold
}
