// Package textfilter classifies OCR output as dialogue or noise.
//
// A Filter never fails: every input produces a Verdict that either carries
// the cleaned text or names the rule that rejected it. Thresholds come from
// the [filter] config section so they can be tuned per source.
package textfilter
