package subtitles

import (
	"fmt"
	"time"

	"tvidentify/internal/pgs"
)

// Track describes the stream an extraction read.
type Track struct {
	Index           int    `json:"index"`
	Codec           string `json:"codec"`
	Language        string `json:"language,omitempty"`
	Title           string `json:"title,omitempty"`
	Forced          bool   `json:"forced,omitempty"`
	HearingImpaired bool   `json:"hearing_impaired,omitempty"`
}

// Line is one accepted subtitle text.
type Line struct {
	Index     int     `json:"index"`
	Timestamp string  `json:"timestamp"`
	Start     float64 `json:"start_seconds"`
	End       float64 `json:"end_seconds"`
	Text      string  `json:"text"`
	Forced    bool    `json:"forced,omitempty"`
}

// Stats counts what happened to the decoded events.
type Stats struct {
	Segments   int            `json:"segments"`
	Events     int            `json:"events"`
	Rejected   int            `json:"rejected"`
	Duplicates int            `json:"duplicates"`
	OCRErrors  int            `json:"ocr_errors"`
	Dropped    int            `json:"dropped_objects"`
	Reasons    map[string]int `json:"reject_reasons,omitempty"`
	Stop       pgs.StopReason `json:"stop_reason"`
}

// Result is the outcome of one extraction.
type Result struct {
	RunID       string    `json:"run_id"`
	Source      string    `json:"source"`
	Track       Track     `json:"track"`
	Offset      float64   `json:"offset_seconds"`
	Duration    float64   `json:"duration_seconds"`
	Lines       []Line    `json:"lines"`
	Stats       Stats     `json:"stats"`
	Fingerprint string    `json:"fingerprint"`
	CacheHit    bool      `json:"cache_hit"`
	CreatedAt   time.Time `json:"created_at"`
}

// Texts returns the accepted lines in order.
func (r *Result) Texts() []string {
	if r == nil {
		return nil
	}
	out := make([]string, len(r.Lines))
	for i, l := range r.Lines {
		out[i] = l.Text
	}
	return out
}

// FormatTimestamp renders d as HH:MM:SS.mmm.
func FormatTimestamp(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	ms := d.Milliseconds()
	return fmt.Sprintf("%02d:%02d:%02d.%03d", ms/3_600_000, ms/60_000%60, ms/1000%60, ms%1000)
}
