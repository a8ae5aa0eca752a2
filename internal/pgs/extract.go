package pgs

import (
	"fmt"
	"io"
	"strings"
	"time"
)

// Options bounds the events Extract returns.
type Options struct {
	// Offset skips events that start before it.
	Offset time.Duration
	// Duration is the scan window after Offset. Zero scans to the end.
	Duration time.Duration
	// MaxEvents caps the number of events. Zero means no cap.
	MaxEvents int
	// RowPolicy controls short RLE rows.
	RowPolicy RowPolicy
}

// StopReason records why Extract finished.
type StopReason string

const (
	StopEndOfStream StopReason = "end_of_stream"
	StopWindow      StopReason = "window"
	StopMaxEvents   StopReason = "max_events"
)

// Result is the output of Extract.
type Result struct {
	Events   []Event
	Dropped  []DroppedObject
	Segments int
	Stop     StopReason
}

var pgsCodecs = map[string]struct{}{
	"hdmv_pgs_subtitle": {},
	"pgssub":            {},
	"pgs":               {},
	"sup":               {},
	"s_hdmv/pgs":        {},
}

// CheckCodec returns ErrUnsupportedFormat unless codec names PGS.
func CheckCodec(codec string) error {
	if _, ok := pgsCodecs[strings.ToLower(strings.TrimSpace(codec))]; ok {
		return nil
	}
	return fmt.Errorf("%w: codec %q", ErrUnsupportedFormat, codec)
}

// Extract decodes a raw PGS stream into events inside the window described
// by opts. The codec is checked before any parsing. Decoding stops at the
// first composition past the window or once MaxEvents events are collected.
// A fatal format error discards every event.
func Extract(data []byte, codec string, opts Options) (*Result, error) {
	if err := CheckCodec(codec); err != nil {
		return nil, err
	}
	lower := DurationToPTS(opts.Offset)
	upper := int64(-1)
	if opts.Duration > 0 {
		upper = lower + DurationToPTS(opts.Duration)
	}

	res := &Result{Stop: StopEndOfStream}
	accept := func(events []Event) bool {
		for _, ev := range events {
			if ev.StartPTS < lower || (upper >= 0 && ev.StartPTS > upper) {
				continue
			}
			res.Events = append(res.Events, ev)
			if opts.MaxEvents > 0 && len(res.Events) >= opts.MaxEvents {
				return true
			}
		}
		return false
	}

	asm := NewAssembler(WithRowPolicy(opts.RowPolicy))
	reader := NewReader(data)
	for {
		seg, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		res.Segments++
		if upper >= 0 && seg.Type == SegmentPresentationComposition && seg.PTS > upper {
			if accept(asm.FlushAt(seg.PTS)) {
				res.Stop = StopMaxEvents
			} else {
				res.Stop = StopWindow
			}
			res.Dropped = asm.Dropped()
			return res, nil
		}
		events, err := asm.Push(seg)
		if err != nil {
			return nil, err
		}
		if accept(events) {
			res.Stop = StopMaxEvents
			res.Dropped = asm.Dropped()
			return res, nil
		}
	}
	if accept(asm.Flush()) {
		res.Stop = StopMaxEvents
	}
	res.Dropped = asm.Dropped()
	return res, nil
}
