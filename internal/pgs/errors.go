package pgs

import (
	"errors"
	"fmt"
)

var (
	// ErrCorruptStream reports a segment header without the "PG" marker.
	ErrCorruptStream = errors.New("pgs: corrupt stream")
	// ErrTruncatedSegment reports a segment that extends past the end of the buffer.
	ErrTruncatedSegment = errors.New("pgs: truncated segment")
	// ErrOutOfOrderStream reports a presentation timestamp regression.
	ErrOutOfOrderStream = errors.New("pgs: out of order stream")
	// ErrMalformedRLE reports object data that does not decode to width x height pixels.
	ErrMalformedRLE = errors.New("pgs: malformed rle")
	// ErrUnsupportedFormat reports a subtitle codec other than PGS.
	ErrUnsupportedFormat = errors.New("pgs: unsupported format")
	// ErrShortRow reports an end-of-line before the row was full under
	// StrictRows. It matches ErrMalformedRLE as well.
	ErrShortRow = fmt.Errorf("%w: short row", ErrMalformedRLE)
)

// FormatError carries the location of a decode failure. Kind is one of the
// package sentinels and is what errors.Is matches against.
type FormatError struct {
	Kind    error
	Offset  int
	Segment SegmentType
	Detail  string
}

func (e *FormatError) Error() string {
	msg := fmt.Sprintf("%v at offset %d", e.Kind, e.Offset)
	if e.Segment != 0 {
		msg += fmt.Sprintf(" (segment %s)", e.Segment)
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

func (e *FormatError) Unwrap() error {
	return e.Kind
}

func formatErrorf(kind error, offset int, segment SegmentType, format string, args ...any) error {
	return &FormatError{
		Kind:    kind,
		Offset:  offset,
		Segment: segment,
		Detail:  fmt.Sprintf(format, args...),
	}
}

func rleErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMalformedRLE, fmt.Sprintf(format, args...))
}
