package pgs

import (
	"encoding/binary"
	"io"
	"iter"
)

const (
	headerSize = 13
	magic0     = 'P'
	magic1     = 'G'
)

// Reader walks a PGS byte stream one segment at a time. A Reader cannot be
// rewound; construct a new one over the same buffer to start again.
type Reader struct {
	data []byte
	pos  int
	err  error
}

// NewReader returns a Reader positioned at the start of data.
func NewReader(data []byte) *Reader {
	return &Reader{data: data}
}

// Offset returns the byte offset of the next segment header.
func (r *Reader) Offset() int {
	return r.pos
}

// Next returns the next segment, io.EOF once the buffer is exhausted, or a
// *FormatError. Errors are sticky: after a failure every call returns it.
func (r *Reader) Next() (Segment, error) {
	if r.err != nil {
		return Segment{}, r.err
	}
	seg, err := r.next()
	if err != nil {
		r.err = err
	}
	return seg, err
}

func (r *Reader) next() (Segment, error) {
	remaining := len(r.data) - r.pos
	if remaining == 0 {
		return Segment{}, io.EOF
	}
	start := r.pos
	if r.data[start] != magic0 || (remaining > 1 && r.data[start+1] != magic1) {
		return Segment{}, formatErrorf(ErrCorruptStream, start, 0, "missing PG marker")
	}
	if remaining < headerSize {
		return Segment{}, formatErrorf(ErrTruncatedSegment, start, 0, "header needs %d bytes, %d left", headerSize, remaining)
	}
	h := r.data[start : start+headerSize]
	seg := Segment{
		PTS:    int64(binary.BigEndian.Uint32(h[2:6])),
		DTS:    int64(binary.BigEndian.Uint32(h[6:10])),
		Type:   SegmentType(h[10]),
		Offset: start,
	}
	size := int(binary.BigEndian.Uint16(h[11:13]))
	if size > remaining-headerSize {
		return Segment{}, formatErrorf(ErrTruncatedSegment, start, seg.Type, "payload %d bytes, %d left", size, remaining-headerSize)
	}
	payloadStart := start + headerSize
	seg.Payload = r.data[payloadStart : payloadStart+size : payloadStart+size]
	r.pos = payloadStart + size
	return seg, nil
}

// Segments iterates over every segment in data. Iteration stops after the
// first error, which is yielded with a zero Segment.
func Segments(data []byte) iter.Seq2[Segment, error] {
	return func(yield func(Segment, error) bool) {
		r := NewReader(data)
		for {
			seg, err := r.Next()
			if err == io.EOF {
				return
			}
			if !yield(seg, err) || err != nil {
				return
			}
		}
	}
}
