// Package pgs decodes Presentation Graphic Stream (Blu-ray SUP) subtitles into
// timed bitmap events.
//
// Decoding is a sequential fold over an in-memory byte stream:
//   - Reader splits the stream into typed segments and validates headers
//   - Assembler correlates palette, window, object and composition segments
//     into display sets and turns them into Events
//   - DecodeBitmap expands an object's run-length data into palette indices
//   - Extract applies the time window and event cap callers ask for
//
// Every Assembler owns its palette/object state, so independent streams can
// be decoded in parallel as long as each uses its own Assembler. Fatal format
// problems are reported as *FormatError values that unwrap to one of the
// package sentinels (ErrCorruptStream, ErrTruncatedSegment, ...).
package pgs
