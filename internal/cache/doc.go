// Package cache persists extraction results in SQLite so repeated runs over
// the same file skip ffmpeg, decoding and OCR.
//
// Entries are keyed by a hash of the source file identity (absolute path,
// size, modification time) and every parameter that changes the output.
// Editing or replacing the source therefore misses naturally. Lock provides
// a per-key advisory file lock so concurrent processes do not extract the
// same file twice.
package cache
