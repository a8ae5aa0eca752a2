// Package subtitles turns the PGS subtitle track of a video file into a list
// of timed text lines.
//
// Service.Extract runs one file through the whole chain: ffprobe track
// discovery, ffmpeg stream copy, PGS decoding, OCR, cleanup, the text quality
// filter and near-duplicate suppression. Results are cached per file and
// settings, and ExtractBatch fans independent files out over a bounded
// worker group.
package subtitles
