// Package ffprobe runs ffprobe against a container and decodes its JSON
// stream listing.
//
// Inspect is the entry point. Stream carries the codec, the tags and the
// disposition flags, and its helpers (Language, Title, Forced,
// HearingImpaired) read the fields subtitle track selection needs.
// Result.SubtitleStreams filters a probe down to subtitle streams in
// container order.
package ffprobe
