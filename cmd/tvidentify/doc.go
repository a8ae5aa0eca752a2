// Package main hosts the tvidentify CLI entrypoint and command graph.
//
// The Cobra-based command tree extracts subtitle text from video files,
// lists subtitle tracks, reports tool and directory status, maintains the
// extraction cache and scaffolds configuration. Heavy lifting lives in the
// internal packages; commands here resolve configuration, build the
// pipeline and render results.
package main
