// Package preflight provides readiness checks for the external tools and
// filesystem paths tvidentify depends on.
//
// The CLI "tvidentify status" command prints every check, and "extract"
// runs RunAll first so a missing ffmpeg or tessdata fails fast instead of
// after the first file.
package preflight
