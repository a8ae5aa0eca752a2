// Package services defines the error markers shared by the extraction
// pipeline and the CLI.
//
// Wrap tags a failure with one of the sentinel markers plus stage and
// operation context. ExitCode turns a marked error into the process exit
// status so scripts can tell bad input apart from tool failures.
package services
