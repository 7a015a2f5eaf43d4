// Package logs reads the listingsmith log file for the CLI and the daemon API.
//
// A negative offset returns the last N lines; a non-negative offset resumes
// where a previous read ended, optionally waiting for new lines.
package logs
