package models

import "time"

// MirrorRequest describes one mirror-with-versioning sync.
type MirrorRequest struct {
	Source    string
	Target    string
	DateStamp string
	DryRun    bool
}

// MirrorResult holds the outcome of an rsync invocation. Output is kept
// for the journal only; it is never parsed.
type MirrorResult struct {
	ExitCode int
	Output   string
	DryRun   bool
	Duration time.Duration
	Error    error
}
