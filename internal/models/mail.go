package models

import "time"

// MailMessage is one notification to the operator.
type MailMessage struct {
	Subject string
	Body    string
}

// MailResult holds the result of a notification attempt.
type MailResult struct {
	MessageSent bool
	Error       error
}

// RunSummary carries the outcome of one run for the operator
// notification.
type RunSummary struct {
	Success   bool
	Host      string
	Source    string
	Target    string
	DateStamp string
	DryRun    bool
	StartTime time.Time
	Duration  time.Duration

	// Failure details (if any).
	FailedStage  string
	ExitCode     int // sync subprocess exit status, when the sync itself failed
	ErrorMessage string

	JournalPath string
}
