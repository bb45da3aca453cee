// Package models contains the data structures used throughout gorsync-backup.
package models

// BackupConfig holds the complete configuration for one backup run.
// It is resolved once at startup and threaded as a value; no component
// re-reads the environment or the wall clock afterwards.
type BackupConfig struct {
	Source    string
	Target    string
	DryRun    bool
	DateStamp string // YYYY-MM-DD, names the versioned backup directory and the journal file

	Log      LogSettings
	Rsync    RsyncSettings
	Mail     MailConfig
	Wake     *WakeConfig     // nil if not configured
	Shutdown *ShutdownConfig // nil if not configured
}

// LogSettings holds the journal location.
type LogSettings struct {
	Directory string
}

// RsyncSettings holds rsync invocation settings.
type RsyncSettings struct {
	Command        string   // binary name or path, default "rsync"
	Excludes       []string // optional --exclude patterns
	BandwidthLimit string   // optional --bwlimit value, e.g. "10m"
}

// MailConfig holds notification settings.
type MailConfig struct {
	Command   string // mail binary, default "mail"
	Recipient string
	Sender    string // optional, passed as -r when set
}
