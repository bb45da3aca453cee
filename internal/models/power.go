package models

import "time"

// WakeConfig holds Wake-on-LAN settings for powering up the backup host
// before the sync runs.
type WakeConfig struct {
	MACAddress    string
	BroadcastIP   string
	PollURL       string // optional, polled until it answers
	Timeout       time.Duration
	PollInterval  time.Duration
	StabilizeWait time.Duration
}

// WakeResult holds the result of a wake attempt.
type WakeResult struct {
	PacketSent   bool
	TargetReady  bool
	WaitDuration time.Duration
	Error        error
}

// ShutdownConfig holds SSH settings for powering the backup host back
// down after the run.
type ShutdownConfig struct {
	Host       string
	Port       int
	Username   string
	KeyPath    string
	PrivateKey []byte // takes precedence over KeyPath when set
	Delay      int    // minutes before the host powers off, 0 means now
}

// ShutdownResult holds the result of a shutdown attempt.
type ShutdownResult struct {
	CommandRun bool
	Output     string
	Error      error
}
