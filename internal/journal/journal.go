// Package journal writes the per-run audit trail: timestamped lines
// appended to a per-day log file and mirrored to the terminal.
package journal

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const lineTimeFormat = "2006-01-02 15:04:05"

// Journal appends timestamped lines to {dir}/backup_{date}.log. Lines are
// never rewritten or rotated; a new day gets a new file on the next run.
type Journal struct {
	path   string
	file   *os.File
	logger zerolog.Logger
	now    func() time.Time
}

// Open creates the log directory (owner-only, the paths it records may be
// sensitive) and opens the day's journal file for appending.
func Open(dir, dateStamp string, logger zerolog.Logger) (*Journal, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("creating log directory %s: %w", dir, err)
	}

	path := filepath.Join(dir, fmt.Sprintf("backup_%s.log", dateStamp))
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600) //nolint:gosec // path is built from config
	if err != nil {
		return nil, fmt.Errorf("opening journal %s: %w", path, err)
	}

	return &Journal{
		path:   path,
		file:   file,
		logger: logger,
		now:    time.Now,
	}, nil
}

// Path returns the journal file location.
func (j *Journal) Path() string {
	return j.path
}

// Info records a normal progress line.
func (j *Journal) Info(msg string) {
	j.append(msg)
	j.logger.Info().Msg(msg)
}

// Warn records a non-fatal problem.
func (j *Journal) Warn(msg string) {
	j.append("WARNING: " + msg)
	j.logger.Warn().Msg(msg)
}

// Error records a fatal problem.
func (j *Journal) Error(msg string) {
	j.append("ERROR: " + msg)
	j.logger.Error().Msg(msg)
}

// Separator closes the run's section of the journal. Written regardless
// of outcome.
func (j *Journal) Separator() {
	line := strings.Repeat("-", 60)
	j.append(line)
	j.logger.Info().Msg(line)
}

// Close releases the journal file.
func (j *Journal) Close() error {
	return j.file.Close()
}

// append writes one timestamped line. Write failures after a successful
// open are reported to the terminal but do not fail the run.
func (j *Journal) append(msg string) {
	line := j.now().Format(lineTimeFormat) + " " + msg + "\n"
	if _, err := j.file.WriteString(line); err != nil {
		j.logger.Error().Err(err).Str("journal", j.path).Msg("failed to write journal line")
	}
}
