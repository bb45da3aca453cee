// Package rsync drives the external rsync binary in
// mirror-with-versioning mode.
package rsync

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/fgeck/gorsync-backup/internal/models"
	"github.com/rs/zerolog"
)

// Service defines the interface for sync operations.
type Service interface {
	Available(cfg models.RsyncSettings) error
	Mirror(ctx context.Context, cfg models.RsyncSettings, req models.MirrorRequest) (*models.MirrorResult, error)
}

// CommandExecutor allows mocking exec.Command in tests.
type CommandExecutor interface {
	Execute(ctx context.Context, name string, args ...string) (output []byte, exitCode int, err error)
	LookPath(file string) (string, error)
}

// DefaultExecutor is the default command executor using os/exec.
type DefaultExecutor struct{}

// Execute runs a command and returns its combined output and exit status.
func (e *DefaultExecutor) Execute(ctx context.Context, name string, args ...string) ([]byte, int, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	output, err := cmd.CombinedOutput()

	exitCode := 0
	if err != nil {
		exitCode = -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			exitCode = exitErr.ExitCode()
		}
	}

	return output, exitCode, err
}

// LookPath reports where the binary resolves on PATH.
func (e *DefaultExecutor) LookPath(file string) (string, error) {
	return exec.LookPath(file)
}

// Impl implements the rsync Service interface.
type Impl struct {
	executor CommandExecutor
	logger   zerolog.Logger
}

// New creates a new rsync service.
func New(logger zerolog.Logger) *Impl {
	return &Impl{
		executor: &DefaultExecutor{},
		logger:   logger,
	}
}

// NewWithExecutor creates a new rsync service with a custom executor (for testing).
func NewWithExecutor(logger zerolog.Logger, executor CommandExecutor) *Impl {
	return &Impl{
		executor: executor,
		logger:   logger,
	}
}

// Available verifies the sync binary can be found and executed.
func (s *Impl) Available(cfg models.RsyncSettings) error {
	path, err := s.executor.LookPath(cfg.Command)
	if err != nil {
		return fmt.Errorf("sync tool %q not found: %w", cfg.Command, err)
	}

	s.logger.Debug().Str("path", path).Msg("sync tool located")
	return nil
}

// Mirror runs one mirror-with-versioning pass: the live mirror under
// {target}/current is made to match the source exactly, and anything the
// pass overwrites or deletes is moved into {target}/{date} first. Exit
// status is captured; output is retained for the journal, never parsed.
func (s *Impl) Mirror(ctx context.Context, cfg models.RsyncSettings, req models.MirrorRequest) (*models.MirrorResult, error) {
	args, err := buildArgs(cfg, req)
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("source", req.Source).
		Str("target", req.Target).
		Bool("dry_run", req.DryRun).
		Strs("args", args).
		Msg("starting sync")

	start := time.Now()
	output, exitCode, execErr := s.executor.Execute(ctx, cfg.Command, args...)

	result := &models.MirrorResult{
		ExitCode: exitCode,
		Output:   string(output),
		DryRun:   req.DryRun,
		Duration: time.Since(start),
	}
	if execErr != nil {
		result.Error = fmt.Errorf("sync failed with exit status %d: %w", exitCode, execErr)
	}

	s.logger.Info().
		Int("exit_code", result.ExitCode).
		Dur("duration", result.Duration).
		Msg("sync finished")

	return result, nil
}

// buildArgs assembles the structured rsync argument vector. Tokens are
// passed discretely to the subprocess; no shell is involved.
func buildArgs(cfg models.RsyncSettings, req models.MirrorRequest) ([]string, error) {
	// rsync interprets a relative --backup-dir against the destination
	// directory, so anchor it explicitly.
	backupDir, err := filepath.Abs(filepath.Join(req.Target, req.DateStamp))
	if err != nil {
		return nil, fmt.Errorf("resolving backup directory: %w", err)
	}

	args := []string{
		"--archive",
		"--verbose",
		"--delete",
		"--backup",
		"--backup-dir=" + backupDir,
	}

	if req.DryRun {
		args = append(args, "--dry-run")
	}
	for _, pattern := range cfg.Excludes {
		args = append(args, "--exclude", pattern)
	}
	if cfg.BandwidthLimit != "" {
		args = append(args, "--bwlimit", cfg.BandwidthLimit)
	}

	// Trailing slash: sync the source's contents, not the directory itself.
	source := filepath.Clean(req.Source) + string(filepath.Separator)
	args = append(args, source, filepath.Join(req.Target, "current"))

	return args, nil
}
