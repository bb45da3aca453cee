// Package runner drives one backup run end to end.
package runner

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/fgeck/gorsync-backup/internal/exitcode"
	"github.com/fgeck/gorsync-backup/internal/journal"
	"github.com/fgeck/gorsync-backup/internal/models"
	"github.com/fgeck/gorsync-backup/internal/services/mail"
	"github.com/fgeck/gorsync-backup/internal/services/rsync"
	"github.com/fgeck/gorsync-backup/internal/services/shutdown"
	"github.com/fgeck/gorsync-backup/internal/services/validator"
	"github.com/fgeck/gorsync-backup/internal/services/wake"
	"github.com/rs/zerolog"
)

// Service defines the interface for the backup runner.
type Service interface {
	Run(ctx context.Context, cfg models.BackupConfig) error
}

// Impl implements the runner Service interface.
type Impl struct {
	validatorSvc validator.Service
	syncSvc      rsync.Service
	mailSvc      mail.Service
	wakeSvc      wake.Service
	shutdownSvc  shutdown.Service
	journal      *journal.Journal
	logger       zerolog.Logger
}

// New creates a new runner service.
func New(logger zerolog.Logger, j *journal.Journal) *Impl {
	return &Impl{
		validatorSvc: validator.New(logger),
		syncSvc:      rsync.New(logger),
		mailSvc:      mail.New(logger),
		wakeSvc:      wake.New(logger),
		shutdownSvc:  shutdown.New(logger),
		journal:      j,
		logger:       logger,
	}
}

// NewWithServices creates a new runner service with custom services (for testing).
func NewWithServices(
	logger zerolog.Logger,
	j *journal.Journal,
	validatorSvc validator.Service,
	syncSvc rsync.Service,
	mailSvc mail.Service,
	wakeSvc wake.Service,
	shutdownSvc shutdown.Service,
) *Impl {
	return &Impl{
		validatorSvc: validatorSvc,
		syncSvc:      syncSvc,
		mailSvc:      mailSvc,
		wakeSvc:      wakeSvc,
		shutdownSvc:  shutdownSvc,
		journal:      j,
		logger:       logger,
	}
}

// Run executes one backup: preflight, validation, optional wake, the
// mirror pass, reporting, and optional shutdown. Every terminal outcome
// is journalled, a notification is attempted, and the closing separator
// is written no matter how the run ends.
func (s *Impl) Run(ctx context.Context, cfg models.BackupConfig) error {
	startTime := time.Now()
	summary := models.RunSummary{
		Host:        hostname(),
		Source:      cfg.Source,
		Target:      cfg.Target,
		DateStamp:   cfg.DateStamp,
		DryRun:      cfg.DryRun,
		StartTime:   startTime,
		JournalPath: s.journal.Path(),
	}

	s.journal.Info(fmt.Sprintf("Backup started. Source: %s, target: %s", cfg.Source, cfg.Target))
	if cfg.DryRun {
		s.journal.Info("Dry-run mode enabled: no files will be changed.")
	}
	defer s.journal.Separator()

	// Preflight: both external tools must be present before anything
	// destructive happens. Strict policy: a missing mail mechanism is
	// fatal even though the backup has not been attempted yet.
	if err := s.syncSvc.Available(cfg.Rsync); err != nil {
		return s.fail(ctx, cfg, &summary, "preflight",
			exitcode.New(exitcode.SyncToolMissing, err))
	}
	if err := s.mailSvc.Available(cfg.Mail); err != nil {
		// No mail mechanism: nothing to attempt a notification with.
		s.journal.Error(err.Error())
		return exitcode.New(exitcode.MailUnavailable, err)
	}

	if err := s.validatorSvc.Validate(cfg.Source, cfg.Target); err != nil {
		return s.fail(ctx, cfg, &summary, "validation", err)
	}

	if cfg.Wake != nil {
		if err := s.runWake(ctx, *cfg.Wake); err != nil {
			return s.fail(ctx, cfg, &summary, "wake",
				exitcode.New(exitcode.WakeFailed, err))
		}
	}

	result, err := s.syncSvc.Mirror(ctx, cfg.Rsync, models.MirrorRequest{
		Source:    cfg.Source,
		Target:    cfg.Target,
		DateStamp: cfg.DateStamp,
		DryRun:    cfg.DryRun,
	})
	if err != nil {
		s.journal.Error(fmt.Sprintf("Backup failed: %v", err))
		return s.fail(ctx, cfg, &summary, "sync",
			exitcode.New(exitcode.SyncFailed, err))
	}
	if result.Error != nil || result.ExitCode != 0 {
		summary.ExitCode = result.ExitCode
		cause := result.Error
		if cause == nil {
			cause = fmt.Errorf("sync exited with status %d", result.ExitCode)
		}
		s.recordSyncOutput(result.Output)
		s.journal.Error(fmt.Sprintf("Backup failed with exit status %d. See %s for details.",
			result.ExitCode, s.journal.Path()))
		return s.fail(ctx, cfg, &summary, "sync",
			exitcode.New(exitcode.SyncFailed, cause))
	}

	if result.DryRun {
		s.recordSyncOutput(result.Output)
		s.journal.Info("Dry run completed. No files were changed.")
	} else {
		s.recordSyncOutput(result.Output)
		s.journal.Info("Backup completed successfully.")
	}

	// Powering the host back down is best-effort: the backup itself has
	// already succeeded.
	if cfg.Shutdown != nil {
		s.runShutdown(ctx, *cfg.Shutdown)
	}

	summary.Success = true
	summary.Duration = time.Since(startTime)
	if err := s.notify(ctx, cfg, summary); err != nil {
		s.journal.Error(fmt.Sprintf("Notification failed: %v", err))
		return exitcode.New(exitcode.NotifySendFailed, err)
	}

	s.logger.Info().
		Dur("duration", summary.Duration).
		Bool("dry_run", cfg.DryRun).
		Msg("backup run completed")

	return nil
}

// fail journals the cause, attempts a failure notification, and returns
// the coded error. A notification failure is logged but never masks the
// primary failure's exit code.
func (s *Impl) fail(ctx context.Context, cfg models.BackupConfig, summary *models.RunSummary, stage string, coded error) error {
	if stage != "sync" {
		// Sync failures journal their own, more detailed line.
		s.journal.Error(coded.Error())
	}

	summary.Success = false
	summary.FailedStage = stage
	summary.ErrorMessage = coded.Error()
	summary.Duration = time.Since(summary.StartTime)

	if err := s.notify(ctx, cfg, *summary); err != nil {
		s.journal.Warn(fmt.Sprintf("Failure notification could not be sent: %v", err))
	}

	return coded
}

func (s *Impl) notify(ctx context.Context, cfg models.BackupConfig, summary models.RunSummary) error {
	msg := mail.Compose(summary)

	result, err := s.mailSvc.Send(ctx, cfg.Mail, msg)
	if err != nil {
		return err
	}
	if result.Error != nil {
		return result.Error
	}

	s.journal.Info(fmt.Sprintf("Notification sent to %s.", cfg.Mail.Recipient))
	return nil
}

func (s *Impl) runWake(ctx context.Context, cfg models.WakeConfig) error {
	s.journal.Info(fmt.Sprintf("Waking backup host %s.", cfg.MACAddress))

	result, err := s.wakeSvc.Wake(ctx, cfg)
	if err != nil {
		return err
	}
	if result.Error != nil {
		return result.Error
	}
	if !result.TargetReady {
		return fmt.Errorf("backup host did not become ready")
	}

	s.journal.Info(fmt.Sprintf("Backup host ready after %s.", result.WaitDuration.Round(time.Second)))
	return nil
}

func (s *Impl) runShutdown(ctx context.Context, cfg models.ShutdownConfig) {
	s.journal.Info(fmt.Sprintf("Powering down backup host %s.", cfg.Host))

	result, err := s.shutdownSvc.Shutdown(ctx, cfg)
	if err != nil {
		s.journal.Warn(fmt.Sprintf("Shutdown of %s failed: %v", cfg.Host, err))
		return
	}
	if result.Error != nil {
		s.journal.Warn(fmt.Sprintf("Shutdown of %s failed: %v", cfg.Host, result.Error))
		return
	}

	s.journal.Info("Backup host shutdown initiated.")
}

// recordSyncOutput journals the sync tool's output line by line: planned
// actions on a dry run, the transfer report otherwise, and the error
// detail the failure summary points at when the sync fails.
func (s *Impl) recordSyncOutput(output string) {
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		s.journal.Info("  " + line)
	}
}

func hostname() string {
	name, err := os.Hostname()
	if err != nil {
		return "unknown"
	}
	return name
}
