package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/fgeck/gorsync-backup/internal/config"
	"github.com/fgeck/gorsync-backup/internal/exitcode"
	"github.com/fgeck/gorsync-backup/internal/journal"
	"github.com/fgeck/gorsync-backup/internal/services/runner"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func runBackup(cmd *cobra.Command, args []string) error {
	// Load configuration
	parser := config.NewParser()
	cfg, err := parser.Resolve(args[0], args[1], configFile)
	if err != nil {
		log.Error().Err(err).Str("file", configFile).Msg("failed to load config")
		return err
	}
	if dryRun {
		cfg.DryRun = true
	}

	log.Info().
		Str("source", cfg.Source).
		Str("target", cfg.Target).
		Str("date", cfg.DateStamp).
		Bool("dry_run", cfg.DryRun).
		Msg("configuration loaded")

	// Open the per-day log before anything else happens: a run that
	// cannot be logged is not attempted.
	j, err := journal.Open(cfg.Log.Directory, cfg.DateStamp, log.Logger)
	if err != nil {
		log.Error().Err(err).Str("dir", cfg.Log.Directory).Msg("failed to open log file")
		return exitcode.New(exitcode.LogUnavailable, err)
	}
	defer j.Close()

	// Set up context with signal handling
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		log.Warn().Str("signal", sig.String()).Msg("received signal, shutting down")
		cancel()
	}()

	// Run backup
	runnerSvc := runner.New(log.Logger, j)
	return runnerSvc.Run(ctx, *cfg)
}
