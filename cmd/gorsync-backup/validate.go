package main

import (
	"fmt"

	"github.com/fgeck/gorsync-backup/internal/config"
	"github.com/fgeck/gorsync-backup/internal/services/mail"
	"github.com/fgeck/gorsync-backup/internal/services/rsync"
	"github.com/fgeck/gorsync-backup/internal/services/validator"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate <source> <target>",
	Short: "Check the configuration and both directories",
	Long: `Resolve the configuration and run every preflight check without
syncing, logging, or sending mail. Exits with the same code a real run
would have failed with.`,
	Args: cobra.ExactArgs(2),
	RunE: validateRun,
}

func validateRun(cmd *cobra.Command, args []string) error {
	// Load configuration
	parser := config.NewParser()
	cfg, err := parser.Resolve(args[0], args[1], configFile)
	if err != nil {
		log.Error().Err(err).Str("file", configFile).Msg("failed to load config")
		return err
	}

	if err := validator.New(log.Logger).Validate(cfg.Source, cfg.Target); err != nil {
		log.Error().Err(err).Msg("directory validation failed")
		return err
	}
	if err := rsync.New(log.Logger).Available(cfg.Rsync); err != nil {
		log.Error().Err(err).Msg("sync tool check failed")
		return err
	}
	if err := mail.New(log.Logger).Available(cfg.Mail); err != nil {
		log.Error().Err(err).Msg("mail mechanism check failed")
		return err
	}

	// Print configuration summary
	fmt.Println("Configuration is valid!")
	fmt.Println()
	fmt.Println("Summary:")
	fmt.Printf("  Source: %s\n", cfg.Source)
	fmt.Printf("  Target: %s\n", cfg.Target)
	fmt.Printf("  Date stamp: %s\n", cfg.DateStamp)
	fmt.Printf("  Log directory: %s\n", cfg.Log.Directory)
	fmt.Printf("  Dry run: %v\n", cfg.DryRun)
	fmt.Println()
	fmt.Println("Sync:")
	fmt.Printf("  Command: %s\n", cfg.Rsync.Command)
	if len(cfg.Rsync.Excludes) > 0 {
		fmt.Printf("  Excludes: %v\n", cfg.Rsync.Excludes)
	}
	if cfg.Rsync.BandwidthLimit != "" {
		fmt.Printf("  Bandwidth limit: %s\n", cfg.Rsync.BandwidthLimit)
	}
	fmt.Println()
	fmt.Println("Mail:")
	fmt.Printf("  Command: %s\n", cfg.Mail.Command)
	fmt.Printf("  Recipient: %s\n", cfg.Mail.Recipient)
	if cfg.Mail.Sender != "" {
		fmt.Printf("  Sender: %s\n", cfg.Mail.Sender)
	}
	fmt.Println()
	fmt.Println("Optional Features:")
	fmt.Printf("  Wake-on-LAN: %v\n", cfg.Wake != nil)
	fmt.Printf("  SSH Shutdown: %v\n", cfg.Shutdown != nil)

	if cfg.Wake != nil {
		fmt.Println()
		fmt.Println("Wake Configuration:")
		fmt.Printf("  MAC Address: %s\n", cfg.Wake.MACAddress)
		fmt.Printf("  Broadcast IP: %s\n", cfg.Wake.BroadcastIP)
		if cfg.Wake.PollURL != "" {
			fmt.Printf("  Poll URL: %s\n", cfg.Wake.PollURL)
		}
	}

	if cfg.Shutdown != nil {
		fmt.Println()
		fmt.Println("Shutdown Configuration:")
		fmt.Printf("  Host: %s\n", cfg.Shutdown.Host)
		fmt.Printf("  Port: %d\n", cfg.Shutdown.Port)
		fmt.Printf("  Username: %s\n", cfg.Shutdown.Username)
		if cfg.Shutdown.Delay > 0 {
			fmt.Printf("  Shutdown Delay: %d minute(s)\n", cfg.Shutdown.Delay)
		}
	}

	return nil
}
