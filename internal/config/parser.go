// Package config resolves the run configuration from the environment and
// an optional config file.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/fgeck/gorsync-backup/internal/models"
	"github.com/spf13/viper"
)

// Defaults applied when neither the environment nor a config file says
// otherwise.
const (
	DefaultLogDirectory = "logs"
	DefaultRecipient    = "backup-operator@localhost"
	DefaultMailCommand  = "mail"
	DefaultSyncCommand  = "rsync"
)

// Parser resolves a BackupConfig.
type Parser struct {
	v   *viper.Viper
	now func() time.Time
}

// NewParser creates a new configuration parser.
func NewParser() *Parser {
	v := viper.New()
	v.SetConfigType("yaml")

	// Environment toggles per the CLI contract.
	_ = v.BindEnv("dry_run", "DRY_RUN")
	_ = v.BindEnv("log.directory", "LOG_DIR")
	_ = v.BindEnv("mail.recipient", "EMAIL_RECIPIENT")

	v.SetDefault("log.directory", DefaultLogDirectory)
	v.SetDefault("mail.recipient", DefaultRecipient)
	v.SetDefault("mail.command", DefaultMailCommand)
	v.SetDefault("rsync.command", DefaultSyncCommand)

	return &Parser{v: v, now: time.Now}
}

// Resolve builds the configuration for one run. The date stamp is
// computed exactly once here and threaded as data from then on.
func (p *Parser) Resolve(source, target, configFile string) (*models.BackupConfig, error) {
	if configFile != "" {
		p.v.SetConfigFile(configFile)
		if err := p.v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	return p.parse(source, target)
}

// ResolveReader builds the configuration from inline YAML content
// (useful for testing).
func (p *Parser) ResolveReader(source, target, content string) (*models.BackupConfig, error) {
	if err := p.v.ReadConfig(strings.NewReader(content)); err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	return p.parse(source, target)
}

func (p *Parser) parse(source, target string) (*models.BackupConfig, error) {
	cfg := &models.BackupConfig{
		Source:    source,
		Target:    target,
		DateStamp: p.now().Format("2006-01-02"),

		// Only the literal "true" enables simulation mode.
		DryRun: p.v.GetString("dry_run") == "true",

		Log: models.LogSettings{
			Directory: p.v.GetString("log.directory"),
		},
		Rsync: models.RsyncSettings{
			Command:        p.v.GetString("rsync.command"),
			Excludes:       p.v.GetStringSlice("rsync.excludes"),
			BandwidthLimit: p.v.GetString("rsync.bwlimit"),
		},
		Mail: models.MailConfig{
			Command:   p.v.GetString("mail.command"),
			Recipient: p.v.GetString("mail.recipient"),
			Sender:    p.v.GetString("mail.sender"),
		},
	}

	if cfg.Log.Directory == "" {
		return nil, fmt.Errorf("log directory must not be empty")
	}
	if cfg.Mail.Recipient == "" {
		return nil, fmt.Errorf("mail recipient must not be empty")
	}

	// Parse optional wake config.
	if p.v.IsSet("wake") {
		cfg.Wake = &models.WakeConfig{
			MACAddress:    p.v.GetString("wake.mac_address"),
			BroadcastIP:   p.v.GetString("wake.broadcast_ip"),
			PollURL:       p.v.GetString("wake.poll_url"),
			Timeout:       p.v.GetDuration("wake.timeout"),
			PollInterval:  p.v.GetDuration("wake.poll_interval"),
			StabilizeWait: p.v.GetDuration("wake.stabilize_wait"),
		}

		if cfg.Wake.MACAddress == "" {
			return nil, fmt.Errorf("wake.mac_address is required when wake is configured")
		}

		// Set defaults.
		if cfg.Wake.BroadcastIP == "" {
			cfg.Wake.BroadcastIP = "255.255.255.255"
		}
		if cfg.Wake.Timeout == 0 {
			cfg.Wake.Timeout = 5 * time.Minute
		}
		if cfg.Wake.PollInterval == 0 {
			cfg.Wake.PollInterval = 10 * time.Second
		}
		if cfg.Wake.StabilizeWait == 0 {
			cfg.Wake.StabilizeWait = 10 * time.Second
		}
	}

	// Parse optional shutdown config.
	if p.v.IsSet("shutdown") {
		cfg.Shutdown = &models.ShutdownConfig{
			Host:     p.v.GetString("shutdown.host"),
			Port:     p.v.GetInt("shutdown.port"),
			Username: p.v.GetString("shutdown.username"),
			KeyPath:  p.v.GetString("shutdown.key_path"),
			Delay:    p.v.GetInt("shutdown.delay"),
		}

		if cfg.Shutdown.Host == "" {
			return nil, fmt.Errorf("shutdown.host is required when shutdown is configured")
		}
		if cfg.Shutdown.KeyPath == "" {
			return nil, fmt.Errorf("shutdown.key_path is required when shutdown is configured")
		}
		if cfg.Shutdown.Port == 0 {
			cfg.Shutdown.Port = 22
		}
		if cfg.Shutdown.Username == "" {
			cfg.Shutdown.Username = "root"
		}
	}

	return cfg, nil
}
