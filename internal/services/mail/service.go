// Package mail notifies the operator through the system's mail binary.
package mail

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/fgeck/gorsync-backup/internal/models"
	"github.com/rs/zerolog"
)

// Service defines the interface for operator notifications.
type Service interface {
	Available(cfg models.MailConfig) error
	Send(ctx context.Context, cfg models.MailConfig, msg models.MailMessage) (*models.MailResult, error)
}

// CommandExecutor allows mocking exec.Command in tests.
type CommandExecutor interface {
	ExecuteWithInput(ctx context.Context, input string, name string, args ...string) ([]byte, error)
	LookPath(file string) (string, error)
}

// DefaultExecutor is the default command executor using os/exec.
type DefaultExecutor struct{}

// ExecuteWithInput runs a command with the given string on stdin.
func (e *DefaultExecutor) ExecuteWithInput(ctx context.Context, input string, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdin = strings.NewReader(input)
	return cmd.CombinedOutput()
}

// LookPath reports where the binary resolves on PATH.
func (e *DefaultExecutor) LookPath(file string) (string, error) {
	return exec.LookPath(file)
}

// Impl implements the mail Service interface.
type Impl struct {
	executor CommandExecutor
	logger   zerolog.Logger
}

// New creates a new mail service.
func New(logger zerolog.Logger) *Impl {
	return &Impl{
		executor: &DefaultExecutor{},
		logger:   logger,
	}
}

// NewWithExecutor creates a new mail service with a custom executor (for testing).
func NewWithExecutor(logger zerolog.Logger, executor CommandExecutor) *Impl {
	return &Impl{
		executor: executor,
		logger:   logger,
	}
}

// Available verifies the mail binary can be found and executed.
func (s *Impl) Available(cfg models.MailConfig) error {
	path, err := s.executor.LookPath(cfg.Command)
	if err != nil {
		return fmt.Errorf("mail mechanism %q not found: %w", cfg.Command, err)
	}

	s.logger.Debug().Str("path", path).Msg("mail mechanism located")
	return nil
}

// Send delivers one subject+body message to the configured recipient. The
// body goes to the mail binary on stdin; the subject, optional sender and
// recipient are discrete argument tokens.
func (s *Impl) Send(ctx context.Context, cfg models.MailConfig, msg models.MailMessage) (*models.MailResult, error) {
	result := &models.MailResult{}

	s.logger.Info().
		Str("recipient", cfg.Recipient).
		Str("subject", msg.Subject).
		Msg("sending notification")

	args := []string{"-s", msg.Subject}
	if cfg.Sender != "" {
		args = append(args, "-r", cfg.Sender)
	}
	args = append(args, cfg.Recipient)

	output, err := s.executor.ExecuteWithInput(ctx, msg.Body, cfg.Command, args...)
	if err != nil {
		result.Error = fmt.Errorf("mail send failed: %w, output: %s", err, string(output))
		return result, nil //nolint:nilerr // error is stored in result struct by design
	}

	result.MessageSent = true
	s.logger.Info().Msg("notification sent")

	return result, nil
}
