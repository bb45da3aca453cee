// Package shutdown powers the backup host back down over SSH after a
// successful run.
package shutdown

import (
	"context"
	"fmt"
	"net"
	"os"
	"time"

	"github.com/fgeck/gorsync-backup/internal/models"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/ssh"
)

// Service defines the interface for remote shutdown operations.
type Service interface {
	Shutdown(ctx context.Context, cfg models.ShutdownConfig) (*models.ShutdownResult, error)
}

// Client wraps ssh.Client for mocking.
type Client interface {
	NewSession() (Session, error)
	Close() error
}

// Session wraps ssh.Session for mocking.
type Session interface {
	CombinedOutput(cmd string) ([]byte, error)
	Close() error
}

// ClientFactory creates SSH clients.
type ClientFactory interface {
	NewClient(network, addr string, config *ssh.ClientConfig) (Client, error)
}

// DefaultClientFactory dials with x/crypto/ssh.
type DefaultClientFactory struct{}

// NewClient creates a new SSH client.
func (f *DefaultClientFactory) NewClient(network, addr string, config *ssh.ClientConfig) (Client, error) {
	client, err := ssh.Dial(network, addr, config)
	if err != nil {
		return nil, err
	}
	return &defaultClient{client: client}, nil
}

type defaultClient struct {
	client *ssh.Client
}

func (c *defaultClient) NewSession() (Session, error) {
	session, err := c.client.NewSession()
	if err != nil {
		return nil, err
	}
	return &defaultSession{session: session}, nil
}

func (c *defaultClient) Close() error {
	return c.client.Close()
}

type defaultSession struct {
	session *ssh.Session
}

func (s *defaultSession) CombinedOutput(cmd string) ([]byte, error) {
	return s.session.CombinedOutput(cmd)
}

func (s *defaultSession) Close() error {
	return s.session.Close()
}

// Impl implements the shutdown Service interface.
type Impl struct {
	clientFactory ClientFactory
	logger        zerolog.Logger
}

// New creates a new shutdown service.
func New(logger zerolog.Logger) *Impl {
	return &Impl{
		clientFactory: &DefaultClientFactory{},
		logger:        logger,
	}
}

// NewWithClientFactory creates a new shutdown service with a custom client factory (for testing).
func NewWithClientFactory(logger zerolog.Logger, factory ClientFactory) *Impl {
	return &Impl{
		clientFactory: factory,
		logger:        logger,
	}
}

func (s *Impl) buildClientConfig(cfg models.ShutdownConfig) (*ssh.ClientConfig, error) {
	key := cfg.PrivateKey
	if len(key) == 0 {
		if cfg.KeyPath == "" {
			return nil, fmt.Errorf("no private key provided")
		}
		loaded, err := os.ReadFile(cfg.KeyPath)
		if err != nil {
			return nil, fmt.Errorf("reading private key %s: %w", cfg.KeyPath, err)
		}
		key = loaded
	}

	signer, err := ssh.ParsePrivateKey(key)
	if err != nil {
		return nil, fmt.Errorf("parsing private key: %w", err)
	}

	return &ssh.ClientConfig{
		User: cfg.Username,
		Auth: []ssh.AuthMethod{
			ssh.PublicKeys(signer),
		},
		HostKeyCallback: ssh.InsecureIgnoreHostKey(), //nolint:gosec // local backup network
		Timeout:         30 * time.Second,
	}, nil
}

// Shutdown schedules a power-off on the backup host. A connection dropped
// by the host while shutting down is expected and is not reported as a
// failure once the command has run.
func (s *Impl) Shutdown(ctx context.Context, cfg models.ShutdownConfig) (*models.ShutdownResult, error) {
	result := &models.ShutdownResult{}

	s.logger.Info().
		Str("host", cfg.Host).
		Int("port", cfg.Port).
		Int("delay", cfg.Delay).
		Msg("powering down backup host")

	clientConfig, err := s.buildClientConfig(cfg)
	if err != nil {
		result.Error = err
		return result, nil
	}

	client, err := s.dial(ctx, cfg, clientConfig)
	if err != nil {
		result.Error = err
		return result, nil //nolint:nilerr // error is stored in result struct by design
	}
	defer client.Close()

	session, err := client.NewSession()
	if err != nil {
		result.Error = fmt.Errorf("creating session: %w", err)
		return result, nil
	}
	defer session.Close()

	cmd := ShutdownCommand(cfg.Delay)
	s.logger.Debug().Str("command", cmd).Msg("executing shutdown command")

	output, err := session.CombinedOutput(cmd)
	result.Output = string(output)
	result.CommandRun = true

	if err != nil {
		if ctx.Err() != nil {
			result.Error = ctx.Err()
		} else {
			s.logger.Warn().Err(err).Str("output", result.Output).
				Msg("shutdown command returned an error (may be the connection closing)")
		}
	}

	return result, nil
}

// dial connects in a goroutine so a cancelled context is not stuck behind
// a slow TCP handshake.
func (s *Impl) dial(ctx context.Context, cfg models.ShutdownConfig, clientConfig *ssh.ClientConfig) (Client, error) {
	addr := net.JoinHostPort(cfg.Host, fmt.Sprintf("%d", cfg.Port))

	type dialed struct {
		client Client
		err    error
	}
	ch := make(chan dialed, 1)

	go func() {
		client, err := s.clientFactory.NewClient("tcp", addr, clientConfig)
		ch <- dialed{client, err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.err != nil {
			return nil, fmt.Errorf("connecting to %s: %w", addr, res.err)
		}
		return res.client, nil
	}
}

// ShutdownCommand builds the remote power-off command for the given delay
// in minutes.
func ShutdownCommand(delayMinutes int) string {
	if delayMinutes <= 0 {
		return "sudo shutdown -h now"
	}
	return fmt.Sprintf("sudo shutdown -h +%d", delayMinutes)
}
