package rsync

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fgeck/gorsync-backup/internal/models"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockExecutor is a mock implementation of CommandExecutor for testing.
type mockExecutor struct {
	executeFunc  func(ctx context.Context, name string, args ...string) ([]byte, int, error)
	lookPathFunc func(file string) (string, error)
}

func (m *mockExecutor) Execute(ctx context.Context, name string, args ...string) ([]byte, int, error) {
	if m.executeFunc != nil {
		return m.executeFunc(ctx, name, args...)
	}
	return nil, 0, nil
}

func (m *mockExecutor) LookPath(file string) (string, error) {
	if m.lookPathFunc != nil {
		return m.lookPathFunc(file)
	}
	return "/usr/bin/" + file, nil
}

func testLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

func testSettings() models.RsyncSettings {
	return models.RsyncSettings{Command: "rsync"}
}

func testRequest() models.MirrorRequest {
	return models.MirrorRequest{
		Source:    "/data",
		Target:    "/backup",
		DateStamp: "2024-03-07",
	}
}

func TestAvailable_Found(t *testing.T) {
	executor := &mockExecutor{
		lookPathFunc: func(file string) (string, error) {
			assert.Equal(t, "rsync", file)
			return "/usr/bin/rsync", nil
		},
	}

	svc := NewWithExecutor(testLogger(), executor)

	assert.NoError(t, svc.Available(testSettings()))
}

func TestAvailable_Missing(t *testing.T) {
	executor := &mockExecutor{
		lookPathFunc: func(file string) (string, error) {
			return "", errors.New("executable file not found in $PATH")
		},
	}

	svc := NewWithExecutor(testLogger(), executor)
	err := svc.Available(testSettings())

	require.Error(t, err)
	assert.Contains(t, err.Error(), `sync tool "rsync" not found`)
}

func TestMirror_ArgumentVector(t *testing.T) {
	var gotName string
	var gotArgs []string
	executor := &mockExecutor{
		executeFunc: func(ctx context.Context, name string, args ...string) ([]byte, int, error) {
			gotName = name
			gotArgs = args
			return []byte("sent 0 bytes"), 0, nil
		},
	}

	svc := NewWithExecutor(testLogger(), executor)
	result, err := svc.Mirror(context.Background(), testSettings(), testRequest())

	require.NoError(t, err)
	assert.Equal(t, "rsync", gotName)
	assert.Equal(t, []string{
		"--archive",
		"--verbose",
		"--delete",
		"--backup",
		"--backup-dir=" + filepath.Join("/backup", "2024-03-07"),
		"/data/",
		filepath.Join("/backup", "current"),
	}, gotArgs)
	assert.Equal(t, 0, result.ExitCode)
	assert.Nil(t, result.Error)
}

func TestMirror_DryRunFlag(t *testing.T) {
	var gotArgs []string
	executor := &mockExecutor{
		executeFunc: func(ctx context.Context, name string, args ...string) ([]byte, int, error) {
			gotArgs = args
			return nil, 0, nil
		},
	}

	req := testRequest()
	req.DryRun = true

	svc := NewWithExecutor(testLogger(), executor)
	result, err := svc.Mirror(context.Background(), testSettings(), req)

	require.NoError(t, err)
	assert.Contains(t, gotArgs, "--dry-run")
	assert.True(t, result.DryRun)
}

func TestMirror_ExcludesAndBandwidthLimit(t *testing.T) {
	var gotArgs []string
	executor := &mockExecutor{
		executeFunc: func(ctx context.Context, name string, args ...string) ([]byte, int, error) {
			gotArgs = args
			return nil, 0, nil
		},
	}

	cfg := models.RsyncSettings{
		Command:        "rsync",
		Excludes:       []string{"*.tmp", ".cache/"},
		BandwidthLimit: "10m",
	}

	svc := NewWithExecutor(testLogger(), executor)
	_, err := svc.Mirror(context.Background(), cfg, testRequest())

	require.NoError(t, err)
	joined := strings.Join(gotArgs, " ")
	assert.Contains(t, joined, "--exclude *.tmp")
	assert.Contains(t, joined, "--exclude .cache/")
	assert.Contains(t, joined, "--bwlimit 10m")
}

func TestMirror_SourceGetsTrailingSlash(t *testing.T) {
	var gotArgs []string
	executor := &mockExecutor{
		executeFunc: func(ctx context.Context, name string, args ...string) ([]byte, int, error) {
			gotArgs = args
			return nil, 0, nil
		},
	}

	req := testRequest()
	req.Source = "/data/photos/" // already has one; must not double up

	svc := NewWithExecutor(testLogger(), executor)
	_, err := svc.Mirror(context.Background(), testSettings(), req)

	require.NoError(t, err)
	assert.Contains(t, gotArgs, "/data/photos/")
	assert.NotContains(t, gotArgs, "/data/photos//")
}

func TestMirror_NonZeroExit(t *testing.T) {
	executor := &mockExecutor{
		executeFunc: func(ctx context.Context, name string, args ...string) ([]byte, int, error) {
			return []byte("rsync error: some files could not be transferred"), 23,
				errors.New("exit status 23")
		},
	}

	svc := NewWithExecutor(testLogger(), executor)
	result, err := svc.Mirror(context.Background(), testSettings(), testRequest())

	require.NoError(t, err)
	assert.Equal(t, 23, result.ExitCode)
	require.NotNil(t, result.Error)
	assert.Contains(t, result.Error.Error(), "exit status 23")
	assert.Contains(t, result.Output, "could not be transferred")
}

func TestMirror_CustomBinary(t *testing.T) {
	var gotName string
	executor := &mockExecutor{
		executeFunc: func(ctx context.Context, name string, args ...string) ([]byte, int, error) {
			gotName = name
			return nil, 0, nil
		},
	}

	cfg := models.RsyncSettings{Command: "/opt/rsync/bin/rsync"}

	svc := NewWithExecutor(testLogger(), executor)
	_, err := svc.Mirror(context.Background(), cfg, testRequest())

	require.NoError(t, err)
	assert.Equal(t, "/opt/rsync/bin/rsync", gotName)
}
