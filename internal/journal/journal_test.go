package journal

import (
	"io"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

var linePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2} `)

func TestOpen_CreatesDirectoryAndFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")

	j, err := Open(dir, "2024-03-07", testLogger())
	require.NoError(t, err)
	defer j.Close()

	assert.Equal(t, filepath.Join(dir, "backup_2024-03-07.log"), j.Path())

	_, err = os.Stat(j.Path())
	assert.NoError(t, err)
}

func TestOpen_DirectoryIsOwnerOnly(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("unix permissions only")
	}

	dir := filepath.Join(t.TempDir(), "logs")

	j, err := Open(dir, "2024-03-07", testLogger())
	require.NoError(t, err)
	defer j.Close()

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o700), info.Mode().Perm())
}

func TestOpen_FailsWhenDirectoryPathIsAFile(t *testing.T) {
	base := t.TempDir()
	blocker := filepath.Join(base, "logs")
	require.NoError(t, os.WriteFile(blocker, []byte("not a directory"), 0o600))

	_, err := Open(blocker, "2024-03-07", testLogger())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "creating log directory")
}

func TestInfo_WritesTimestampedLine(t *testing.T) {
	j, err := Open(t.TempDir(), "2024-03-07", testLogger())
	require.NoError(t, err)

	j.now = func() time.Time {
		return time.Date(2024, 3, 7, 14, 30, 5, 0, time.UTC)
	}
	j.Info("Backup started.")
	require.NoError(t, j.Close())

	content, err := os.ReadFile(j.Path())
	require.NoError(t, err)
	assert.Equal(t, "2024-03-07 14:30:05 Backup started.\n", string(content))
}

func TestError_CarriesMarker(t *testing.T) {
	j, err := Open(t.TempDir(), "2024-03-07", testLogger())
	require.NoError(t, err)

	j.Error("rsync not found")
	require.NoError(t, j.Close())

	content, err := os.ReadFile(j.Path())
	require.NoError(t, err)
	assert.Contains(t, string(content), "ERROR: rsync not found")
	assert.Regexp(t, linePattern, string(content))
}

func TestWarn_CarriesMarker(t *testing.T) {
	j, err := Open(t.TempDir(), "2024-03-07", testLogger())
	require.NoError(t, err)

	j.Warn("shutdown command returned an error")
	require.NoError(t, j.Close())

	content, err := os.ReadFile(j.Path())
	require.NoError(t, err)
	assert.Contains(t, string(content), "WARNING: shutdown command returned an error")
}

func TestSeparator(t *testing.T) {
	j, err := Open(t.TempDir(), "2024-03-07", testLogger())
	require.NoError(t, err)

	j.Separator()
	require.NoError(t, j.Close())

	content, err := os.ReadFile(j.Path())
	require.NoError(t, err)
	assert.Contains(t, string(content), strings.Repeat("-", 60))
}

func TestSeparator_MirroredToTerminal(t *testing.T) {
	var terminal strings.Builder
	j, err := Open(t.TempDir(), "2024-03-07", zerolog.New(&terminal))
	require.NoError(t, err)
	defer j.Close()

	j.Separator()

	assert.Contains(t, terminal.String(), strings.Repeat("-", 60))
}

func TestOpen_AppendsAcrossRuns(t *testing.T) {
	dir := t.TempDir()

	j, err := Open(dir, "2024-03-07", testLogger())
	require.NoError(t, err)
	j.Info("first run")
	require.NoError(t, j.Close())

	j, err = Open(dir, "2024-03-07", testLogger())
	require.NoError(t, err)
	j.Info("second run")
	require.NoError(t, j.Close())

	content, err := os.ReadFile(j.Path())
	require.NoError(t, err)
	lines := strings.Split(strings.TrimRight(string(content), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "first run")
	assert.Contains(t, lines[1], "second run")
}
