package validator

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/fgeck/gorsync-backup/internal/exitcode"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

func TestValidate_Success(t *testing.T) {
	svc := New(testLogger())

	err := svc.Validate(t.TempDir(), t.TempDir())

	assert.NoError(t, err)
}

func TestValidate_EmptySource(t *testing.T) {
	svc := New(testLogger())

	err := svc.Validate("", t.TempDir())

	require.Error(t, err)
	assert.Equal(t, exitcode.Usage, exitcode.FromError(err))
}

func TestValidate_EmptyTarget(t *testing.T) {
	svc := New(testLogger())

	err := svc.Validate(t.TempDir(), "")

	require.Error(t, err)
	assert.Equal(t, exitcode.Usage, exitcode.FromError(err))
}

func TestValidate_EmptyCheckedBeforeSamePath(t *testing.T) {
	// Both empty: the empty check must win, not the same-string condition.
	svc := New(testLogger())

	err := svc.Validate("", "")

	assert.Equal(t, exitcode.Usage, exitcode.FromError(err))
}

func TestValidate_SamePath(t *testing.T) {
	dir := t.TempDir()
	svc := New(testLogger())

	err := svc.Validate(dir, dir)

	require.Error(t, err)
	assert.Equal(t, exitcode.SamePath, exitcode.FromError(err))
}

func TestValidate_SamePathViaSymlink(t *testing.T) {
	dir := t.TempDir()
	link := filepath.Join(t.TempDir(), "alias")
	require.NoError(t, os.Symlink(dir, link))

	svc := New(testLogger())
	err := svc.Validate(dir, link)

	require.Error(t, err)
	assert.Equal(t, exitcode.SamePath, exitcode.FromError(err))
}

func TestValidate_SourceMissing(t *testing.T) {
	svc := New(testLogger())

	err := svc.Validate(filepath.Join(t.TempDir(), "absent"), t.TempDir())

	require.Error(t, err)
	assert.Equal(t, exitcode.SourceUnavailable, exitcode.FromError(err))
}

func TestValidate_SourceIsAFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "file.txt")
	require.NoError(t, os.WriteFile(file, []byte("data"), 0o600))

	svc := New(testLogger())
	err := svc.Validate(file, t.TempDir())

	require.Error(t, err)
	assert.Equal(t, exitcode.SourceUnavailable, exitcode.FromError(err))
}

func TestValidate_SourceUnreadable(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permission checks are meaningless as root")
	}

	source := t.TempDir()
	require.NoError(t, os.Chmod(source, 0o000))
	t.Cleanup(func() { _ = os.Chmod(source, 0o700) })

	svc := New(testLogger())
	err := svc.Validate(source, t.TempDir())

	require.Error(t, err)
	assert.Equal(t, exitcode.SourceUnavailable, exitcode.FromError(err))
}

func TestValidate_TargetMissing(t *testing.T) {
	svc := New(testLogger())

	err := svc.Validate(t.TempDir(), filepath.Join(t.TempDir(), "absent"))

	require.Error(t, err)
	assert.Equal(t, exitcode.TargetUnavailable, exitcode.FromError(err))
}

func TestValidate_TargetUnwritable(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permission checks are meaningless as root")
	}

	target := t.TempDir()
	require.NoError(t, os.Chmod(target, 0o500))
	t.Cleanup(func() { _ = os.Chmod(target, 0o700) })

	svc := New(testLogger())
	err := svc.Validate(t.TempDir(), target)

	require.Error(t, err)
	assert.Equal(t, exitcode.TargetUnavailable, exitcode.FromError(err))
}

func TestValidate_MissingSourceReportedBeforeMissingTarget(t *testing.T) {
	base := t.TempDir()
	svc := New(testLogger())

	err := svc.Validate(filepath.Join(base, "no-source"), filepath.Join(base, "no-target"))

	require.Error(t, err)
	assert.Equal(t, exitcode.SourceUnavailable, exitcode.FromError(err))
}

func TestValidate_LeavesPathsUntouched(t *testing.T) {
	source := t.TempDir()
	missing := filepath.Join(t.TempDir(), "absent")

	svc := New(testLogger())
	_ = svc.Validate(source, missing)

	_, err := os.Stat(missing)
	assert.True(t, os.IsNotExist(err), "validator must not create the target")
}
