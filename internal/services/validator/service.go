// Package validator checks backup preconditions before anything touches
// the filesystem.
package validator

import (
	"os"

	"github.com/fgeck/gorsync-backup/internal/exitcode"
	"github.com/rs/zerolog"
	"golang.org/x/sys/unix"
)

// Service defines the interface for precondition validation.
type Service interface {
	Validate(source, target string) error
}

// Impl implements the validator Service interface.
type Impl struct {
	logger zerolog.Logger
}

// New creates a new validator service.
func New(logger zerolog.Logger) *Impl {
	return &Impl{logger: logger}
}

// Validate checks the two paths in a fixed short-circuit order so the
// reported cause is always unambiguous: empty paths, identical entity,
// source readable, target writable. It never creates or deletes paths.
func (s *Impl) Validate(source, target string) error {
	if source == "" || target == "" {
		return exitcode.Errorf(exitcode.Usage, "source and target paths must not be empty")
	}

	if sameEntity(source, target) {
		return exitcode.Errorf(exitcode.SamePath,
			"source and target refer to the same directory: %s", source)
	}

	if err := checkDirectory(source, unix.R_OK|unix.X_OK); err != nil {
		return exitcode.Errorf(exitcode.SourceUnavailable,
			"source directory %s: %v", source, err)
	}

	if err := checkDirectory(target, unix.W_OK|unix.X_OK); err != nil {
		return exitcode.Errorf(exitcode.TargetUnavailable,
			"target directory %s: %v", target, err)
	}

	s.logger.Debug().
		Str("source", source).
		Str("target", target).
		Msg("backup preconditions satisfied")

	return nil
}

// sameEntity reports whether the two paths name the same filesystem
// entity by device and inode, which catches symlink aliases that string
// comparison misses. Paths that cannot be stat'd are never the same
// entity; the per-path checks that follow report them.
func sameEntity(a, b string) bool {
	infoA, errA := os.Stat(a)
	infoB, errB := os.Stat(b)
	if errA != nil || errB != nil {
		return false
	}
	return os.SameFile(infoA, infoB)
}

// checkDirectory verifies the path is an existing directory with the
// requested access bits. faccessat probes permissions without creating
// any files.
func checkDirectory(path string, mode uint32) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return unix.ENOTDIR
	}
	return unix.Access(path, mode)
}
