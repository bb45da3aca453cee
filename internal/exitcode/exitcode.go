// Package exitcode maps run failures to distinct process exit codes so
// calling schedulers can tell failure causes apart.
package exitcode

import (
	"errors"
	"fmt"
)

// Exit codes. Schedulers depend on these staying stable.
const (
	Success           = 0
	Usage             = 1 // wrong argument count or empty source/target path
	SamePath          = 2 // source and target are the same filesystem entity
	SourceUnavailable = 3 // source missing, not a directory, or unreadable
	TargetUnavailable = 4 // target missing, not a directory, or unwritable
	SyncToolMissing   = 5 // rsync not found or not executable
	NotifySendFailed  = 6 // mail binary present but the send failed
	MailUnavailable   = 7 // mail binary not found or not executable
	SyncFailed        = 8 // rsync returned a non-zero exit status
	WakeFailed        = 9 // Wake-on-LAN target never became ready
	LogUnavailable    = 10
)

// Error carries an exit code alongside the underlying cause.
type Error struct {
	Code int
	Err  error
}

func (e *Error) Error() string {
	return e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New wraps err with an exit code.
func New(code int, err error) *Error {
	return &Error{Code: code, Err: err}
}

// Errorf builds a coded error from a format string.
func Errorf(code int, format string, a ...any) *Error {
	return &Error{Code: code, Err: fmt.Errorf(format, a...)}
}

// FromError returns the exit code for err: 0 for nil, the embedded code
// for coded errors, and Usage for anything else (cobra argument and flag
// errors land here).
func FromError(err error) int {
	if err == nil {
		return Success
	}
	var coded *Error
	if errors.As(err, &coded) {
		return coded.Code
	}
	return Usage
}
