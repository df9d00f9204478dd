package domain

import (
	"errors"
	"fmt"
)

// Exit codes reported by the command layer. They match the codes scripts
// have historically checked for.
const (
	ExitGeneric         = 1
	ExitUnreadable      = 103
	ExitNoChannels      = 104
	ExitInvalidSettings = 105
	ExitPlaneMismatch   = 106
	ExitNoSuchObject    = 110
	ExitUnsupportedKind = 111
	ExitRenamedCommand  = 112
	ExitNoImages        = 113
	ExitUnknownVersion  = 124
)

// ExitError carries the process exit code alongside the cause.
type ExitError struct {
	Code int
	Msg  string
	Err  error
}

// NewExitError wraps err with an exit code and a user-facing message.
func NewExitError(code int, err error, format string, args ...any) *ExitError {
	return &ExitError{Code: code, Msg: fmt.Sprintf(format, args...), Err: err}
}

func (e *ExitError) Error() string {
	if e.Msg == "" && e.Err != nil {
		return e.Err.Error()
	}
	return e.Msg
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// ExitCode returns the exit code for err: 0 for nil, the carried code for an
// ExitError anywhere in the chain, ExitGeneric otherwise.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitGeneric
}
