package exrun

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrExitCode    = errors.New("exrun: non-zero exit code")
	ErrErrorStream = errors.New("exrun: data on error stream")
	ErrLaunch      = errors.New("exrun: launch failed")
)

// Kind tags which failure path produced a ProcessError.
type Kind int

const (
	KindExitCode Kind = iota
	KindErrorStream
	KindLaunch
)

func (k Kind) String() string {
	switch k {
	case KindExitCode:
		return "exit-code"
	case KindErrorStream:
		return "error-stream"
	case KindLaunch:
		return "launch"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

const (
	errorTextTemplate = "%s :: command \"%s %s\" raised error: %s"
	errorCodeTemplate = "%s :: command \"%s %s\" exited with exit code: '%d'"
)

// ProcessError is the single error type returned by Execute and friends.
// Err holds the host-level cause for KindLaunch failures and is nil
// otherwise.
type ProcessError struct {
	Kind       Kind
	Time       time.Time
	Executable string
	Args       string
	ExitCode   int
	Text       string
	Err        error
}

func (e *ProcessError) Error() string {
	if e == nil {
		return "<nil>"
	}
	ts := e.Time.Format(time.RFC3339)
	if e.Kind == KindExitCode {
		return fmt.Sprintf(errorCodeTemplate, ts, e.Executable, e.Args, e.ExitCode)
	}
	return fmt.Sprintf(errorTextTemplate, ts, e.Executable, e.Args, e.Text)
}

func (e *ProcessError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is matches the kind sentinels ErrExitCode, ErrErrorStream and ErrLaunch.
func (e *ProcessError) Is(target error) bool {
	if e == nil {
		return false
	}
	switch target {
	case ErrExitCode:
		return e.Kind == KindExitCode
	case ErrErrorStream:
		return e.Kind == KindErrorStream
	case ErrLaunch:
		return e.Kind == KindLaunch
	}
	return false
}

func exitCodeError(at time.Time, c Command, code int) *ProcessError {
	return &ProcessError{Kind: KindExitCode, Time: at, Executable: c.Executable, Args: c.Args, ExitCode: code}
}

func errorStreamError(at time.Time, c Command, text string, code int) *ProcessError {
	return &ProcessError{Kind: KindErrorStream, Time: at, Executable: c.Executable, Args: c.Args, ExitCode: code, Text: text}
}

func launchError(at time.Time, c Command, cause error) *ProcessError {
	return &ProcessError{Kind: KindLaunch, Time: at, Executable: c.Executable, Args: c.Args, ExitCode: -1, Text: cause.Error(), Err: cause}
}

// IsNotFound reports whether err is a launch failure caused by a missing
// executable.
func IsNotFound(err error) bool {
	var pe *ProcessError
	return errors.As(err, &pe) && pe.Kind == KindLaunch && isNotFoundErr(pe.Err)
}

// IsPermission reports whether err is a launch failure caused by the OS
// refusing to execute the file. Policy denials are not included.
func IsPermission(err error) bool {
	var pe *ProcessError
	if !errors.As(err, &pe) || pe.Kind != KindLaunch {
		return false
	}
	return !errors.Is(pe.Err, ErrDenied) && isPermissionErr(pe.Err)
}
