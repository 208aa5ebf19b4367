package exrun

import (
	"errors"
	"fmt"
	"os"
	"os/exec"

	"github.com/sa6mwa/exrun/adapters/commandcapture"
	"github.com/sa6mwa/exrun/port"
)

// Outcome is the raw, unclassified result of running a command: what was
// written to each stream and how the wait ended.
type Outcome struct {
	Stdout     string
	Stderr     string
	StderrSeen bool
	ExitCode   int
	Err        error
}

// RunCommand executes cmd using the supplied runner with stdout and stderr
// redirected into a capture. cmd must not have its streams configured.
func RunCommand(runner port.CommandRunner, cmd *exec.Cmd) (Outcome, error) {
	if runner == nil {
		return Outcome{}, fmt.Errorf("nil command runner")
	}
	capture := commandcapture.New()
	if err := capture.Attach(cmd); err != nil {
		return Outcome{}, err
	}
	defer capture.Restore()
	err := runner.Run(cmd)
	out := Outcome{
		Stdout:   capture.Output(),
		ExitCode: exitCodeFrom(err, cmd.ProcessState),
		Err:      err,
	}
	out.Stderr, out.StderrSeen = capture.ErrorStream()
	return out, nil
}

// exitCoder is satisfied by *exec.ExitError and by test doubles.
type exitCoder interface {
	ExitCode() int
}

func exitCodeFrom(waitErr error, state *os.ProcessState) int {
	if state != nil {
		return state.ExitCode()
	}
	if waitErr == nil {
		return 0
	}
	var coder exitCoder
	if errors.As(waitErr, &coder) {
		return coder.ExitCode()
	}
	return -1
}

// exited reports whether waitErr only describes a non-zero exit status,
// as opposed to a failure to start, wait on, or copy from the process.
func exited(waitErr error) bool {
	var coder exitCoder
	return errors.As(waitErr, &coder)
}
