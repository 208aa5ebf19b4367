package mockrunner

import (
	"fmt"
	"os/exec"
	"slices"
	"sync"

	"github.com/sa6mwa/exrun/port"
)

// Behavior represents a single command execution path for the mock runner.
type Behavior func(cmd *exec.Cmd) error

// Runner is a thread-safe mock implementation of port.CommandRunner.
type Runner struct {
	mu        sync.Mutex
	behaviors []Behavior
	Calls     int
	Paths     []string
	Args      [][]string
}

var _ port.CommandRunner = (*Runner)(nil)

// New constructs a Runner that will invoke behaviors sequentially for each call.
func New(behaviors ...Behavior) *Runner {
	return &Runner{behaviors: slices.Clone(behaviors)}
}

// Run records the call metadata and dispatches to the next behavior.
func (r *Runner) Run(cmd *exec.Cmd) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.Calls++
	r.Paths = append(r.Paths, cmd.Path)
	r.Args = append(r.Args, slices.Clone(cmd.Args))

	if len(r.behaviors) == 0 {
		return nil
	}
	behavior := r.behaviors[0]
	r.behaviors = r.behaviors[1:]
	return behavior(cmd)
}

// Remaining returns the number of queued behaviors that have not yet been consumed.
func (r *Runner) Remaining() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.behaviors)
}

// ExitError is returned by behaviors to simulate a process that exited
// with a non-zero status. It satisfies the ExitCode() int method set of
// *exec.ExitError.
type ExitError int

func (e ExitError) Error() string {
	return fmt.Sprintf("exit status %d", int(e))
}

func (e ExitError) ExitCode() int {
	return int(e)
}

// Write returns a behavior that writes stdout and stderr (either may be
// empty) and then returns err.
func Write(stdout, stderr string, err error) Behavior {
	return func(cmd *exec.Cmd) error {
		if stdout != "" && cmd.Stdout != nil {
			if _, werr := cmd.Stdout.Write([]byte(stdout)); werr != nil {
				return werr
			}
		}
		if stderr != "" && cmd.Stderr != nil {
			if _, werr := cmd.Stderr.Write([]byte(stderr)); werr != nil {
				return werr
			}
		}
		return err
	}
}
