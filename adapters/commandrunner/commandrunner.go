package commandrunner

import (
	"os/exec"

	"github.com/sa6mwa/exrun/port"
)

// DefaultRunner executes commands using os/exec directly.
type DefaultRunner struct{}

var _ port.CommandRunner = DefaultRunner{}

// Run starts the command and waits for it to exit.
func (DefaultRunner) Run(cmd *exec.Cmd) error {
	return cmd.Run()
}

// Default is a shared instance of DefaultRunner.
var Default port.CommandRunner = DefaultRunner{}
