package port

import (
	"os/exec"
)

// CommandRunner abstracts process spawning so runners can be plugged in
// across packages without depending on a specific adapter implementation.
// Run starts cmd and blocks until it exits, like (*exec.Cmd).Run.
type CommandRunner interface {
	Run(cmd *exec.Cmd) error
}
