package port

import "os/exec"

// CommandCapture captures stdout and watches stderr of a command.
// Implementations are provided by adapters/commandcapture.
type CommandCapture interface {
	// Attach redirects cmd's stdout and stderr into the capture. It fails
	// if either stream is already configured.
	Attach(cmd *exec.Cmd) error
	// Output returns everything written to stdout so far.
	Output() string
	// ErrorStream returns stderr text and whether any non-empty chunk
	// was observed.
	ErrorStream() (string, bool)
	// Restore clears the writers Attach installed, leaving cmd.Stdout and
	// cmd.Stderr nil as Attach required them to be.
	Restore()
}
