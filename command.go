package exrun

import (
	"fmt"
	"os/exec"
	"strings"

	"github.com/kballard/go-shellquote"
)

// Command is a single invocation: an executable path and a raw argument
// string. Neither is validated; problems surface when the process is
// launched.
type Command struct {
	Executable string
	Args       string

	// policyName overrides the name the execution policy is checked
	// against; used for scripts, which run from throwaway paths.
	policyName string
}

func (c Command) policySubject() string {
	if c.policyName != "" {
		return c.policyName
	}
	return c.Executable
}

// EscapeArgs prefixes every double quote in args with a backslash.
func EscapeArgs(args string) string {
	return strings.ReplaceAll(args, `"`, `\"`)
}

// argv returns the arguments handed to the OS. By default the escaped
// argument string is passed as one argument (none when empty). With split
// set, args is split into words by POSIX shell rules instead.
func (c Command) argv(split bool) ([]string, error) {
	if split {
		words, err := shellquote.Split(c.Args)
		if err != nil {
			return nil, fmt.Errorf("split arguments: %w", err)
		}
		return words, nil
	}
	if c.Args == "" {
		return nil, nil
	}
	return []string{EscapeArgs(c.Args)}, nil
}

// build constructs a fresh *exec.Cmd for the invocation. The command is not
// bound to a context; cancelling a waiter never kills the child.
func (c Command) build(split bool) (*exec.Cmd, error) {
	args, err := c.argv(split)
	if err != nil {
		return nil, err
	}
	cmd := exec.Command(c.Executable, args...)
	configureCommand(cmd, c.Executable, args, split)
	return cmd, nil
}
