//go:build !unix && !windows

package exrun

import (
	"errors"
	"os"
	"os/exec"
)

func configureCommand(cmd *exec.Cmd, executable string, args []string, split bool) {}

func isPermissionErr(runErr error) bool {
	return runErr != nil && errors.Is(runErr, os.ErrPermission)
}

func isNotFoundErr(runErr error) bool {
	return runErr != nil && (errors.Is(runErr, exec.ErrNotFound) || errors.Is(runErr, os.ErrNotExist))
}
