//go:build unix

package exrun

import (
	"errors"
	"os"
	"os/exec"

	"golang.org/x/sys/unix"
)

// configureCommand is a no-op on unix: argv is passed to execve as built and
// there is no console window to suppress.
func configureCommand(cmd *exec.Cmd, executable string, args []string, split bool) {}

func isPermissionErr(runErr error) bool {
	if runErr == nil {
		return false
	}
	if errors.Is(runErr, os.ErrPermission) {
		return true
	}
	var pathErr *os.PathError
	if errors.As(runErr, &pathErr) {
		return errors.Is(pathErr.Err, os.ErrPermission) || errors.Is(pathErr.Err, unix.EACCES) || errors.Is(pathErr.Err, unix.EPERM)
	}
	var execErr *exec.Error
	if errors.As(runErr, &execErr) {
		return errors.Is(execErr.Err, os.ErrPermission) || errors.Is(execErr.Err, unix.EACCES) || errors.Is(execErr.Err, unix.EPERM)
	}
	return errors.Is(runErr, unix.EACCES) || errors.Is(runErr, unix.EPERM)
}

func isNotFoundErr(runErr error) bool {
	if runErr == nil {
		return false
	}
	return errors.Is(runErr, exec.ErrNotFound) || errors.Is(runErr, os.ErrNotExist) || errors.Is(runErr, unix.ENOENT)
}
