//go:build windows

package exrun

import (
	"errors"
	"os"
	"os/exec"
	"syscall"

	"golang.org/x/sys/windows"
)

// configureCommand hides the console window and, in blob mode, hands the
// escaped argument string to CreateProcess verbatim instead of letting
// os/exec re-quote it.
func configureCommand(cmd *exec.Cmd, executable string, args []string, split bool) {
	attr := &syscall.SysProcAttr{
		HideWindow:    true,
		CreationFlags: windows.CREATE_NO_WINDOW,
	}
	if !split && len(args) == 1 {
		attr.CmdLine = syscall.EscapeArg(executable) + " " + args[0]
	}
	cmd.SysProcAttr = attr
}

func isPermissionErr(runErr error) bool {
	if runErr == nil {
		return false
	}
	return errors.Is(runErr, os.ErrPermission) || errors.Is(runErr, windows.ERROR_ACCESS_DENIED)
}

func isNotFoundErr(runErr error) bool {
	if runErr == nil {
		return false
	}
	return errors.Is(runErr, exec.ErrNotFound) || errors.Is(runErr, os.ErrNotExist) || errors.Is(runErr, windows.ERROR_FILE_NOT_FOUND)
}
