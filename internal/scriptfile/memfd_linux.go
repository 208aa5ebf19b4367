//go:build linux

package scriptfile

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// openMemfd creates an anonymous file without MFD_CLOEXEC so the descriptor
// survives into the child and /proc/self/fd/<n> resolves there too.
func openMemfd(name string) (*os.File, string, error) {
	fd, err := unix.MemfdCreate(name, 0)
	if err != nil {
		return nil, "", err
	}
	path := fmt.Sprintf("/proc/self/fd/%d", fd)
	return os.NewFile(uintptr(fd), path), path, nil
}
