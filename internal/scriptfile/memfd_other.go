//go:build !linux

package scriptfile

import (
	"errors"
	"os"
)

var errMemfdUnsupported = errors.New("memfd_create is not supported on this platform")

func openMemfd(string) (*os.File, string, error) {
	return nil, "", errMemfdUnsupported
}
