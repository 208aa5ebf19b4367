// Package scriptfile materialises an executable payload (an ELF binary or a
// shebang script) as something execve(2) can run: an anonymous in-memory file
// where memfd_create(2) is available, an executable temporary file otherwise.
//
// The memfd is created without MFD_CLOEXEC because a shebang interpreter
// reopens /proc/self/fd/<n> after execve; as a consequence every child
// spawned by the process while a File is open inherits that descriptor.
package scriptfile

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

var (
	ErrPayloadIsEmpty  = errors.New("payload is empty")
	ErrNotAnInMemoryFd = errors.New("not an in-memory file descriptor")
)

// File is an executable payload. Name is the path to execute. Close releases
// the descriptor and removes any temporary file.
type File struct {
	payload       []byte
	file          *os.File
	closer        io.Closer
	name          string
	sha256hex     string
	deleteOnClose bool
}

func sha256hex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Open attempts to create a memory file descriptor named after the sha256
// of payload; the running process will show up as /proc/self/fd/<int>. If
// that is not possible Open writes payload to a temporary file with the user
// execute bit set, deleted again on Close.
//
//	f, err := scriptfile.Open([]byte("#!/bin/sh\necho hi\n"))
//	if err != nil {
//		return err
//	}
//	defer f.Close()
//	cmd := exec.Command(f.Name())
func Open(payload []byte) (*File, error) {
	if len(payload) == 0 {
		return nil, ErrPayloadIsEmpty
	}
	f := &File{
		payload:   payload,
		sha256hex: sha256hex(payload),
	}
	mf, name, err := openMemfd(f.sha256hex)
	if err != nil {
		// unable to create an anonymous file, dump it as a temporary file instead
		if err := f.writeTemporaryFile(); err != nil {
			return nil, err
		}
		return f, nil
	}
	f.file = mf
	f.closer = mf
	f.name = name
	if _, err := f.file.Write(payload); err != nil {
		if cerr := f.Close(); cerr != nil {
			return nil, fmt.Errorf("unable to write payload: %w; unable to close memfd: %w", err, cerr)
		}
		return nil, fmt.Errorf("unable to write payload: %w", err)
	}
	return f, nil
}

// IsMemfd reports whether Name points at an in-memory descriptor.
func (f *File) IsMemfd() bool {
	return strings.HasPrefix(f.name, "/proc/self/fd/")
}

// Name returns the path to execute.
func (f *File) Name() string {
	if f.name == "" && f.file != nil {
		return f.file.Name()
	}
	return f.name
}

// Digest returns the hex encoded sha256 of the payload.
func (f *File) Digest() string {
	if f.sha256hex == "" {
		f.sha256hex = sha256hex(f.payload)
	}
	return f.sha256hex
}

// SwitchToTemporaryFile moves an in-memory payload to an executable
// temporary file, for when the memfd path cannot be executed (noexec
// /proc, seccomp, and similar).
func (f *File) SwitchToTemporaryFile() error {
	if !f.IsMemfd() {
		return ErrNotAnInMemoryFd
	}
	if len(f.payload) == 0 {
		return ErrPayloadIsEmpty
	}
	// Close any previous instance
	f.Close()
	f.Digest()
	return f.writeTemporaryFile()
}

func (f *File) writeTemporaryFile() error {
	tmpf, err := os.CreateTemp("", f.sha256hex+"-*")
	if err != nil {
		return err
	}
	f.file = tmpf
	f.closer = tmpf
	f.name = tmpf.Name()
	f.deleteOnClose = true
	if _, err := f.file.Write(f.payload); err != nil {
		if cerr := f.Close(); cerr != nil {
			return fmt.Errorf("unable to write to temporary file: %w; unable to close temporary file: %w", err, cerr)
		}
		return fmt.Errorf("unable to write to temporary file: %w", err)
	}
	// an open writer makes execve fail with ETXTBSY
	f.file.Close()
	f.closer = nil
	if err := os.Chmod(f.name, 0o700); err != nil {
		if cerr := f.Close(); cerr != nil {
			return fmt.Errorf("unable to chmod temporary file: %w; unable to close temporary file: %w", err, cerr)
		}
		return fmt.Errorf("chmod +x: %w", err)
	}
	rf, err := os.Open(f.name)
	if err != nil {
		if cerr := f.Close(); cerr != nil {
			return fmt.Errorf("reopen temporary file: %w; unable to remove temporary file: %w", err, cerr)
		}
		return fmt.Errorf("reopen temporary file: %w", err)
	}
	f.file = rf
	f.closer = rf
	return nil
}

// Close releases resources associated with the file, closing the descriptor
// if open and removing the temporary file if one was created.
func (f *File) Close() error {
	var fileCloseErr error
	if f.file != nil && f.closer != nil {
		fileCloseErr = f.closer.Close()
		f.closer = nil
	}
	if f.deleteOnClose && f.name != "" {
		if err := os.Remove(f.name); err != nil {
			if fileCloseErr != nil {
				return fmt.Errorf("close error: %w; remove error: %w", fileCloseErr, err)
			}
			return err
		}
		f.deleteOnClose = false
	}
	return fileCloseErr
}

func (f *File) Read(p []byte) (int, error) {
	if f.file == nil {
		return 0, os.ErrInvalid
	}
	return f.file.Read(p)
}

func (f *File) Seek(offset int64, whence int) (int64, error) {
	if f.file == nil {
		return 0, os.ErrInvalid
	}
	return f.file.Seek(offset, whence)
}
