//go:build unix

package scriptfile

import (
	"bytes"
	"errors"
	"io"
	"os"
	"os/exec"
	"testing"
)

func TestOpenRejectsEmptyPayload(t *testing.T) {
	if _, err := Open(nil); !errors.Is(err, ErrPayloadIsEmpty) {
		t.Fatalf("expected ErrPayloadIsEmpty, got %v", err)
	}
}

func TestOpenContentsReadable(t *testing.T) {
	payload := []byte("#!/bin/sh\necho open-test\n")
	f, err := Open(payload)
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	t.Cleanup(func() { f.Close() })

	if f.Name() == "" {
		t.Fatalf("empty file name")
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		t.Fatalf("seek failed: %v", err)
	}
	data, err := io.ReadAll(f)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if !bytes.Equal(data, payload) {
		t.Fatalf("contents mismatch: got %q want %q", data, payload)
	}
}

func TestOpenIsExecutable(t *testing.T) {
	f, err := Open([]byte("#!/bin/sh\nprintf 'arg:%s' \"$1\"\n"))
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	defer f.Close()

	out, err := exec.Command(f.Name(), "value").Output()
	if err != nil {
		t.Fatalf("exec %s: %v", f.Name(), err)
	}
	if string(out) != "arg:value" {
		t.Fatalf("unexpected output: %q", out)
	}
}

func TestSwitchToTemporaryFileSuccess(t *testing.T) {
	f := &File{
		name:    "/proc/self/fd/123",
		payload: []byte("#!/bin/sh\necho ok\n"),
	}
	if err := f.SwitchToTemporaryFile(); err != nil {
		t.Fatalf("SwitchToTemporaryFile returned error: %v", err)
	}
	if f.IsMemfd() {
		t.Fatalf("expected file to no longer identify as memfd")
	}
	if !f.deleteOnClose {
		t.Fatalf("expected deleteOnClose to be true")
	}
	name := f.Name()
	info, err := os.Stat(name)
	if err != nil {
		t.Fatalf("stat temporary file: %v", err)
	}
	if info.Mode().Perm()&0o700 != 0o700 {
		t.Fatalf("temporary file not executable: %v", info.Mode())
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if _, err := os.Stat(name); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("temporary file still exists after close: err=%v", err)
	}
}

func TestSwitchToTemporaryFileErrors(t *testing.T) {
	f := &File{payload: []byte("data")}
	if err := f.SwitchToTemporaryFile(); !errors.Is(err, ErrNotAnInMemoryFd) {
		t.Fatalf("expected ErrNotAnInMemoryFd, got %v", err)
	}

	f = &File{name: "/proc/self/fd/123"}
	if err := f.SwitchToTemporaryFile(); !errors.Is(err, ErrPayloadIsEmpty) {
		t.Fatalf("expected ErrPayloadIsEmpty, got %v", err)
	}
}

func TestReadSeekWithoutFile(t *testing.T) {
	f := &File{}
	if _, err := f.Read(make([]byte, 1)); !errors.Is(err, os.ErrInvalid) {
		t.Fatalf("expected os.ErrInvalid, got %v", err)
	}
	if _, err := f.Seek(0, io.SeekStart); !errors.Is(err, os.ErrInvalid) {
		t.Fatalf("expected os.ErrInvalid, got %v", err)
	}
}

func TestDigest(t *testing.T) {
	f, err := Open([]byte("payload"))
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	defer f.Close()
	// sha256("payload")
	const want = "239f59ed55e737c77147cf55ad0c1b030b6d7ee748a7426952f9b852d5a935e5"
	if got := f.Digest(); got != want {
		t.Fatalf("Digest() = %q, want %q", got, want)
	}
}
