//go:build unix

package cli

import (
	"bytes"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sa6mwa/exrun"
)

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, logs bytes.Buffer
	root := New("test-version", &logs)
	root.SetOut(&stdout)
	root.SetErr(&logs)
	root.SetArgs(args)
	err := root.Execute()
	return stdout.String(), logs.String(), err
}

func TestVersion(t *testing.T) {
	out, _, err := run(t, "version")
	if err != nil {
		t.Fatalf("version failed: %v", err)
	}
	if out != "test-version\n" {
		t.Fatalf("unexpected output: %q", out)
	}
}

func TestExecEcho(t *testing.T) {
	out, _, err := run(t, "exec", "echo", "hello")
	if err != nil {
		t.Fatalf("exec failed: %v", err)
	}
	if out != "hello\n" {
		t.Fatalf("unexpected output: %q", out)
	}
}

func TestExecSplitKeepsWords(t *testing.T) {
	out, _, err := run(t, "exec", "--split", "/bin/sh", "-c", "printf '%s' \"$0\"", "word with spaces")
	if err != nil {
		t.Fatalf("exec failed: %v", err)
	}
	if out != "word with spaces" {
		t.Fatalf("unexpected output: %q", out)
	}
}

func TestExecExitCode(t *testing.T) {
	_, _, err := run(t, "exec", "false")
	if !errors.Is(err, exrun.ErrExitCode) {
		t.Fatalf("expected exit code failure, got %v", err)
	}
	if code := ExitCode(err); code != 1 {
		t.Fatalf("ExitCode = %d, want 1", code)
	}
}

func TestExecNotFound(t *testing.T) {
	_, _, err := run(t, "exec", "nonexistent-binary-xyz-123")
	if code := ExitCode(err); code != 127 {
		t.Fatalf("ExitCode = %d, want 127 (err=%v)", code, err)
	}
}

func TestExecPolicyFromConfig(t *testing.T) {
	t.Setenv("LOG_LEVEL", "")
	dir := t.TempDir()
	path := filepath.Join(dir, "exrun.yaml")
	config := "log_level: debug\nlog_format: text\npolicy:\n  default: deny\n  allow: [echo]\n"
	if err := os.WriteFile(path, []byte(config), 0o644); err != nil {
		t.Fatal(err)
	}

	out, logs, err := run(t, "--config", path, "exec", "echo", "ok")
	if err != nil {
		t.Fatalf("allowed exec failed: %v", err)
	}
	if out != "ok\n" {
		t.Fatalf("unexpected output: %q", out)
	}
	if !strings.Contains(logs, "run finished") {
		t.Fatalf("expected debug lifecycle logs, got %q", logs)
	}

	_, _, err = run(t, "--config", path, "exec", "true")
	if !errors.Is(err, exrun.ErrDenied) {
		t.Fatalf("expected policy denial, got %v", err)
	}
}

func TestExecWaitReleasesCaller(t *testing.T) {
	start := time.Now()
	_, _, err := run(t, "exec", "--wait", "50ms", "sleep", "1")
	if err == nil || !strings.Contains(err.Error(), "deadline") {
		t.Fatalf("expected deadline error, got %v", err)
	}
	if time.Since(start) > 900*time.Millisecond {
		t.Fatalf("caller was not released early")
	}
}

func TestScript(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hello.sh")
	if err := os.WriteFile(path, []byte("#!/bin/sh\nprintf 'script:%s' \"$1\"\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	out, _, err := run(t, "script", path, "a", "b")
	if err != nil {
		t.Fatalf("script failed: %v", err)
	}
	if out != "script:a b" {
		t.Fatalf("unexpected output: %q", out)
	}
}

func TestScriptMissingFile(t *testing.T) {
	if _, _, err := run(t, "script", filepath.Join(t.TempDir(), "missing.sh")); err == nil {
		t.Fatalf("expected error for missing script")
	}
}

func TestExitCodeMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, 0},
		{"plain", errors.New("boom"), 1},
		{"exit", &exrun.ProcessError{Kind: exrun.KindExitCode, ExitCode: 7}, 7},
		{"signal", &exrun.ProcessError{Kind: exrun.KindExitCode, ExitCode: -1}, 1},
		{"stderr", &exrun.ProcessError{Kind: exrun.KindErrorStream, ExitCode: 3}, 1},
		{"not-found", &exrun.ProcessError{Kind: exrun.KindLaunch, Err: exec.ErrNotFound}, 127},
		{"permission", &exrun.ProcessError{Kind: exrun.KindLaunch, Err: os.ErrPermission}, 126},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ExitCode(tc.err); got != tc.want {
				t.Fatalf("ExitCode(%v) = %d, want %d", tc.err, got, tc.want)
			}
		})
	}
}

func TestJoinArgs(t *testing.T) {
	if got := joinArgs([]string{"a", "b c"}, false); got != "a b c" {
		t.Fatalf("blob join = %q", got)
	}
	if got := joinArgs([]string{"a", "b c"}, true); got != "a 'b c'" {
		t.Fatalf("split join = %q", got)
	}
}
