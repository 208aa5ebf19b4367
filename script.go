package exrun

import (
	"context"
	"errors"
	"fmt"

	"github.com/sa6mwa/exrun/internal/scriptfile"
)

// ExecuteScript runs an inline script (typically with a shebang line) under
// the same contract as Execute. The script is executed from an in-memory
// file where possible and from a temporary file otherwise; either is
// released before ExecuteScript returns. ctx behaves as in ExecuteContext.
// Execution policies see the script as "sha256:<hex digest of script>".
//
//	out, err := exrun.ExecuteScript(ctx, "#!/bin/sh\necho \"$1\"\n", "hello")
func (r *Runner) ExecuteScript(ctx context.Context, script, args string) (string, error) {
	res := r.start(ctx, func(ctx context.Context) Result {
		return r.runScript(ctx, []byte(script), args)
	}).Wait()
	return res.Output, res.Error
}

func (r *Runner) runScript(ctx context.Context, payload []byte, args string) Result {
	f, err := scriptfile.Open(payload)
	if err != nil {
		c := Command{Executable: "<script>", Args: args}
		return Result{ExitCode: -1, Error: launchError(r.now(), c, fmt.Errorf("open script: %w", err))}
	}
	defer f.Close()
	subject := "sha256:" + f.Digest()
	res := r.run(ctx, Command{Executable: f.Name(), Args: args, policyName: subject})
	if !f.IsMemfd() || !IsPermission(res.Error) {
		return res
	}
	r.logger().Debug("memfd execution denied, retrying from temporary file", "run_id", res.RunID)
	if serr := f.SwitchToTemporaryFile(); serr != nil {
		c := Command{Executable: f.Name(), Args: args}
		return Result{RunID: res.RunID, ExitCode: -1, Error: launchError(r.now(), c, fmt.Errorf("memfd execution failed: %w; fallback to tempfile failed: %w", errors.Unwrap(res.Error), serr))}
	}
	return r.run(ctx, Command{Executable: f.Name(), Args: args, policyName: subject})
}

// ExecuteScript runs an inline script using the Default runner.
func ExecuteScript(ctx context.Context, script, args string) (string, error) {
	return Default.ExecuteScript(ctx, script, args)
}
