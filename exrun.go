package exrun

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sa6mwa/exrun/adapters/commandrunner"
	"github.com/sa6mwa/exrun/port"
)

// Runner launches executables and turns every failure signal into a
// *ProcessError. The zero value is ready to use. A Runner holds no per-call
// state and is safe for concurrent use as long as its fields are not
// modified.
type Runner struct {
	// Commands spawns processes; nil means commandrunner.Default.
	Commands port.CommandRunner
	// Logger receives lifecycle records at debug level; nil discards them.
	Logger *slog.Logger
	// Now stamps errors; nil means time.Now.
	Now func() time.Time
	// SplitArgs splits the argument string by shell word rules instead of
	// passing it as one escaped argument.
	SplitArgs bool
}

// Default is the Runner used by the package-level functions.
var Default = &Runner{}

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func (r *Runner) commands() port.CommandRunner {
	if r.Commands == nil {
		return commandrunner.Default
	}
	return r.Commands
}

func (r *Runner) logger() *slog.Logger {
	if r.Logger == nil {
		return discardLogger
	}
	return r.Logger
}

func (r *Runner) now() time.Time {
	if r.Now == nil {
		return time.Now()
	}
	return r.Now()
}

// Execute runs executable with args and blocks until it exits. It returns
// the complete stdout on success. Any data on stderr, a non-zero exit code,
// or a failure to launch yields a *ProcessError and an empty string.
func (r *Runner) Execute(executable, args string) (string, error) {
	res := r.run(context.Background(), Command{Executable: executable, Args: args})
	return res.Output, res.Error
}

// ExecuteAsync runs Execute on its own goroutine. Cancelling ctx, or calling
// Cancel on the returned Background, releases the waiter only; the child
// keeps running and its result is dropped. If ctx is already done no process
// is started.
func (r *Runner) ExecuteAsync(ctx context.Context, executable, args string) *Background {
	return r.start(ctx, func(ctx context.Context) Result {
		return r.run(ctx, Command{Executable: executable, Args: args})
	})
}

// ExecuteContext is ExecuteAsync followed by a wait bounded by ctx.
func (r *Runner) ExecuteContext(ctx context.Context, executable, args string) (string, error) {
	res := r.ExecuteAsync(ctx, executable, args).Wait()
	return res.Output, res.Error
}

func (r *Runner) start(parent context.Context, fn func(context.Context) Result) *Background {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)
	done := make(chan Result, 1)
	bg := &Background{Context: ctx, Cancel: cancel, Done: done}
	if err := parent.Err(); err != nil {
		done <- Result{ExitCode: -1, Error: err}
		close(done)
		cancel()
		return bg
	}
	go func() {
		// ctx carries policy values only; it must not reach exec.
		res := fn(context.WithoutCancel(ctx))
		done <- res
		close(done)
		cancel()
	}()
	return bg
}

// run is the single execution path shared by every entry point.
func (r *Runner) run(ctx context.Context, c Command) Result {
	runID := uuid.NewString()
	log := r.logger().With("run_id", runID, "executable", c.Executable)
	started := time.Now()
	res := r.runOnce(ctx, log, c)
	res.RunID = runID
	log.Debug("run finished",
		"exit_code", res.ExitCode,
		"duration", time.Since(started),
		"outcome", outcome(res.Error),
	)
	return res
}

func (r *Runner) runOnce(ctx context.Context, log *slog.Logger, c Command) Result {
	if err := enforcePolicy(ctx, c.policySubject()); err != nil {
		return Result{ExitCode: -1, Error: launchError(r.now(), c, err)}
	}
	cmd, err := c.build(r.SplitArgs)
	if err != nil {
		return Result{ExitCode: -1, Error: launchError(r.now(), c, err)}
	}
	log.Debug("run started", "argc", len(cmd.Args)-1)
	out, err := RunCommand(r.commands(), cmd)
	if err != nil {
		return Result{ExitCode: -1, Error: launchError(r.now(), c, err)}
	}
	return classify(r.now(), c, out)
}

// classify applies the outcome precedence: error-stream data first, then a
// non-zero exit code, then any other wait error.
func classify(at time.Time, c Command, out Outcome) Result {
	res := Result{ExitCode: out.ExitCode}
	switch {
	case out.StderrSeen:
		res.Error = errorStreamError(at, c, strings.TrimRight(out.Stderr, "\r\n"), out.ExitCode)
	case out.Err != nil && exited(out.Err) && out.ExitCode != 0:
		res.Error = exitCodeError(at, c, out.ExitCode)
	case out.Err != nil:
		res.Error = launchError(at, c, out.Err)
	default:
		res.Output = out.Stdout
	}
	return res
}

func outcome(err error) string {
	if err == nil {
		return "succeeded"
	}
	var pe *ProcessError
	if errors.As(err, &pe) {
		return pe.Kind.String()
	}
	return "failed"
}

// Execute runs executable with args using the Default runner.
func Execute(executable, args string) (string, error) {
	return Default.Execute(executable, args)
}

// ExecuteAsync runs executable with args on a goroutine using the Default
// runner.
func ExecuteAsync(ctx context.Context, executable, args string) *Background {
	return Default.ExecuteAsync(ctx, executable, args)
}

// ExecuteContext runs executable with args using the Default runner, waiting
// no longer than ctx allows.
func ExecuteContext(ctx context.Context, executable, args string) (string, error) {
	return Default.ExecuteContext(ctx, executable, args)
}
