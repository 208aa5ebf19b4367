package exrun

import "context"

// Background is the handle returned by ExecuteAsync. Cancel stops the wait,
// not the child process.
type Background struct {
	Context context.Context
	Cancel  context.CancelFunc
	Done    <-chan Result
}

// Wait blocks until the background command finishes or the stored context is
// cancelled. It returns the underlying Result; if the stored context is nil it
// behaves like WaitWithContext(context.Background()).
func (bg *Background) Wait() Result {
	if bg == nil {
		return Result{}
	}
	ctx := bg.Context
	if ctx == nil {
		ctx = context.Background()
	}
	return bg.WaitWithContext(ctx)
}

// WaitWithContext blocks until the background command completes or ctx is
// cancelled. Cancellation returns a Result whose Error is ctx.Err() and whose
// ExitCode is -1. A result that is already available wins over a
// cancellation observed at the same time.
func (bg *Background) WaitWithContext(ctx context.Context) Result {
	if bg == nil {
		return Result{}
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if bg.Done == nil {
		return Result{}
	}
	select {
	case res, ok := <-bg.Done:
		if !ok {
			return Result{}
		}
		return res
	case <-ctx.Done():
		select {
		case res, ok := <-bg.Done:
			if ok {
				return res
			}
		default:
		}
		return Result{ExitCode: -1, Error: ctx.Err()}
	}
}

// Result is the outcome of one invocation. Output is empty whenever Error
// is set.
type Result struct {
	RunID    string
	ExitCode int
	Output   string
	Error    error
}
