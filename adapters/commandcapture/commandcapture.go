package commandcapture

import (
	"bytes"
	"errors"
	"io"
	"os/exec"
	"sync"

	"github.com/sa6mwa/exrun/port"
)

var (
	ErrNilCommand        = errors.New("nil command")
	ErrStreamsConfigured = errors.New("stdout or stderr already configured")
)

// capture implements port.CommandCapture.
type capture struct {
	stdout   bytes.Buffer
	stderr   watcher
	reset    func()
	attached bool
	once     sync.Once
}

// New constructs a new port.CommandCapture implementation.
func New() port.CommandCapture {
	return &capture{}
}

func (c *capture) Attach(cmd *exec.Cmd) error {
	if cmd == nil {
		return ErrNilCommand
	}
	if cmd.Stdout != nil || cmd.Stderr != nil {
		return ErrStreamsConfigured
	}
	c.stdout.Grow(128)
	cmd.Stdout = &c.stdout
	cmd.Stderr = &c.stderr
	c.reset = func() {
		cmd.Stdout = nil
		cmd.Stderr = nil
	}
	c.attached = true
	return nil
}

func (c *capture) Output() string {
	if !c.attached {
		return ""
	}
	return c.stdout.String()
}

func (c *capture) ErrorStream() (string, bool) {
	return c.stderr.text()
}

func (c *capture) Restore() {
	if c == nil {
		return
	}
	c.once.Do(func() {
		if c.reset != nil {
			c.reset()
			c.reset = nil
		}
	})
}

// watcher records stderr and whether any non-empty chunk arrived. Writes
// may come from the os/exec copy goroutine while the caller inspects it.
type watcher struct {
	mu   sync.Mutex
	buf  bytes.Buffer
	seen bool
}

var _ io.Writer = (*watcher)(nil)

func (w *watcher) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(p) > 0 {
		w.seen = true
	}
	return w.buf.Write(p)
}

func (w *watcher) text() (string, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.buf.String(), w.seen
}
