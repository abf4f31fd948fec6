//go:build !tinygo

package hal

import (
	"fmt"
	"io"
	"os"
	"sync"
)

type hostHAL struct {
	logger  Logger
	clock   Clock
	console io.Writer
}

// New returns a host HAL implementation.
//
// Kernel log lines go to stderr so they do not interleave with task output
// on stdout.
func New() HAL {
	return &hostHAL{
		logger:  &hostLogger{w: os.Stderr},
		clock:   NewMonotonicClock(),
		console: &lockedWriter{w: os.Stdout},
	}
}

// NewWith returns a host HAL over the given parts. Nil parts get host defaults.
func NewWith(logger Logger, clock Clock, console io.Writer) HAL {
	if logger == nil {
		logger = &hostLogger{w: os.Stderr}
	}
	if clock == nil {
		clock = NewMonotonicClock()
	}
	if console == nil {
		console = os.Stdout
	}
	return &hostHAL{logger: logger, clock: clock, console: &lockedWriter{w: console}}
}

func (h *hostHAL) Logger() Logger     { return h.logger }
func (h *hostHAL) Clock() Clock       { return h.clock }
func (h *hostHAL) Console() io.Writer { return h.console }

type hostLogger struct {
	mu sync.Mutex
	w  io.Writer
}

// NewWriterLogger returns a Logger writing one line per call to w.
func NewWriterLogger(w io.Writer) Logger {
	return &hostLogger{w: w}
}

func (l *hostLogger) WriteLineString(s string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintln(l.w, s)
}

func (l *hostLogger) WriteLineBytes(b []byte) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.w.Write(b)
	l.w.Write([]byte{'\n'})
}

type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (w *lockedWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.w.Write(p)
}
