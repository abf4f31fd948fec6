// Package hal is the boundary between the kernel and the platform it runs on.
package hal

import "io"

// Logger writes newline-delimited log lines.
type Logger interface {
	WriteLineString(s string)
	WriteLineBytes(b []byte)
}

// Clock is the monotonic timer source.
//
// NowMicros never decreases. The epoch is arbitrary (usually boot) and is
// not calibrated to wall-clock time.
type Clock interface {
	NowMicros() uint64
}

// HAL provides the only contact point between the kernel and the outside world.
type HAL interface {
	Logger() Logger
	Clock() Clock
	// Console is the byte sink behind the stdout file descriptor.
	Console() io.Writer
}
