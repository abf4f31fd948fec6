//go:build tinygo && baremetal

package hal

import (
	"io"
	"machine"
)

type tinyGoHAL struct {
	logger *uartLogger
	clock  Clock
}

// New returns a HAL over the default serial port.
//
// Both log lines and console output go to machine.Serial.
func New() HAL {
	return &tinyGoHAL{
		logger: &uartLogger{w: machine.Serial},
		clock:  NewMonotonicClock(),
	}
}

func (h *tinyGoHAL) Logger() Logger     { return h.logger }
func (h *tinyGoHAL) Clock() Clock       { return h.clock }
func (h *tinyGoHAL) Console() io.Writer { return h.logger.w }

type uartLogger struct {
	w io.Writer
}

func (l *uartLogger) WriteLineString(s string) {
	io.WriteString(l.w, s)
	l.w.Write([]byte{'\r', '\n'})
}

func (l *uartLogger) WriteLineBytes(b []byte) {
	l.w.Write(b)
	l.w.Write([]byte{'\r', '\n'})
}
