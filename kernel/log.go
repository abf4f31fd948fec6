package kernel

import (
	"fmt"

	"taskcore/hal"
)

type klog struct {
	l     hal.Logger
	trace bool
}

func (l klog) infof(format string, args ...any) {
	if l.l == nil {
		return
	}
	l.l.WriteLineString(fmt.Sprintf(format, args...))
}

func (l klog) tracef(format string, args ...any) {
	if !l.trace {
		return
	}
	l.infof(format, args...)
}
