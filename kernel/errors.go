package kernel

import "errors"

var (
	ErrNoClock        = errors.New("kernel: no clock")
	ErrNilEntry       = errors.New("kernel: nil task entry")
	ErrTooManyTasks   = errors.New("kernel: task table full")
	ErrNoSuchTask     = errors.New("kernel: no such task")
	ErrTaskRunning    = errors.New("kernel: task is running")
	ErrAlreadyRunning = errors.New("kernel: scheduler already running")
	ErrKernelPanic    = errors.New("kernel: panic")

	errNotRunning = errors.New("task is not running")
)

// kernelFault is raised for conditions that mean the kernel itself is broken.
// It is never a user error.
type kernelFault struct {
	task TaskID
	msg  string
}

func (f kernelFault) Error() string { return f.msg }
