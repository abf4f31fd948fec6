// Package kernel tracks tasks through a cooperative scheduling state
// machine and serves the process-management syscalls.
package kernel

import (
	"context"

	"github.com/google/uuid"

	"taskcore/hal"
)

// Config controls a kernel instance.
type Config struct {
	// MaxTasks bounds the task table. Zero means unbounded.
	MaxTasks int
	// Trace logs every syscall.
	Trace bool
	// WaitIdle keeps Run alive when no task is Ready, waiting for AddTask.
	WaitIdle bool
	// PanicHandler runs once, on the first kernel fault. It must not panic.
	PanicHandler func(PanicInfo)
}

// Kernel wires the timer, scheduler and syscall dispatcher together.
type Kernel struct {
	bootID uuid.UUID
	log    klog
	timer  *Timer
	sched  *Scheduler
	sys    *Dispatcher
	panics *panicState
}

// New creates a kernel over the given HAL.
func New(h hal.HAL, cfg Config) (*Kernel, error) {
	if h == nil {
		return nil, ErrNoClock
	}
	timer, err := NewTimer(h.Clock())
	if err != nil {
		return nil, err
	}

	log := klog{l: h.Logger(), trace: cfg.Trace}
	panics := &panicState{}
	panics.setHandler(cfg.PanicHandler)

	sched := newScheduler(timer, log, panics, cfg)
	sys := &Dispatcher{sched: sched, timer: timer, console: h.Console(), log: log}
	sched.sys = sys

	return &Kernel{
		bootID: uuid.New(),
		log:    log,
		timer:  timer,
		sched:  sched,
		sys:    sys,
		panics: panics,
	}, nil
}

// BootID identifies this kernel instance.
func (k *Kernel) BootID() uuid.UUID { return k.bootID }

// Timer returns the timer adapter.
func (k *Kernel) Timer() *Timer { return k.timer }

// Scheduler returns the scheduler.
func (k *Kernel) Scheduler() *Scheduler { return k.sched }

// Dispatcher returns the syscall dispatcher.
func (k *Kernel) Dispatcher() *Dispatcher { return k.sys }

// AddTask registers a task under name.
func (k *Kernel) AddTask(name string, entry Entry) (TaskID, error) {
	return k.sched.AddTask(name, entry)
}

// Snapshot copies every task record.
func (k *Kernel) Snapshot() []TaskSnapshot { return k.sched.Snapshot() }

// InPanicMode reports whether the kernel has faulted.
func (k *Kernel) InPanicMode() bool { return k.panics.active.Load() }

// Run boots the scheduler and blocks until it stops.
func (k *Kernel) Run(ctx context.Context) error {
	k.log.infof("[kernel] boot id=%s", k.bootID)
	return k.sched.Run(ctx)
}
