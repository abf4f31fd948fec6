package kernel

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"taskcore/abi"
)

// Scheduler is a cooperative round-robin scheduler for a single processor.
//
// Every task runs on its own goroutine, but only one of them is ever
// Running: control moves by hand-off at yield and exit. mu guards the task
// table so snapshots can be taken from other goroutines; it is never held
// across a hand-off.
type Scheduler struct {
	mu      sync.Mutex
	timer   *Timer
	log     klog
	sys     *Dispatcher
	panics  *panicState
	tasks   []*TaskControlBlock
	current *TaskControlBlock

	// rr is the index the next round-robin scan starts from.
	rr       int
	switches uint64

	maxTasks int
	waitIdle bool
	started  bool

	// idle is signaled when the last Running task exits or the kernel faults.
	idle chan struct{}
	// wake is signaled when a task is registered.
	wake chan struct{}
}

func newScheduler(timer *Timer, log klog, panics *panicState, cfg Config) *Scheduler {
	return &Scheduler{
		timer:    timer,
		log:      log,
		panics:   panics,
		maxTasks: cfg.MaxTasks,
		waitIdle: cfg.WaitIdle,
		idle:     make(chan struct{}, 1),
		wake:     make(chan struct{}, 1),
	}
}

func notify(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}

// AddTask registers a loaded task. It enters the rotation as Ready.
func (s *Scheduler) AddTask(name string, entry Entry) (TaskID, error) {
	if entry == nil {
		return 0, ErrNilEntry
	}

	s.mu.Lock()
	if s.maxTasks > 0 && len(s.tasks) >= s.maxTasks {
		s.mu.Unlock()
		return 0, ErrTooManyTasks
	}
	id := TaskID(len(s.tasks))
	if name == "" {
		name = fmt.Sprintf("task%d", id)
	}
	t := newTaskControlBlock(id, name, entry)
	t.status = abi.StatusReady
	s.tasks = append(s.tasks, t)
	s.mu.Unlock()

	notify(s.wake)
	return id, nil
}

// Current returns the Running task, if any.
func (s *Scheduler) Current() (TaskID, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return 0, false
	}
	return s.current.id, true
}

// Switches returns the number of times a task has been made Running.
func (s *Scheduler) Switches() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.switches
}

// pickNext returns the next Ready task in registration order, starting
// after the last one picked. Callers hold mu.
func (s *Scheduler) pickNext() *TaskControlBlock {
	n := len(s.tasks)
	for i := 0; i < n; i++ {
		idx := (s.rr + i) % n
		t := s.tasks[idx]
		if t.status != abi.StatusReady {
			continue
		}
		s.rr = (idx + 1) % n
		return t
	}
	return nil
}

// switchTo makes next the Running task as of now. It reports whether the
// task's goroutine still has to be started. Callers hold mu.
func (s *Scheduler) switchTo(next *TaskControlBlock, now uint64) (start bool) {
	next.lastResumeUs = now
	next.status = abi.StatusRunning
	s.current = next
	s.switches++
	if next.firstRun {
		next.firstRun = false
		next.firstRunUs = now
		return true
	}
	return false
}

// dispatch transfers control to next. Callers must not hold mu.
func (s *Scheduler) dispatch(next *TaskControlBlock, start bool) {
	if start {
		go s.enter(next)
		return
	}
	next.resume <- struct{}{}
}

func (s *Scheduler) enter(t *TaskControlBlock) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		if _, ok := r.(kernelFault); ok {
			// Already recorded; Run reports it.
			return
		}
		s.kill(t, fmt.Sprint(r))
	}()

	t.entry(&Context{sys: s.sys, task: t})
	s.exitCurrent(t, 0)
}

// yieldCurrent moves t from Running to the back of the rotation and parks
// its goroutine until it is picked again.
func (s *Scheduler) yieldCurrent(t *TaskControlBlock) {
	s.mu.Lock()
	if t == nil || s.current != t {
		s.mu.Unlock()
		s.fatal(t, "yield from a task that is not running")
	}
	now := s.timer.NowUs()
	t.finalize(now)
	t.status = abi.StatusReady
	next := s.pickNext()
	start := s.switchTo(next, now)
	s.mu.Unlock()

	if next == t {
		return
	}
	s.dispatch(next, start)
	<-t.resume

	s.mu.Lock()
	killed := t.status == abi.StatusExited
	s.mu.Unlock()
	if killed {
		runtime.Goexit()
	}
}

// exitCurrent retires t and terminates its goroutine. It never returns.
func (s *Scheduler) exitCurrent(t *TaskControlBlock, code int32) {
	if err := s.retire(t, code, ""); err != nil {
		s.fatal(t, err.Error())
	}
	runtime.Goexit()
}

// kill retires t after a fault in its own code.
func (s *Scheduler) kill(t *TaskControlBlock, reason string) {
	s.log.infof("[kernel] task %d (%s) killed: %s", t.id, t.name, reason)
	if err := s.retire(t, ExitCodeKilled, reason); err != nil {
		s.fault(t, err.Error())
	}
}

// retire marks the Running task t Exited, freezes its record and hands the
// processor to the next Ready task.
func (s *Scheduler) retire(t *TaskControlBlock, code int32, reason string) error {
	s.mu.Lock()
	if t == nil || s.current != t {
		s.mu.Unlock()
		return errNotRunning
	}
	now := s.timer.NowUs()
	t.finalize(now)
	t.status = abi.StatusExited
	t.exitCode = code
	t.killReason = reason
	s.current = nil

	next := s.pickNext()
	var start bool
	if next != nil {
		start = s.switchTo(next, now)
	}
	s.mu.Unlock()

	if next == nil {
		notify(s.idle)
		return nil
	}
	s.dispatch(next, start)
	return nil
}

// Kill retires a Ready task. The Running task can only be killed by a fault
// in its own code.
//
// A task parked in yield is woken only to let its goroutine unwind; none of
// its code runs past the yield.
func (s *Scheduler) Kill(id TaskID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := s.lookup(id)
	if t == nil {
		return fmt.Errorf("kill task %d: %w", id, ErrNoSuchTask)
	}
	switch t.status {
	case abi.StatusRunning:
		return fmt.Errorf("kill task %d: %w", id, ErrTaskRunning)
	case abi.StatusExited:
		return nil
	}
	t.status = abi.StatusExited
	t.exitCode = ExitCodeKilled
	t.killReason = "killed"
	s.log.infof("[kernel] task %d (%s) killed while ready", t.id, t.name)
	if !t.firstRun {
		notify(t.resume)
	}
	return nil
}

func (s *Scheduler) lookup(id TaskID) *TaskControlBlock {
	if int(id) >= len(s.tasks) {
		return nil
	}
	return s.tasks[id]
}

// countSyscall bumps caller's counter for id. It fails when caller is not
// the Running task.
func (s *Scheduler) countSyscall(caller *TaskControlBlock, id abi.SyscallID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil || s.current != caller {
		return errNotRunning
	}
	caller.syscallTimes[id]++
	return nil
}

// infoOf fills out for caller. It leaves out untouched and returns false
// when caller is nil or not the Running task.
func (s *Scheduler) infoOf(caller *TaskControlBlock, out *abi.TaskInfo) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if caller == nil || s.current != caller {
		return false
	}
	caller.info(s.timer.NowUs(), out)
	return true
}

// TaskInfo returns the task_info record of any registered task, including
// Exited ones.
func (s *Scheduler) TaskInfo(id TaskID) (abi.TaskInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.lookup(id)
	if t == nil {
		return abi.TaskInfo{}, fmt.Errorf("task info %d: %w", id, ErrNoSuchTask)
	}
	var ti abi.TaskInfo
	t.info(s.timer.NowUs(), &ti)
	return ti, nil
}

// Snapshot copies every task record in registration order.
func (s *Scheduler) Snapshot() []TaskSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.timer.NowUs()
	out := make([]TaskSnapshot, 0, len(s.tasks))
	for _, t := range s.tasks {
		out = append(out, t.snapshot(now))
	}
	return out
}

// Run dispatches tasks until none is Ready and, unless the scheduler waits
// while idle, returns nil. It returns ErrKernelPanic after a kernel fault
// and ctx.Err() when ctx is done. Tasks parked at that point stay parked.
func (s *Scheduler) Run(ctx context.Context) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return ErrAlreadyRunning
	}
	s.started = true
	s.mu.Unlock()

	for {
		if info, ok := s.panics.first(); ok {
			return fmt.Errorf("%w: task %d: %v", ErrKernelPanic, info.TaskID, info.Value)
		}

		s.mu.Lock()
		var next *TaskControlBlock
		var start bool
		if s.current == nil {
			next = s.pickNext()
			if next == nil && !s.waitIdle {
				s.mu.Unlock()
				s.log.infof("[kernel] All applications completed!")
				return nil
			}
			if next != nil {
				start = s.switchTo(next, s.timer.NowUs())
			}
		}
		s.mu.Unlock()

		if next != nil {
			s.dispatch(next, start)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.idle:
		case <-s.wake:
		}
	}
}

// fault records a kernel fault and wakes Run.
func (s *Scheduler) fault(t *TaskControlBlock, msg string) kernelFault {
	f := kernelFault{msg: msg}
	if t != nil {
		f.task = t.id
	}
	s.log.infof("[kernel] panic: task %d: %s", f.task, msg)
	s.panics.trigger(PanicInfo{TaskID: f.task, Value: f})
	notify(s.idle)
	return f
}

// fatal records a kernel fault and halts the calling goroutine.
func (s *Scheduler) fatal(t *TaskControlBlock, msg string) {
	panic(s.fault(t, msg))
}
