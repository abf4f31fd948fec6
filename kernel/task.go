package kernel

import "taskcore/abi"

// TaskID is assigned at registration and never reused.
type TaskID uint32

// ExitCodeKilled is recorded for tasks the kernel kills.
const ExitCodeKilled int32 = -2

// Entry is the body of a task. It runs on its own goroutine, and only while
// the scheduler has the task Running. Returning from Entry is exit(0).
type Entry func(ctx *Context)

// TaskControlBlock is the scheduler's record of one task.
//
// All fields are guarded by Scheduler.mu.
type TaskControlBlock struct {
	id    TaskID
	name  string
	entry Entry

	status       abi.TaskStatus
	syscallTimes [abi.MaxSyscallID]uint32

	// firstRun is true until the first dispatch, which starts the goroutine
	// instead of resuming it.
	firstRun   bool
	firstRunUs uint64

	accumulatedUs uint64
	lastResumeUs  uint64

	exitCode   int32
	killReason string

	resume chan struct{}
}

func newTaskControlBlock(id TaskID, name string, entry Entry) *TaskControlBlock {
	return &TaskControlBlock{
		id:       id,
		name:     name,
		entry:    entry,
		status:   abi.StatusUninit,
		firstRun: true,
		resume:   make(chan struct{}, 1),
	}
}

// finalize folds the running interval that ends at now into accumulatedUs.
// It is a no-op unless the task is Running, so an interval is never
// counted twice.
func (t *TaskControlBlock) finalize(now uint64) {
	if t.status != abi.StatusRunning {
		return
	}
	if now > t.lastResumeUs {
		t.accumulatedUs += now - t.lastResumeUs
	}
	t.lastResumeUs = now
}

// liveTimeUs includes the in-progress interval of a Running task.
func (t *TaskControlBlock) liveTimeUs(now uint64) uint64 {
	if t.status == abi.StatusRunning && now > t.lastResumeUs {
		return t.accumulatedUs + (now - t.lastResumeUs)
	}
	return t.accumulatedUs
}

func (t *TaskControlBlock) info(now uint64, out *abi.TaskInfo) {
	out.Status = t.status
	out.SyscallTimes = t.syscallTimes
	out.Time = t.liveTimeUs(now) / 1000
}

// TaskSnapshot is a read-only copy of a task record for introspection
// outside the task itself.
type TaskSnapshot struct {
	ID           TaskID
	Name         string
	Status       abi.TaskStatus
	SyscallTimes [abi.MaxSyscallID]uint32
	TimeUs       uint64
	FirstRunUs   uint64
	Started      bool
	ExitCode     int32
	KillReason   string
}

// TimeMs returns the CPU time in milliseconds, as task_info reports it.
func (s TaskSnapshot) TimeMs() uint64 { return s.TimeUs / 1000 }

// Syscalls returns the total number of counted syscalls.
func (s TaskSnapshot) Syscalls() uint64 {
	var n uint64
	for _, c := range s.SyscallTimes {
		n += uint64(c)
	}
	return n
}

func (t *TaskControlBlock) snapshot(now uint64) TaskSnapshot {
	return TaskSnapshot{
		ID:           t.id,
		Name:         t.name,
		Status:       t.status,
		SyscallTimes: t.syscallTimes,
		TimeUs:       t.liveTimeUs(now),
		FirstRunUs:   t.firstRunUs,
		Started:      !t.firstRun,
		ExitCode:     t.exitCode,
		KillReason:   t.killReason,
	}
}
