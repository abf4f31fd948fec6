package kernel

import (
	"fmt"
	"io"

	"taskcore/abi"
)

// Args is a decoded trap frame.
//
// Buf is the caller's buffer after the memory collaborator has validated
// it: the source for write, the destination for get_time and task_info.
type Args struct {
	A0  int64
	A1  int64
	Buf []byte
}

// Dispatcher maps syscall ids to handlers and does the per-task accounting.
//
// Task code reaches it through its Context, which names the calling task.
// The exported methods are the kernel-side entry points: they run on behalf
// of no task, so nothing is counted, task_info fails and exit and yield are
// kernel faults.
type Dispatcher struct {
	sched   *Scheduler
	timer   *Timer
	console io.Writer
	log     klog
}

// Syscall runs one syscall outside any task.
func (d *Dispatcher) Syscall(id abi.SyscallID, args Args) int64 {
	return d.trap(nil, id, args)
}

// trap runs one syscall on behalf of caller, which is nil for kernel-side
// calls. A non-nil caller must be the Running task.
//
// The id is bound-checked before anything is counted: unknown ids return
// abi.ENOSYS and leave every counter alone.
func (d *Dispatcher) trap(caller *TaskControlBlock, id abi.SyscallID, args Args) int64 {
	if id >= abi.MaxSyscallID || !id.Known() {
		d.log.tracef("kernel: unsupported syscall %d", id)
		return abi.ENOSYS
	}
	d.charge(caller, id)

	switch id {
	case abi.SysWrite:
		return d.SysWrite(int(args.A0), args.Buf)
	case abi.SysExit:
		d.exit(caller, int32(args.A0))
	case abi.SysYield:
		return d.yield(caller)
	case abi.SysGetTime:
		d.log.tracef("kernel: sys_get_time")
		if !abi.EncodeTimeVal(args.Buf, d.timer.Now()) {
			return abi.EFAULT
		}
		return abi.OK
	case abi.SysTaskInfo:
		d.log.tracef("kernel: sys_task_info")
		var ti abi.TaskInfo
		if !d.sched.infoOf(caller, &ti) {
			return abi.Failed
		}
		if !abi.EncodeTaskInfo(args.Buf, &ti) {
			return abi.EFAULT
		}
		return abi.OK
	}
	return abi.ENOSYS
}

// charge counts id against caller. A caller that is not the Running task
// holds a stale or leaked context, which is a kernel fault.
func (d *Dispatcher) charge(caller *TaskControlBlock, id abi.SyscallID) {
	if caller == nil {
		return
	}
	if err := d.sched.countSyscall(caller, id); err != nil {
		d.sched.fatal(caller, fmt.Sprintf("%s from task %d: %v", id, caller.id, err))
	}
}

func (d *Dispatcher) exit(t *TaskControlBlock, code int32) {
	if t == nil {
		d.sched.fatal(nil, "sys_exit with no running task")
	}
	d.log.infof("[kernel] Application exited with code %d", code)
	d.sched.exitCurrent(t, code)
	d.sched.fatal(t, "unreachable in sys_exit")
}

func (d *Dispatcher) yield(t *TaskControlBlock) int64 {
	d.log.tracef("kernel: sys_yield")
	if t == nil {
		d.sched.fatal(nil, "sys_yield with no running task")
	}
	d.sched.yieldCurrent(t)
	return abi.OK
}

// SysGetTime writes the current monotonic time into out.
func (d *Dispatcher) SysGetTime(out *abi.TimeVal) int64 {
	*out = d.timer.Now()
	return abi.OK
}

// SysTaskInfo always fails: outside a task there is no record to report.
// out is left untouched.
func (d *Dispatcher) SysTaskInfo(out *abi.TaskInfo) int64 {
	return d.taskInfo(nil, out)
}

func (d *Dispatcher) taskInfo(caller *TaskControlBlock, out *abi.TaskInfo) int64 {
	var ti abi.TaskInfo
	if !d.sched.infoOf(caller, &ti) {
		return abi.Failed
	}
	*out = ti
	return abi.OK
}

// SysWrite writes buf to the console. Only stdout is supported.
func (d *Dispatcher) SysWrite(fd int, buf []byte) int64 {
	if fd != abi.FdStdout || d.console == nil {
		return abi.Failed
	}
	n, err := d.console.Write(buf)
	if err != nil {
		return abi.Failed
	}
	return int64(n)
}
