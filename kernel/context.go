package kernel

import "taskcore/abi"

// Context is the task-local trap into the kernel. Every call through it is
// made, and charged, on behalf of the task it was handed to. It is only
// valid while that task is Running.
type Context struct {
	sys  *Dispatcher
	task *TaskControlBlock
}

// TaskID returns the ID of the task this context belongs to.
func (c *Context) TaskID() TaskID { return c.task.id }

// Name returns the name the task was registered with.
func (c *Context) Name() string { return c.task.name }

// Syscall traps into the kernel.
func (c *Context) Syscall(id abi.SyscallID, args Args) int64 {
	return c.sys.trap(c.task, id, args)
}

// SysGetTime is get_time with an already-validated destination.
func (c *Context) SysGetTime(out *abi.TimeVal) int64 {
	c.sys.charge(c.task, abi.SysGetTime)
	return c.sys.SysGetTime(out)
}

// SysTaskInfo is task_info with an already-validated destination.
func (c *Context) SysTaskInfo(out *abi.TaskInfo) int64 {
	c.sys.charge(c.task, abi.SysTaskInfo)
	return c.sys.taskInfo(c.task, out)
}
