// Package abi holds the syscall numbers and the little-endian record
// layouts shared by the kernel and user code.
package abi

// SyscallID identifies a syscall in the trap frame.
type SyscallID uint16

const (
	SysWrite    SyscallID = 64
	SysExit     SyscallID = 93
	SysYield    SyscallID = 124
	SysGetTime  SyscallID = 169
	SysTaskInfo SyscallID = 410
)

// MaxSyscallID bounds every syscall id. Ids at or above it are rejected
// before any accounting happens.
const MaxSyscallID = 500

func (id SyscallID) String() string {
	switch id {
	case SysWrite:
		return "write"
	case SysExit:
		return "exit"
	case SysYield:
		return "yield"
	case SysGetTime:
		return "get_time"
	case SysTaskInfo:
		return "task_info"
	default:
		return "unknown"
	}
}

// Known reports whether the kernel has a handler for id.
func (id SyscallID) Known() bool {
	switch id {
	case SysWrite, SysExit, SysYield, SysGetTime, SysTaskInfo:
		return true
	default:
		return false
	}
}

// TaskStatus is the scheduling state of a task.
type TaskStatus uint32

const (
	StatusUninit TaskStatus = iota
	StatusReady
	StatusRunning
	StatusExited
)

func (s TaskStatus) String() string {
	switch s {
	case StatusUninit:
		return "uninit"
	case StatusReady:
		return "ready"
	case StatusRunning:
		return "running"
	case StatusExited:
		return "exited"
	default:
		return "unknown"
	}
}

// Syscall return codes.
const (
	OK     int64 = 0
	Failed int64 = -1
	EFAULT int64 = -14
	ENOSYS int64 = -38
)

// FdStdout is the only file descriptor write accepts.
const FdStdout = 1
