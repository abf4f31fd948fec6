// Package user is the syscall library linked into every task.
package user

import (
	"taskcore/abi"
	"taskcore/kernel"
)

// Trap is the task's way into the kernel. *kernel.Context implements it.
type Trap interface {
	Syscall(id abi.SyscallID, args kernel.Args) int64
}

// Write writes p to fd and returns the byte count or a negative code.
func Write(t Trap, fd int, p []byte) int64 {
	return t.Syscall(abi.SysWrite, kernel.Args{A0: int64(fd), Buf: p})
}

// Print writes s to stdout.
func Print(t Trap, s string) int64 {
	return Write(t, abi.FdStdout, []byte(s))
}

// Println writes s and a newline to stdout.
func Println(t Trap, s string) int64 {
	return Write(t, abi.FdStdout, append([]byte(s), '\n'))
}

// Exit terminates the calling task. It does not return.
func Exit(t Trap, code int32) {
	t.Syscall(abi.SysExit, kernel.Args{A0: int64(code)})
}

// Yield gives up the processor until the task is picked again.
func Yield(t Trap) int64 {
	return t.Syscall(abi.SysYield, kernel.Args{})
}

// GetTime reads the monotonic timer.
func GetTime(t Trap) (abi.TimeVal, int64) {
	var buf [abi.TimeValBytes]byte
	if rc := t.Syscall(abi.SysGetTime, kernel.Args{Buf: buf[:]}); rc != abi.OK {
		return abi.TimeVal{}, rc
	}
	tv, _ := abi.DecodeTimeVal(buf[:])
	return tv, abi.OK
}

// GetTimeMs reads the monotonic timer in milliseconds, or returns a
// negative code.
func GetTimeMs(t Trap) int64 {
	tv, rc := GetTime(t)
	if rc != abi.OK {
		return rc
	}
	return int64(tv.Millis())
}

// TaskInfo returns the calling task's record.
func TaskInfo(t Trap) (abi.TaskInfo, int64) {
	buf := make([]byte, abi.TaskInfoBytes)
	var ti abi.TaskInfo
	if rc := t.Syscall(abi.SysTaskInfo, kernel.Args{Buf: buf}); rc != abi.OK {
		return ti, rc
	}
	abi.DecodeTaskInfo(buf, &ti)
	return ti, abi.OK
}

// SleepMs yields until at least ms milliseconds have passed.
func SleepMs(t Trap, ms uint64) {
	start := GetTimeMs(t)
	if start < 0 {
		return
	}
	for {
		now := GetTimeMs(t)
		if now < 0 || uint64(now-start) >= ms {
			return
		}
		Yield(t)
	}
}
