package abi

import "encoding/binary"

// TaskInfoBytes is the encoded size of a TaskInfo.
const TaskInfoBytes = 4 + 4*MaxSyscallID + 8

// TaskInfo is the user-visible introspection record for a task.
//
// Scheduler bookkeeping (resume timestamps, rotation cursors) is not part
// of the record.
type TaskInfo struct {
	Status       TaskStatus
	SyscallTimes [MaxSyscallID]uint32
	// Time is the task's CPU time in milliseconds.
	Time uint64
}

// EncodeTaskInfo writes ti into dst.
//
// Layout (little-endian):
//   - u32: status
//   - u32 x MaxSyscallID: syscall_times
//   - u64: time (ms)
func EncodeTaskInfo(dst []byte, ti *TaskInfo) bool {
	if len(dst) < TaskInfoBytes || ti == nil {
		return false
	}
	binary.LittleEndian.PutUint32(dst[0:4], uint32(ti.Status))
	off := 4
	for _, n := range ti.SyscallTimes {
		binary.LittleEndian.PutUint32(dst[off:off+4], n)
		off += 4
	}
	binary.LittleEndian.PutUint64(dst[off:off+8], ti.Time)
	return true
}

// DecodeTaskInfo decodes an EncodeTaskInfo record into ti.
func DecodeTaskInfo(src []byte, ti *TaskInfo) bool {
	if len(src) < TaskInfoBytes || ti == nil {
		return false
	}
	ti.Status = TaskStatus(binary.LittleEndian.Uint32(src[0:4]))
	off := 4
	for i := range ti.SyscallTimes {
		ti.SyscallTimes[i] = binary.LittleEndian.Uint32(src[off : off+4])
		off += 4
	}
	ti.Time = binary.LittleEndian.Uint64(src[off : off+8])
	return true
}
