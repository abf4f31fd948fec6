package kernel

import (
	"bytes"
	"context"
	"testing"
	"time"

	"taskcore/abi"
	"taskcore/hal"
)

type testKernel struct {
	*Kernel
	clock   *hal.ManualClock
	log     *bytes.Buffer
	console *bytes.Buffer
}

func newTestKernel(t *testing.T, cfg Config) *testKernel {
	t.Helper()
	clock := hal.NewManualClock(0)
	var log, console bytes.Buffer
	k, err := New(hal.NewWith(hal.NewWriterLogger(&log), clock, &console), cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return &testKernel{Kernel: k, clock: clock, log: &log, console: &console}
}

func (k *testKernel) mustAdd(t *testing.T, name string, entry Entry) TaskID {
	t.Helper()
	id, err := k.AddTask(name, entry)
	if err != nil {
		t.Fatalf("AddTask(%q) error = %v", name, err)
	}
	return id
}

func (k *testKernel) run(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := k.Run(ctx); err != nil {
		t.Fatalf("Run() error = %v\nlog:\n%s", err, k.log.String())
	}
}

func (k *testKernel) snapshot(t *testing.T, id TaskID) TaskSnapshot {
	t.Helper()
	snaps := k.Snapshot()
	if int(id) >= len(snaps) {
		t.Fatalf("no snapshot for task %d", id)
	}
	return snaps[id]
}

func yield(ctx *Context) int64 {
	return ctx.Syscall(abi.SysYield, Args{})
}

func exit(ctx *Context, code int32) {
	ctx.Syscall(abi.SysExit, Args{A0: int64(code)})
}

func getTime(ctx *Context) (abi.TimeVal, int64) {
	buf := make([]byte, abi.TimeValBytes)
	rc := ctx.Syscall(abi.SysGetTime, Args{Buf: buf})
	tv, _ := abi.DecodeTimeVal(buf)
	return tv, rc
}

func taskInfo(ctx *Context) (abi.TaskInfo, int64) {
	buf := make([]byte, abi.TaskInfoBytes)
	var ti abi.TaskInfo
	rc := ctx.Syscall(abi.SysTaskInfo, Args{Buf: buf})
	abi.DecodeTaskInfo(buf, &ti)
	return ti, rc
}
