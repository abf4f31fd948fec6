package kernel

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"taskcore/abi"
)

func TestSyscallCountsArePerTask(t *testing.T) {
	k := newTestKernel(t, Config{})
	a := k.mustAdd(t, "a", func(ctx *Context) {
		for i := 0; i < 4; i++ {
			yield(ctx)
			getTime(ctx)
		}
		taskInfo(ctx)
	})
	b := k.mustAdd(t, "b", func(ctx *Context) {
		yield(ctx)
		getTime(ctx)
		getTime(ctx)
		exit(ctx, 0)
	})
	k.run(t)

	sa := k.snapshot(t, a)
	if sa.SyscallTimes[abi.SysYield] != 4 || sa.SyscallTimes[abi.SysGetTime] != 4 || sa.SyscallTimes[abi.SysTaskInfo] != 1 {
		t.Fatalf("task a counts: yield=%d get_time=%d task_info=%d, want 4/4/1",
			sa.SyscallTimes[abi.SysYield], sa.SyscallTimes[abi.SysGetTime], sa.SyscallTimes[abi.SysTaskInfo])
	}
	if sa.Syscalls() != 9 {
		t.Fatalf("task a total = %d, want 9", sa.Syscalls())
	}
	sb := k.snapshot(t, b)
	if sb.SyscallTimes[abi.SysYield] != 1 || sb.SyscallTimes[abi.SysGetTime] != 2 || sb.SyscallTimes[abi.SysExit] != 1 {
		t.Fatalf("task b counts: yield=%d get_time=%d exit=%d, want 1/2/1",
			sb.SyscallTimes[abi.SysYield], sb.SyscallTimes[abi.SysGetTime], sb.SyscallTimes[abi.SysExit])
	}
	if sb.Syscalls() != 4 {
		t.Fatalf("task b total = %d, want 4", sb.Syscalls())
	}
}

func TestUnknownSyscallRejected(t *testing.T) {
	k := newTestKernel(t, Config{})
	var rcs []int64
	id := k.mustAdd(t, "caller", func(ctx *Context) {
		rcs = append(rcs,
			ctx.Syscall(1, Args{}),
			ctx.Syscall(abi.MaxSyscallID-1, Args{}),
			ctx.Syscall(abi.MaxSyscallID, Args{}),
			ctx.Syscall(60_000, Args{}),
		)
	})
	k.run(t)

	for i, rc := range rcs {
		if rc != abi.ENOSYS {
			t.Fatalf("call %d rc = %d, want ENOSYS", i, rc)
		}
	}
	if n := k.snapshot(t, id).Syscalls(); n != 0 {
		t.Fatalf("counted %d syscalls, want 0", n)
	}
}

func TestTaskInfoWithoutCurrentTask(t *testing.T) {
	k := newTestKernel(t, Config{})

	out := abi.TaskInfo{Status: abi.StatusExited, Time: 77}
	out.SyscallTimes[abi.SysYield] = 9
	want := out
	if rc := k.Dispatcher().SysTaskInfo(&out); rc != abi.Failed {
		t.Fatalf("SysTaskInfo() = %d, want -1", rc)
	}
	if out != want {
		t.Fatal("SysTaskInfo() wrote to the output record")
	}

	buf := bytes.Repeat([]byte{0xAA}, abi.TaskInfoBytes)
	if rc := k.Dispatcher().Syscall(abi.SysTaskInfo, Args{Buf: buf}); rc != abi.Failed {
		t.Fatalf("Syscall(task_info) = %d, want -1", rc)
	}
	for i, b := range buf {
		if b != 0xAA {
			t.Fatalf("buf[%d] = %#x, want untouched", i, b)
		}
	}
}

func TestGetTimeOutsideTask(t *testing.T) {
	k := newTestKernel(t, Config{})
	k.clock.Advance(3_250_001)

	var tv abi.TimeVal
	if rc := k.Dispatcher().SysGetTime(&tv); rc != abi.OK {
		t.Fatalf("SysGetTime() = %d, want 0", rc)
	}
	if tv.Sec != 3 || tv.Usec != 250_001 {
		t.Fatalf("SysGetTime() = %+v, want {3 250001}", tv)
	}

	short := make([]byte, abi.TimeValBytes-1)
	if rc := k.Dispatcher().Syscall(abi.SysGetTime, Args{Buf: short}); rc != abi.EFAULT {
		t.Fatalf("Syscall(get_time, short) = %d, want EFAULT", rc)
	}
}

func TestTaskInfoTimeIsLive(t *testing.T) {
	k := newTestKernel(t, Config{})
	var times []uint64
	var statuses []abi.TaskStatus
	k.mustAdd(t, "busy", func(ctx *Context) {
		for _, step := range []uint64{1500, 0, 1000, 250, 800, 0} {
			k.clock.Advance(step)
			ti, _ := taskInfo(ctx)
			times = append(times, ti.Time)
			statuses = append(statuses, ti.Status)
		}
	})
	k.run(t)

	want := []uint64{1, 1, 2, 2, 3, 3}
	for i := range want {
		if times[i] != want[i] {
			t.Fatalf("task_info time #%d = %d, want %d (all %v)", i, times[i], want[i], times)
		}
		if statuses[i] != abi.StatusRunning {
			t.Fatalf("task_info status #%d = %s, want running", i, statuses[i])
		}
	}
}

func TestTaskInfoTimeNonDecreasingAcrossYields(t *testing.T) {
	k := newTestKernel(t, Config{})
	var times []uint64
	k.mustAdd(t, "measured", func(ctx *Context) {
		for i := 0; i < 10; i++ {
			k.clock.Advance(400)
			ti, _ := taskInfo(ctx)
			times = append(times, ti.Time)
			yield(ctx)
		}
	})
	k.mustAdd(t, "noise", func(ctx *Context) {
		for i := 0; i < 10; i++ {
			k.clock.Advance(3000)
			yield(ctx)
		}
	})
	k.run(t)

	for i := 1; i < len(times); i++ {
		if times[i] < times[i-1] {
			t.Fatalf("task_info time went from %d to %d", times[i-1], times[i])
		}
	}
	// Only the task's own running intervals count: 10 x 400us.
	if last := times[len(times)-1]; last != 4 {
		t.Fatalf("final time = %dms, want 4", last)
	}
}

func TestYieldYieldYieldGetTimeExit(t *testing.T) {
	k := newTestKernel(t, Config{})
	k.clock.Advance(3_250_001)

	var before abi.TaskInfo
	var tv abi.TimeVal
	var tvRC int64
	id := k.mustAdd(t, "scenario", func(ctx *Context) {
		for i := 0; i < 3; i++ {
			yield(ctx)
		}
		tv, tvRC = getTime(ctx)
		before, _ = taskInfo(ctx)
		exit(ctx, 5)
	})
	k.run(t)

	if before.Status != abi.StatusRunning {
		t.Fatalf("status before exit = %s, want running", before.Status)
	}
	if before.SyscallTimes[abi.SysYield] != 3 {
		t.Fatalf("yield count before exit = %d, want 3", before.SyscallTimes[abi.SysYield])
	}
	if tvRC != abi.OK || tv.Sec != 3 || tv.Usec != 250_001 || tv.Micros() != 3_250_001 {
		t.Fatalf("get_time = %+v rc %d, want {3 250001} rc 0", tv, tvRC)
	}

	after := k.snapshot(t, id)
	if after.Status != abi.StatusExited || after.ExitCode != 5 {
		t.Fatalf("after exit = %s/%d, want exited/5", after.Status, after.ExitCode)
	}
	wantCounts := before.SyscallTimes
	wantCounts[abi.SysExit]++
	if after.SyscallTimes != wantCounts {
		t.Fatal("counters after exit differ from counters before exit plus the exit call")
	}
	if !strings.Contains(k.log.String(), "Application exited with code 5") {
		t.Fatalf("log missing exit line:\n%s", k.log.String())
	}
}

func TestWrite(t *testing.T) {
	k := newTestKernel(t, Config{})
	var stdout, stderr int64
	k.mustAdd(t, "writer", func(ctx *Context) {
		stdout = ctx.Syscall(abi.SysWrite, Args{A0: abi.FdStdout, Buf: []byte("hi\n")})
		stderr = ctx.Syscall(abi.SysWrite, Args{A0: 2, Buf: []byte("no")})
	})
	k.run(t)

	if stdout != 3 {
		t.Fatalf("write(stdout) = %d, want 3", stdout)
	}
	if stderr != abi.Failed {
		t.Fatalf("write(2) = %d, want -1", stderr)
	}
	if got := k.console.String(); got != "hi\n" {
		t.Fatalf("console = %q, want %q", got, "hi\n")
	}
}

func TestTrace(t *testing.T) {
	k := newTestKernel(t, Config{Trace: true})
	k.mustAdd(t, "traced", func(ctx *Context) {
		yield(ctx)
		getTime(ctx)
	})
	k.run(t)

	log := k.log.String()
	for _, line := range []string{"kernel: sys_yield", "kernel: sys_get_time"} {
		if !strings.Contains(log, line) {
			t.Fatalf("trace log missing %q:\n%s", line, log)
		}
	}
}

func TestExitWithoutTaskIsKernelFault(t *testing.T) {
	var infos []PanicInfo
	k := newTestKernel(t, Config{PanicHandler: func(info PanicInfo) {
		infos = append(infos, info)
	}})

	for i := 0; i < 2; i++ {
		func() {
			defer func() {
				r := recover()
				if _, ok := r.(kernelFault); !ok {
					t.Fatalf("recovered %v, want kernelFault", r)
				}
			}()
			k.Dispatcher().Syscall(abi.SysExit, Args{})
			t.Fatal("Syscall(exit) returned")
		}()
	}

	if !k.InPanicMode() {
		t.Fatal("InPanicMode() = false after fault")
	}
	if len(infos) != 1 {
		t.Fatalf("panic handler ran %d times, want 1", len(infos))
	}
	if len(infos[0].Stack) == 0 {
		t.Fatal("panic info has no stack")
	}
	if err := k.Run(context.Background()); !errors.Is(err, ErrKernelPanic) {
		t.Fatalf("Run() error = %v, want ErrKernelPanic", err)
	}
}

func TestYieldWithoutTaskIsKernelFault(t *testing.T) {
	k := newTestKernel(t, Config{})
	defer func() {
		if _, ok := recover().(kernelFault); !ok {
			t.Fatal("yield without a task did not fault")
		}
		if !k.InPanicMode() {
			t.Fatal("InPanicMode() = false after fault")
		}
	}()
	k.Dispatcher().Syscall(abi.SysYield, Args{})
}

func TestStaleContextIsKernelFault(t *testing.T) {
	k := newTestKernel(t, Config{})
	var leaked *Context
	a := k.mustAdd(t, "a", func(ctx *Context) {
		leaked = ctx
	})
	faulted := make(chan bool, 1)
	b := k.mustAdd(t, "b", func(ctx *Context) {
		done := make(chan struct{})
		go func() {
			defer close(done)
			defer func() {
				_, ok := recover().(kernelFault)
				faulted <- ok
			}()
			getTime(leaked)
		}()
		<-done
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := k.Run(ctx); !errors.Is(err, ErrKernelPanic) {
		t.Fatalf("Run() error = %v, want ErrKernelPanic", err)
	}
	select {
	case ok := <-faulted:
		if !ok {
			t.Fatal("get_time through a stale context did not fault")
		}
	case <-ctx.Done():
		t.Fatal("stale call never returned")
	}
	if n := k.snapshot(t, a).SyscallTimes[abi.SysGetTime]; n != 0 {
		t.Fatalf("task a get_time count = %d, want 0", n)
	}
	if n := k.snapshot(t, b).SyscallTimes[abi.SysGetTime]; n != 0 {
		t.Fatalf("task b get_time count = %d, want 0", n)
	}
}

func TestForeignYieldDoesNotSwitch(t *testing.T) {
	k := newTestKernel(t, Config{})
	var bRan bool
	seen := make(chan bool, 1)
	k.mustAdd(t, "a", func(ctx *Context) {
		done := make(chan struct{})
		go func() {
			defer close(done)
			defer func() { recover() }()
			k.Dispatcher().Syscall(abi.SysYield, Args{})
		}()
		<-done
		seen <- bRan
	})
	k.mustAdd(t, "b", func(ctx *Context) {
		bRan = true
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := k.Run(ctx); !errors.Is(err, ErrKernelPanic) {
		t.Fatalf("Run() error = %v, want ErrKernelPanic", err)
	}
	select {
	case ran := <-seen:
		if ran {
			t.Fatal("task b ran while task a was running")
		}
	case <-ctx.Done():
		t.Fatal("task a never resumed")
	}
}

func TestContextTypedEntryPoints(t *testing.T) {
	k := newTestKernel(t, Config{})
	var tv abi.TimeVal
	var ti abi.TaskInfo
	var rcTime, rcInfo int64
	id := k.mustAdd(t, "typed", func(ctx *Context) {
		k.clock.Advance(2_000)
		rcTime = ctx.SysGetTime(&tv)
		rcInfo = ctx.SysTaskInfo(&ti)
	})
	k.run(t)

	if rcTime != abi.OK || tv.Micros() != 2_000 {
		t.Fatalf("SysGetTime() = %d %+v, want 0 {0 2000}", rcTime, tv)
	}
	if rcInfo != abi.OK || ti.Status != abi.StatusRunning || ti.Time != 2 {
		t.Fatalf("SysTaskInfo() = %d status=%s time=%d, want 0 running 2", rcInfo, ti.Status, ti.Time)
	}
	if ti.SyscallTimes[abi.SysGetTime] != 1 || ti.SyscallTimes[abi.SysTaskInfo] != 1 {
		t.Fatalf("counts in record: get_time=%d task_info=%d, want 1/1",
			ti.SyscallTimes[abi.SysGetTime], ti.SyscallTimes[abi.SysTaskInfo])
	}
	if n := k.snapshot(t, id).Syscalls(); n != 2 {
		t.Fatalf("counted %d syscalls, want 2", n)
	}
}
