package apps

import (
	"fmt"
	"strings"

	"taskcore/abi"
	"taskcore/kernel"
	"taskcore/user"
)

// Hello prints a greeting.
func Hello(ctx *kernel.Context) {
	user.Println(ctx, "Hello, world from user mode program!")
}

// Power prints rounds rows of ch, yielding after each row.
func Power(ch byte, rounds int) kernel.Entry {
	row := strings.Repeat(string(ch), 10)
	return func(ctx *kernel.Context) {
		for i := 0; i < rounds; i++ {
			user.Println(ctx, fmt.Sprintf("%s [%d/%d]", row, i+1, rounds))
			user.Yield(ctx)
		}
		user.Println(ctx, fmt.Sprintf("Test write %c OK!", ch))
	}
}

// Sleep yields until ms milliseconds of timer time have passed.
func Sleep(ms uint64) kernel.Entry {
	return func(ctx *kernel.Context) {
		start := user.GetTimeMs(ctx)
		user.SleepMs(ctx, ms)
		end := user.GetTimeMs(ctx)
		if end < start || uint64(end-start) < ms {
			user.Println(ctx, fmt.Sprintf("sleep woke early: %dms", end-start))
			user.Exit(ctx, -1)
		}
		user.Println(ctx, "Test sleep OK!")
	}
}

// TaskInfoCheck sleeps for ms milliseconds and checks that task_info agrees
// with what the task has done so far.
func TaskInfoCheck(ms uint64) kernel.Entry {
	return func(ctx *kernel.Context) {
		t1 := user.GetTimeMs(ctx)
		user.SleepMs(ctx, ms)
		info, rc := user.TaskInfo(ctx)
		t3 := user.GetTimeMs(ctx)

		var problems []string
		if rc != abi.OK {
			problems = append(problems, fmt.Sprintf("task_info returned %d", rc))
		}
		if info.Status != abi.StatusRunning {
			problems = append(problems, fmt.Sprintf("status %s", info.Status))
		}
		if info.SyscallTimes[abi.SysGetTime] < 3 {
			problems = append(problems, fmt.Sprintf("get_time count %d", info.SyscallTimes[abi.SysGetTime]))
		}
		if info.SyscallTimes[abi.SysTaskInfo] != 1 {
			problems = append(problems, fmt.Sprintf("task_info count %d", info.SyscallTimes[abi.SysTaskInfo]))
		}
		if info.SyscallTimes[abi.SysWrite] != 0 || info.SyscallTimes[abi.SysExit] != 0 {
			problems = append(problems, "unexpected write or exit count")
		}
		// CPU time can never exceed the wall time the task has existed for.
		if int64(info.Time) > t3-t1+100 {
			problems = append(problems, fmt.Sprintf("time %dms exceeds %dms", info.Time, t3-t1))
		}

		if len(problems) > 0 {
			user.Println(ctx, "Test task info FAILED: "+strings.Join(problems, "; "))
			user.Exit(ctx, -1)
		}
		user.Println(ctx, "Test task info OK!")
	}
}

// Spin keeps the processor busy for ms milliseconds and reports the CPU
// time task_info saw.
func Spin(ms uint64) kernel.Entry {
	return func(ctx *kernel.Context) {
		start := user.GetTimeMs(ctx)
		for {
			now := user.GetTimeMs(ctx)
			if now < 0 || uint64(now-start) >= ms {
				break
			}
		}
		info, _ := user.TaskInfo(ctx)
		user.Println(ctx, fmt.Sprintf("spin: %dms of cpu time", info.Time))
	}
}

// Fault crashes.
func Fault(ctx *kernel.Context) {
	user.Println(ctx, "Into Test illegal instruction")
	var table []int
	_ = table[ctx.TaskID()+1]
}
