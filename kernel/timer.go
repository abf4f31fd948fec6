package kernel

import (
	"taskcore/abi"
	"taskcore/hal"
)

// Timer adapts the HAL clock to the units the syscall layer reports.
type Timer struct {
	clock hal.Clock
}

// NewTimer wraps a monotonic clock.
func NewTimer(clock hal.Clock) (*Timer, error) {
	if clock == nil {
		return nil, ErrNoClock
	}
	return &Timer{clock: clock}, nil
}

// NowUs returns microseconds since the clock's epoch. It never decreases.
func (t *Timer) NowUs() uint64 {
	return t.clock.NowMicros()
}

// Now returns the current reading as a TimeVal.
func (t *Timer) Now() abi.TimeVal {
	sec, usec := ToSecUsec(t.NowUs())
	return abi.TimeVal{Sec: sec, Usec: usec}
}

// ToSecUsec splits a microsecond count. sec*1_000_000+usec == us.
func ToSecUsec(us uint64) (sec, usec uint64) {
	return us / 1_000_000, us % 1_000_000
}
