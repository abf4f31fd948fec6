package hal

import (
	"sync/atomic"
	"time"
)

type monotonicClock struct {
	boot time.Time
}

// NewMonotonicClock returns a clock counting microseconds since the call.
func NewMonotonicClock() Clock {
	return &monotonicClock{boot: time.Now()}
}

func (c *monotonicClock) NowMicros() uint64 {
	// time.Since uses the monotonic reading embedded in boot.
	d := time.Since(c.boot)
	if d < 0 {
		return 0
	}
	return uint64(d / time.Microsecond)
}

// ManualClock is a Clock that only moves when told to.
type ManualClock struct {
	now atomic.Uint64
}

// NewManualClock returns a ManualClock reading start.
func NewManualClock(start uint64) *ManualClock {
	c := &ManualClock{}
	c.now.Store(start)
	return c
}

func (c *ManualClock) NowMicros() uint64 { return c.now.Load() }

// Advance moves the clock forward by us and returns the new reading.
func (c *ManualClock) Advance(us uint64) uint64 {
	return c.now.Add(us)
}
