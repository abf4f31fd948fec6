package kernel

import (
	"sync"
	"sync/atomic"
)

// PanicInfo contains details about a kernel fault.
type PanicInfo struct {
	TaskID TaskID
	Value  any
	Stack  []byte
}

type panicState struct {
	active atomic.Bool
	once   sync.Once

	handler atomic.Value // func(PanicInfo)

	mu   sync.Mutex
	info PanicInfo
}

func (p *panicState) setHandler(fn func(PanicInfo)) {
	if fn == nil {
		return
	}
	p.handler.Store(fn)
}

// trigger records the first fault and runs the handler at most once.
// Later faults are dropped: the kernel is already in panic mode.
func (p *panicState) trigger(info PanicInfo) {
	p.once.Do(func() {
		info.Stack = captureStack()
		p.mu.Lock()
		p.info = info
		p.mu.Unlock()
		p.active.Store(true)
		if v := p.handler.Load(); v != nil {
			if fn, ok := v.(func(PanicInfo)); ok && fn != nil {
				fn(info)
			}
		}
	})
}

func (p *panicState) first() (PanicInfo, bool) {
	if !p.active.Load() {
		return PanicInfo{}, false
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.info, true
}
