package kernel

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// PanicInfo describes the first fatal condition the kernel hit.
type PanicInfo struct {
	// Task is the name of the task that was running.
	Task string
	// Err is set for integrity violations, Value for recovered Go panics.
	Err   error
	Value any
	Stack []byte
}

// Reason returns a one-line description of the failure.
func (p PanicInfo) Reason() string {
	if p.Err != nil {
		return p.Err.Error()
	}
	return fmt.Sprint(p.Value)
}

var (
	panicActive atomic.Bool
	panicOnce   sync.Once

	panicHandler atomic.Value // func(PanicInfo)
)

// InPanicMode reports whether the kernel is in panic mode.
func InPanicMode() bool {
	return panicActive.Load()
}

// SetPanicHandler installs a process-wide panic handler.
//
// The handler is invoked at most once (on the first panic). It must not panic.
func SetPanicHandler(fn func(PanicInfo)) {
	panicHandler.Store(fn)
}

func triggerPanic(info PanicInfo) {
	panicOnce.Do(func() {
		panicActive.Store(true)
		info.Stack = captureStack()
		if v := panicHandler.Load(); v != nil {
			if fn, ok := v.(func(PanicInfo)); ok && fn != nil {
				fn(info)
			}
		}
	})
}
