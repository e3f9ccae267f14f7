//go:build !baremetal

package hal

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// hostTimer raises the timer vector from a ticker goroutine, standing in
// for the local APIC in periodic mode.
type hostTimer struct {
	cpu *hostCPU

	mu   sync.Mutex
	stop chan struct{}

	// done is closed once limit ticks have been raised. Ticks keep
	// coming until Stop so that a running task can still yield.
	limit    uint64
	done     chan struct{}
	doneOnce sync.Once
	fired    atomic.Uint64
}

func newHostTimer(cpu *hostCPU) *hostTimer {
	return &hostTimer{cpu: cpu, done: make(chan struct{})}
}

func (t *hostTimer) Start(hz int) error {
	if hz <= 0 {
		return fmt.Errorf("invalid tick rate: %d", hz)
	}
	d := time.Second / time.Duration(hz)
	if d <= 0 {
		return fmt.Errorf("invalid tick rate: %d", hz)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stop != nil {
		return fmt.Errorf("timer already running")
	}
	t.stop = make(chan struct{})
	go t.run(d, t.stop)
	return nil
}

func (t *hostTimer) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stop != nil {
		close(t.stop)
		t.stop = nil
	}
}

func (t *hostTimer) run(d time.Duration, stop <-chan struct{}) {
	tk := time.NewTicker(d)
	defer tk.Stop()
	for {
		select {
		case <-stop:
			return
		case <-tk.C:
			t.step()
		}
	}
}

func (t *hostTimer) step() {
	n := t.fired.Add(1)
	t.cpu.Raise(VectorTimer)
	if t.limit > 0 && n >= t.limit {
		t.doneOnce.Do(func() { close(t.done) })
	}
}

// Done is closed once the tick limit has been reached.
func (t *hostTimer) Done() <-chan struct{} { return t.done }
