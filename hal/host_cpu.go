//go:build !baremetal

package hal

import (
	"math/bits"
	"sync"
	"sync/atomic"
)

const (
	flagIF = 1 << 9

	// hostAddressSpaceRoot stands in for CR3; the host has one address space.
	hostAddressSpaceRoot = 0x1000
)

// hostCPU emulates the interrupt flag and the local APIC's request
// register. Raised vectors stay pending until the running context has
// interrupts enabled, then their handlers run on that context, highest
// vector first and masked, like an interrupt gate.
type hostCPU struct {
	flags   atomic.Uint64
	pending [4]atomic.Uint64

	mu       sync.RWMutex
	handlers [256]func()

	wake chan struct{}
}

func newHostCPU() *hostCPU {
	c := &hostCPU{wake: make(chan struct{}, 1)}
	c.flags.Store(0x2)
	return c
}

func (c *hostCPU) SaveAndDisable() bool {
	for {
		old := c.flags.Load()
		if c.flags.CompareAndSwap(old, old&^flagIF) {
			return old&flagIF != 0
		}
	}
}

func (c *hostCPU) Restore(enabled bool) {
	if enabled {
		c.EnableInterrupts()
	}
}

func (c *hostCPU) EnableInterrupts() {
	c.setIF()
	c.deliver()
}

func (c *hostCPU) setIF() {
	for {
		old := c.flags.Load()
		if c.flags.CompareAndSwap(old, old|flagIF) {
			return
		}
	}
}

func (c *hostCPU) Flags() uint64            { return c.flags.Load() }
func (c *hostCPU) SetFlags(flags uint64)    { c.flags.Store(flags) }
func (c *hostCPU) AddressSpaceRoot() uint64 { return hostAddressSpaceRoot }

// Halt behaves like STI; HLT: it enables interrupts, then returns after
// delivering at least one, or when woken.
func (c *hostCPU) Halt() {
	c.setIF()
	if c.deliver() {
		return
	}
	<-c.wake
	c.deliver()
}

func (c *hostCPU) Wake() {
	select {
	case c.wake <- struct{}{}:
	default:
	}
}

func (c *hostCPU) Handle(v Vector, fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers[v] = fn
}

// Raise marks v pending and wakes a halted CPU. It is safe from any
// goroutine; repeated raises before delivery coalesce.
func (c *hostCPU) Raise(v Vector) {
	c.pending[v/64].Or(1 << (v % 64))
	c.Wake()
}

// deliver runs pending handlers while interrupts are enabled and reports
// whether any ran.
func (c *hostCPU) deliver() bool {
	ran := false
	for c.flags.Load()&flagIF != 0 {
		v, ok := c.takePending()
		if !ok {
			break
		}
		c.mu.RLock()
		fn := c.handlers[v]
		c.mu.RUnlock()

		enabled := c.SaveAndDisable()
		if fn != nil {
			fn()
		}
		if enabled {
			c.setIF()
		}
		ran = true
	}
	return ran
}

func (c *hostCPU) takePending() (Vector, bool) {
	for i := len(c.pending) - 1; i >= 0; i-- {
		for {
			word := c.pending[i].Load()
			if word == 0 {
				break
			}
			bit := uint64(bits.Len64(word) - 1)
			if c.pending[i].CompareAndSwap(word, word&^(1<<bit)) {
				return Vector(uint64(i)*64 + bit), true
			}
		}
	}
	return 0, false
}
