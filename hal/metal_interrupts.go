//go:build baremetal && amd64

package hal

import "unsafe"

const lapicEOI = 0xfee000b0

var handlers [256]func()

type metalInterrupts struct{}

func (metalInterrupts) Handle(v Vector, fn func()) {
	handlers[v] = fn
}

// Dispatch is called by the gate stubs in cpu_amd64.s with interrupts
// masked. It runs the registered handler and signals end of interrupt.
//
//go:nosplit
func Dispatch(vector uint8) {
	if fn := handlers[vector]; fn != nil {
		fn()
	}
	lapicWrite(lapicEOI, 0)
}

//go:nosplit
func lapicWrite(addr uintptr, v uint32) {
	*(*uint32)(unsafe.Pointer(addr)) = v
}
