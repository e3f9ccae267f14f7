//go:build baremetal && amd64

package hal

import "unsafe"

var (
	idt  idtTable
	idtr [10]byte
)

// Gate stubs in cpu_amd64.s. Each saves the interrupted context, calls
// Dispatch with its vector and returns with IRETQ.
func gateXHCI()
func gateTimer()
func gateKeyboard()

// gateStubPCs returns the ABI0 addresses of the gate stubs.
func gateStubPCs() (xhci, timer, keyboard uintptr)

func readCS() uint16
func lidt(p *[10]byte)

// installIDT points the device vectors at their gate stubs and loads the
// table. Every other vector stays not-present.
func installIDT() {
	cs := readCS()
	xhci, timer, keyboard := gateStubPCs()
	idt[VectorXHCI] = interruptGate(xhci, cs)
	idt[VectorTimer] = interruptGate(timer, cs)
	idt[VectorKeyboard] = interruptGate(keyboard, cs)

	idtr = idtPointer(uintptr(unsafe.Pointer(&idt)))
	lidt(&idtr)
}
