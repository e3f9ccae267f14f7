//go:build baremetal && amd64

package task

import "unsafe"

// Default x87 control word and MXCSR: every floating-point exception
// masked. FXRSTOR of an all-zero area would unmask them.
const (
	defaultFCW   = 0x037f
	defaultMXCSR = 0x1f80
)

type metalMachine struct {
	regs Registers
}

// NewMachine returns the Machine that switches with switchContext.
func NewMachine(regs Registers) Machine {
	return metalMachine{regs: regs}
}

// Prepare points ctx at taskStart, which calls entry through the closure
// pointer left in RBX.
func (m metalMachine) Prepare(ctx *Context, entry func(), stackTop uintptr) {
	ctx.RIP = uint64(taskStartPC())
	ctx.RBX = uint64(funcval(entry))
	// As if called: RSP+8 is 16-byte aligned.
	ctx.RSP = uint64(stackTop&^15 - 8)
	ctx.RFLAGS = InitialRFLAGS
	ctx.CS = KernelCodeSegment
	ctx.SS = KernelStackSegment
	ctx.CR3 = m.regs.AddressSpaceRoot()

	*(*uint16)(unsafe.Pointer(&ctx.FXSave[0])) = defaultFCW
	*(*uint32)(unsafe.Pointer(&ctx.FXSave[24])) = defaultMXCSR
}

func (metalMachine) Switch(next, current *Context) {
	switchContext(next, current)
}

// switchContext saves the caller's registers into current and resumes
// next with IRETQ. Implemented in switch_amd64.s.
//
//go:noescape
func switchContext(next, current *Context)

// taskStart is the first instruction of every spawned task. It loads g
// and the closure context, then calls the entry. Never called from Go.
func taskStart()

// taskStartPC returns the ABI0 address of taskStart.
func taskStartPC() uintptr
