package task

import "unsafe"

// Context is the saved machine state of a task.
//
// Its layout is read and written by offset in switch_amd64.s (through the
// go_asm.h names Context_RIP and friends) and must not be reordered
// without updating the assembly and the offset table below together.
type Context struct {
	CR3      uint64 // 0x00
	RIP      uint64 // 0x08
	RFLAGS   uint64 // 0x10
	Reserved uint64 // 0x18

	// Selectors are 16 bits wide but pushed and popped as quadwords.
	CS uint64 // 0x20
	SS uint64 // 0x28
	FS uint64 // 0x30
	GS uint64 // 0x38

	RAX uint64 // 0x40
	RBX uint64 // 0x48
	RCX uint64 // 0x50
	RDX uint64 // 0x58
	RDI uint64 // 0x60
	RSI uint64 // 0x68
	RSP uint64 // 0x70
	RBP uint64 // 0x78
	R8  uint64 // 0x80
	R9  uint64 // 0x88
	R10 uint64 // 0x90
	R11 uint64 // 0x98
	R12 uint64 // 0xa0
	R13 uint64 // 0xa8
	R14 uint64 // 0xb0
	R15 uint64 // 0xb8

	// FXSave is the FXSAVE/FXRSTOR area and must be 16-byte aligned.
	FXSave [512]byte // 0xc0
}

const (
	ContextSize  = 0x2c0
	ContextAlign = 16 // FXSAVE operand alignment

	// Initial register values of a spawned task.
	InitialRFLAGS      = 0x202 // IF set, bit 1 reads as one
	KernelCodeSegment  = 0x08
	KernelStackSegment = 0x00
)

// Field describes one Context member in the switch routine's terms.
type Field struct {
	Name   string
	Offset uintptr
	Size   uintptr
}

// Layout returns the Context fields in memory order.
func Layout() []Field {
	var c Context
	f := func(name string, off, size uintptr) Field { return Field{Name: name, Offset: off, Size: size} }
	return []Field{
		f("CR3", unsafe.Offsetof(c.CR3), unsafe.Sizeof(c.CR3)),
		f("RIP", unsafe.Offsetof(c.RIP), unsafe.Sizeof(c.RIP)),
		f("RFLAGS", unsafe.Offsetof(c.RFLAGS), unsafe.Sizeof(c.RFLAGS)),
		f("Reserved", unsafe.Offsetof(c.Reserved), unsafe.Sizeof(c.Reserved)),
		f("CS", unsafe.Offsetof(c.CS), unsafe.Sizeof(c.CS)),
		f("SS", unsafe.Offsetof(c.SS), unsafe.Sizeof(c.SS)),
		f("FS", unsafe.Offsetof(c.FS), unsafe.Sizeof(c.FS)),
		f("GS", unsafe.Offsetof(c.GS), unsafe.Sizeof(c.GS)),
		f("RAX", unsafe.Offsetof(c.RAX), unsafe.Sizeof(c.RAX)),
		f("RBX", unsafe.Offsetof(c.RBX), unsafe.Sizeof(c.RBX)),
		f("RCX", unsafe.Offsetof(c.RCX), unsafe.Sizeof(c.RCX)),
		f("RDX", unsafe.Offsetof(c.RDX), unsafe.Sizeof(c.RDX)),
		f("RDI", unsafe.Offsetof(c.RDI), unsafe.Sizeof(c.RDI)),
		f("RSI", unsafe.Offsetof(c.RSI), unsafe.Sizeof(c.RSI)),
		f("RSP", unsafe.Offsetof(c.RSP), unsafe.Sizeof(c.RSP)),
		f("RBP", unsafe.Offsetof(c.RBP), unsafe.Sizeof(c.RBP)),
		f("R8", unsafe.Offsetof(c.R8), unsafe.Sizeof(c.R8)),
		f("R9", unsafe.Offsetof(c.R9), unsafe.Sizeof(c.R9)),
		f("R10", unsafe.Offsetof(c.R10), unsafe.Sizeof(c.R10)),
		f("R11", unsafe.Offsetof(c.R11), unsafe.Sizeof(c.R11)),
		f("R12", unsafe.Offsetof(c.R12), unsafe.Sizeof(c.R12)),
		f("R13", unsafe.Offsetof(c.R13), unsafe.Sizeof(c.R13)),
		f("R14", unsafe.Offsetof(c.R14), unsafe.Sizeof(c.R14)),
		f("R15", unsafe.Offsetof(c.R15), unsafe.Sizeof(c.R15)),
		f("FXSave", unsafe.Offsetof(c.FXSave), unsafe.Sizeof(c.FXSave)),
	}
}

// newContext allocates a zeroed Context on a ContextAlign boundary.
//
// Context holds no pointers, so carving it out of a byte slice is safe; the
// returned pointer keeps the backing array alive.
func newContext() *Context {
	buf := make([]byte, ContextSize+ContextAlign-1)
	p := uintptr(unsafe.Pointer(&buf[0]))
	off := (ContextAlign - p%ContextAlign) % ContextAlign
	return (*Context)(unsafe.Pointer(&buf[off]))
}
