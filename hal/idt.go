package hal

// gateDescriptor is one 16-byte IDT entry in long mode.
type gateDescriptor struct {
	offsetLow  uint16
	selector   uint16
	attr       uint16
	offsetMid  uint16
	offsetHigh uint32
	reserved   uint32
}

const (
	gateTypeInterrupt = 0xe
	gatePresent       = 1 << 15

	idtEntries = 256
	idtLimit   = idtEntries*16 - 1
)

// interruptGate returns a present ring-0 interrupt gate to handler. An
// interrupt gate clears IF on entry, so handlers run masked.
func interruptGate(handler uintptr, selector uint16) gateDescriptor {
	off := uint64(handler)
	return gateDescriptor{
		offsetLow:  uint16(off),
		selector:   selector,
		attr:       gatePresent | gateTypeInterrupt<<8,
		offsetMid:  uint16(off >> 16),
		offsetHigh: uint32(off >> 32),
	}
}

func (d gateDescriptor) offset() uint64 {
	return uint64(d.offsetLow) | uint64(d.offsetMid)<<16 | uint64(d.offsetHigh)<<32
}

func (d gateDescriptor) present() bool { return d.attr&gatePresent != 0 }

type idtTable [idtEntries]gateDescriptor

// idtPointer encodes the LIDT operand: a 16-bit limit followed by the
// 64-bit base address.
func idtPointer(base uintptr) [10]byte {
	var p [10]byte
	p[0] = byte(idtLimit & 0xff)
	p[1] = byte(idtLimit >> 8)
	b := uint64(base)
	for i := 0; i < 8; i++ {
		p[2+i] = byte(b >> (8 * i))
	}
	return p
}
