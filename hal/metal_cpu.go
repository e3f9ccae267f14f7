//go:build baremetal && amd64

package hal

const flagIF = 1 << 9

func cli()
func sti()
func stiHlt()
func readFlags() uint64
func writeFlags(flags uint64)
func readCR3() uint64
func outb(port uint16, val uint8)
func inb(port uint16) uint8

type metalCPU struct{}

func (metalCPU) SaveAndDisable() bool {
	enabled := readFlags()&flagIF != 0
	cli()
	return enabled
}

func (metalCPU) Restore(enabled bool) {
	if enabled {
		sti()
	}
}

func (metalCPU) EnableInterrupts()        { sti() }
func (metalCPU) Flags() uint64            { return readFlags() }
func (metalCPU) SetFlags(flags uint64)    { writeFlags(flags) }
func (metalCPU) AddressSpaceRoot() uint64 { return readCR3() }

// Halt enables interrupts and sleeps until the next one arrives.
func (metalCPU) Halt() { stiHlt() }

// Wake is a no-op: any interrupt ends a halt on real hardware.
func (metalCPU) Wake() {}
