//go:build baremetal && amd64

package hal

import "fmt"

// Local APIC timer registers.
const (
	lapicLVTTimer     = 0xfee00320
	lapicInitialCount = 0xfee00380
	lapicDivideConfig = 0xfee003e0

	lapicDivideBy1  = 0b1011
	lapicPeriodic   = 0b010 << 16
	lapicMasked     = 1 << 16
	lapicTimerClock = 1_000_000_000 // QEMU's APIC timer input, undivided
)

type lapicTimer struct{}

func (lapicTimer) Start(hz int) error {
	if hz <= 0 || hz > lapicTimerClock {
		return fmt.Errorf("invalid tick rate: %d", hz)
	}
	lapicWrite(lapicDivideConfig, lapicDivideBy1)
	lapicWrite(lapicLVTTimer, lapicPeriodic|uint32(VectorTimer))
	lapicWrite(lapicInitialCount, uint32(lapicTimerClock/hz))
	return nil
}

func (lapicTimer) Stop() {
	lapicWrite(lapicLVTTimer, lapicMasked)
	lapicWrite(lapicInitialCount, 0)
}
