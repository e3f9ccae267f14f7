package event

import "fmt"

// Kind tags an Event.
type Kind uint8

const (
	// KindInvalid is the zero value. It must never reach the consumer.
	KindInvalid Kind = iota
	KindDeviceInterrupt
	KindTimeout
)

func (k Kind) String() string {
	switch k {
	case KindInvalid:
		return "invalid"
	case KindDeviceInterrupt:
		return "device"
	case KindTimeout:
		return "timeout"
	default:
		return "unknown"
	}
}

// Device identifies the source of a device interrupt.
type Device uint8

const (
	DeviceNone Device = iota
	DeviceKeyboard
	DeviceXHCI
)

func (d Device) String() string {
	switch d {
	case DeviceNone:
		return "none"
	case DeviceKeyboard:
		return "keyboard"
	case DeviceXHCI:
		return "xhci"
	default:
		return fmt.Sprintf("device(%d)", uint8(d))
	}
}

// Event is a kernel-level notification. It is a value type and is never
// mutated after construction.
type Event struct {
	Kind   Kind
	Device Device

	// Deadline and Payload are set for KindTimeout. Payload is opaque and
	// echoes whatever the timer was armed with.
	Deadline uint64
	Payload  int64
}

// DeviceInterrupt returns the event a device's interrupt handler posts.
func DeviceInterrupt(d Device) Event {
	return Event{Kind: KindDeviceInterrupt, Device: d}
}

// Timeout returns the event posted when a timer expires.
func Timeout(deadline uint64, payload int64) Event {
	return Event{Kind: KindTimeout, Deadline: deadline, Payload: payload}
}

// Valid reports whether e is anything other than the invalid sentinel.
func (e Event) Valid() bool { return e.Kind != KindInvalid }

func (e Event) String() string {
	switch e.Kind {
	case KindDeviceInterrupt:
		return "device(" + e.Device.String() + ")"
	case KindTimeout:
		return fmt.Sprintf("timeout(d=%d,p=%d)", e.Deadline, e.Payload)
	default:
		return e.Kind.String()
	}
}
