package hal

// Logger writes newline-delimited log lines.
type Logger interface {
	WriteLineString(s string)
	WriteLineBytes(b []byte)
}

// Vector is an interrupt vector number.
type Vector uint8

const (
	VectorXHCI     Vector = 0x40
	VectorTimer    Vector = 0x41
	VectorKeyboard Vector = 0x42
)

// CPU is the part of the processor the kernel drives directly.
type CPU interface {
	// SaveAndDisable masks maskable interrupts and reports whether they
	// were enabled.
	SaveAndDisable() bool
	// Restore unmasks interrupts if enabled is true.
	Restore(enabled bool)
	EnableInterrupts()

	Flags() uint64
	SetFlags(flags uint64)
	AddressSpaceRoot() uint64

	// Halt waits for the next interrupt.
	Halt()
	// Wake makes a pending or future Halt return.
	Wake()
}

// Interrupts routes vectors to handlers. Handlers run with interrupts
// masked; end-of-interrupt is signalled by the platform after they return.
type Interrupts interface {
	Handle(v Vector, fn func())
}

// Timer is the periodic tick source. Each tick raises VectorTimer.
type Timer interface {
	Start(hz int) error
	Stop()
}

// PixelFormat defines the framebuffer pixel encoding.
type PixelFormat uint8

const (
	// PixelFormatRGB565 is 16bpp: rrrrrggggggbbbbb.
	PixelFormatRGB565 PixelFormat = iota + 1
	// PixelFormatBGRX8888 is 32bpp, blue in the lowest byte.
	PixelFormatBGRX8888
)

// BytesPerPixel returns the pixel size of f.
func (f PixelFormat) BytesPerPixel() int {
	if f == PixelFormatBGRX8888 {
		return 4
	}
	return 2
}

// Framebuffer is a simple pixel buffer plus a "present" hook.
type Framebuffer interface {
	Width() int
	Height() int
	Format() PixelFormat
	StrideBytes() int
	Buffer() []byte
	ClearRGB(r, g, b uint8)
	Present() error
}

// KeyCode is a minimal key identifier.
type KeyCode uint16

const (
	KeyUnknown KeyCode = iota
	KeyUp
	KeyDown
	KeyLeft
	KeyRight
	KeyEnter
	KeyEscape
	KeyBackspace
	KeyTab
)

func (k KeyCode) String() string {
	switch k {
	case KeyUp:
		return "up"
	case KeyDown:
		return "down"
	case KeyLeft:
		return "left"
	case KeyRight:
		return "right"
	case KeyEnter:
		return "enter"
	case KeyEscape:
		return "escape"
	case KeyBackspace:
		return "backspace"
	case KeyTab:
		return "tab"
	default:
		return "unknown"
	}
}

// KeyEvent is a keyboard event.
type KeyEvent struct {
	Code  KeyCode
	Press bool
	Rune  rune
}

// Keyboard provides key events. Every event sent raises VectorKeyboard.
type Keyboard interface {
	Events() <-chan KeyEvent
}

// Display provides access to the framebuffer (if available).
type Display interface {
	Framebuffer() Framebuffer
}

// Input provides access to input devices (if available).
type Input interface {
	Keyboard() Keyboard
}

// HAL provides the only contact point between the kernel and the machine.
type HAL interface {
	Logger() Logger
	CPU() CPU
	Interrupts() Interrupts
	Timer() Timer
	Display() Display
	Input() Input
}
