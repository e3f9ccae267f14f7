//go:build baremetal && amd64

package hal

import "unsafe"

// BootFramebuffer describes the GOP framebuffer the loader set up.
type BootFramebuffer struct {
	Base              uintptr
	Width             int
	Height            int
	PixelsPerScanLine int
}

// Boot is filled in by the loader hand-off before main runs. A zero Base
// means no display.
var Boot struct {
	Framebuffer BootFramebuffer
}

type metalHAL struct {
	logger serialLogger
	fb     *metalFramebuffer
}

// New loads the interrupt gates and returns the bare-metal HAL.
func New() HAL {
	installIDT()
	h := &metalHAL{logger: newSerialLogger()}
	if bf := Boot.Framebuffer; bf.Base != 0 {
		h.fb = newMetalFramebuffer(bf)
	}
	return h
}

func (h *metalHAL) Logger() Logger         { return h.logger }
func (h *metalHAL) CPU() CPU               { return metalCPU{} }
func (h *metalHAL) Interrupts() Interrupts { return metalInterrupts{} }
func (h *metalHAL) Timer() Timer           { return lapicTimer{} }
func (h *metalHAL) Display() Display       { return metalDisplay{fb: h.fb} }
func (h *metalHAL) Input() Input           { return metalInput{} }

type metalDisplay struct {
	fb *metalFramebuffer
}

func (d metalDisplay) Framebuffer() Framebuffer {
	if d.fb == nil {
		return nil
	}
	return d.fb
}

type metalInput struct{}

func (metalInput) Keyboard() Keyboard { return noKeyboard{} }

// noKeyboard has no events; the xHCI driver is not part of this kernel.
type noKeyboard struct{}

func (noKeyboard) Events() <-chan KeyEvent { return nil }

// metalFramebuffer draws straight into GOP memory.
type metalFramebuffer struct {
	width  int
	height int
	stride int
	buf    []byte
}

func newMetalFramebuffer(bf BootFramebuffer) *metalFramebuffer {
	stride := bf.PixelsPerScanLine * 4
	return &metalFramebuffer{
		width:  bf.Width,
		height: bf.Height,
		stride: stride,
		buf:    unsafe.Slice((*byte)(unsafe.Pointer(bf.Base)), stride*bf.Height),
	}
}

func (f *metalFramebuffer) Width() int          { return f.width }
func (f *metalFramebuffer) Height() int         { return f.height }
func (f *metalFramebuffer) Format() PixelFormat { return PixelFormatBGRX8888 }
func (f *metalFramebuffer) StrideBytes() int    { return f.stride }
func (f *metalFramebuffer) Buffer() []byte      { return f.buf }
func (f *metalFramebuffer) Present() error      { return nil }

func (f *metalFramebuffer) ClearRGB(r, g, b uint8) {
	for i := 0; i+3 < len(f.buf); i += 4 {
		f.buf[i] = b
		f.buf[i+1] = g
		f.buf[i+2] = r
		f.buf[i+3] = 0
	}
}
