//go:build !baremetal

package hal

import (
	"fmt"
	"os"
	"sync"
)

const (
	hostScreenWidth  = 640
	hostScreenHeight = 400
)

type hostHAL struct {
	logger *hostLogger
	cpu    *hostCPU
	timer  *hostTimer
	fb     *hostFramebuffer
	kbd    *hostKeyboard
}

// New returns a host HAL implementation.
func New() HAL {
	return newHostHAL()
}

func newHostHAL() *hostHAL {
	cpu := newHostCPU()
	return &hostHAL{
		logger: &hostLogger{w: os.Stdout},
		cpu:    cpu,
		timer:  newHostTimer(cpu),
		fb:     newHostFramebuffer(hostScreenWidth, hostScreenHeight),
		kbd:    newHostKeyboard(cpu),
	}
}

func (h *hostHAL) Logger() Logger         { return h.logger }
func (h *hostHAL) CPU() CPU               { return h.cpu }
func (h *hostHAL) Interrupts() Interrupts { return h.cpu }
func (h *hostHAL) Timer() Timer           { return h.timer }
func (h *hostHAL) Display() Display       { return hostDisplay{fb: h.fb} }
func (h *hostHAL) Input() Input           { return hostInput{kbd: h.kbd} }

type hostDisplay struct {
	fb *hostFramebuffer
}

func (d hostDisplay) Framebuffer() Framebuffer { return d.fb }

type hostInput struct {
	kbd *hostKeyboard
}

func (in hostInput) Keyboard() Keyboard { return in.kbd }

type hostLogger struct {
	mu sync.Mutex
	w  *os.File
}

func (l *hostLogger) WriteLineString(s string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintln(l.w, s)
}

func (l *hostLogger) WriteLineBytes(b []byte) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.w.Write(b)
	l.w.Write([]byte{'\n'})
}
