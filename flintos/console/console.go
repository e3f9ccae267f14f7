// Package console is a text terminal on the framebuffer. It is a klog sink,
// so kernel log lines appear on screen as well as on the serial port.
package console

import (
	"errors"
	"image/color"

	"flint/hal"

	"tinygo.org/x/tinyfont"
	"tinygo.org/x/tinyfont/proggy"
	"tinygo.org/x/tinyterm"
)

var ErrNoFramebuffer = errors.New("console: no framebuffer")

const (
	fontHeight = 10
	fontOffset = 6
)

// Console renders lines through a VT100 terminal.
type Console struct {
	disp *fbDisplay
	term *tinyterm.Terminal
}

// New returns a console covering all of fb.
func New(fb hal.Framebuffer) (*Console, error) {
	if fb == nil || fb.Width() <= 0 || fb.Height() <= 0 {
		return nil, ErrNoFramebuffer
	}
	d := newFBDisplay(fb)
	t := tinyterm.NewTerminal(d)
	t.Configure(&tinyterm.Config{
		Font:       &proggy.TinySZ8pt7b,
		FontHeight: fontHeight,
		FontOffset: fontOffset,
	})
	return &Console{disp: d, term: t}, nil
}

// Write sends raw bytes, escape sequences included, to the terminal.
func (c *Console) Write(p []byte) (int, error) {
	n, err := c.term.Write(p)
	if err != nil {
		return n, err
	}
	return n, c.disp.Display()
}

func (c *Console) WriteLineString(s string) {
	c.WriteLineBytes([]byte(s))
}

func (c *Console) WriteLineBytes(b []byte) {
	_, _ = c.term.Write(b)
	_, _ = c.term.Write([]byte("\r\n"))
	_ = c.disp.Display()
}

// Panic replaces the terminal with lines in red on white. The console is
// not usable afterwards.
func (c *Console) Panic(lines []string) {
	bg := color.RGBA{R: 255, G: 255, B: 255, A: 255}
	fg := color.RGBA{R: 200, G: 0, B: 0, A: 255}

	c.disp.clear(bg)
	_, h := c.disp.Size()
	y := int16(fontHeight)
	for _, line := range lines {
		if y > h {
			break
		}
		tinyfont.WriteLine(c.disp, &proggy.TinySZ8pt7b, 2, y, line, fg)
		y += fontHeight
	}
	_ = c.disp.Display()
}
