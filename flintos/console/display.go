package console

import (
	"errors"
	"image/color"

	"flint/hal"

	"tinygo.org/x/drivers"
)

var ErrUnsupportedRotation = errors.New("console: only Rotation0 is supported")

// fbDisplay is a drivers.Displayer over a hal.Framebuffer with a hardware
// style vertical scroll: pixels are drawn into an off-screen image and
// Display shows it starting at the scroll line, wrapping at the bottom.
type fbDisplay struct {
	fb     hal.Framebuffer
	width  int
	height int
	bpp    int
	mem    []byte
	scroll int
}

func newFBDisplay(fb hal.Framebuffer) *fbDisplay {
	bpp := fb.Format().BytesPerPixel()
	return &fbDisplay{
		fb:     fb,
		width:  fb.Width(),
		height: fb.Height(),
		bpp:    bpp,
		mem:    make([]byte, fb.Width()*fb.Height()*bpp),
	}
}

func (d *fbDisplay) Size() (x, y int16) {
	return int16(d.width), int16(d.height)
}

func (d *fbDisplay) SetPixel(x, y int16, c color.RGBA) {
	ix, iy := int(x), int(y)
	if ix < 0 || ix >= d.width || iy < 0 || iy >= d.height {
		return
	}
	off := (iy*d.width + ix) * d.bpp
	d.fb.Format().Put(d.mem[off:], c.R, c.G, c.B)
}

func (d *fbDisplay) FillRectangle(x, y, width, height int16, c color.RGBA) error {
	x0, y0 := max(int(x), 0), max(int(y), 0)
	x1, y1 := min(int(x)+int(width), d.width), min(int(y)+int(height), d.height)
	if x0 >= x1 || y0 >= y1 {
		return nil
	}

	var px [4]byte
	d.fb.Format().Put(px[:], c.R, c.G, c.B)
	for iy := y0; iy < y1; iy++ {
		row := d.mem[(iy*d.width+x0)*d.bpp : (iy*d.width+x1)*d.bpp]
		for i := 0; i < len(row); i += d.bpp {
			copy(row[i:i+d.bpp], px[:d.bpp])
		}
	}
	return nil
}

// SetScroll makes line the top row shown on screen.
func (d *fbDisplay) SetScroll(line int16) {
	if d.height == 0 {
		return
	}
	d.scroll = ((int(line) % d.height) + d.height) % d.height
}

func (d *fbDisplay) SetRotation(rotation drivers.Rotation) error {
	if rotation != drivers.Rotation0 {
		return ErrUnsupportedRotation
	}
	return nil
}

// Display copies the scrolled image to the framebuffer and presents it.
func (d *fbDisplay) Display() error {
	buf := d.fb.Buffer()
	if buf == nil {
		return nil
	}
	stride := d.fb.StrideBytes()
	rowBytes := d.width * d.bpp
	for sy := 0; sy < d.height; sy++ {
		my := (sy + d.scroll) % d.height
		dst := sy * stride
		if dst+rowBytes > len(buf) {
			break
		}
		copy(buf[dst:dst+rowBytes], d.mem[my*rowBytes:(my+1)*rowBytes])
	}
	return d.fb.Present()
}

func (d *fbDisplay) clear(c color.RGBA) {
	d.scroll = 0
	_ = d.FillRectangle(0, 0, int16(d.width), int16(d.height), c)
}
