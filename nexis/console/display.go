package console

import (
	"image/color"

	"ironveil/hal"
)

// fbDisplay adapts a hal.Framebuffer to the drivers.Displayer surface the
// font renderer draws on, plus the rectangle and scroll primitives the
// console needs.
type fbDisplay struct {
	fb hal.Framebuffer
}

func newFBDisplay(fb hal.Framebuffer) *fbDisplay {
	return &fbDisplay{fb: fb}
}

func (d *fbDisplay) Size() (x, y int16) {
	if d.fb == nil {
		return 0, 0
	}
	return int16(d.fb.Width()), int16(d.fb.Height())
}

func (d *fbDisplay) SetPixel(x, y int16, c color.RGBA) {
	if d.fb == nil || d.fb.Format() != hal.PixelFormatRGB565 {
		return
	}
	buf := d.fb.Buffer()
	if buf == nil {
		return
	}
	ix, iy := int(x), int(y)
	if ix < 0 || ix >= d.fb.Width() || iy < 0 || iy >= d.fb.Height() {
		return
	}
	pixel := rgb565From888(c.R, c.G, c.B)
	off := iy*d.fb.StrideBytes() + ix*2
	if off < 0 || off+1 >= len(buf) {
		return
	}
	buf[off] = byte(pixel)
	buf[off+1] = byte(pixel >> 8)
}

func (d *fbDisplay) Display() error {
	if d.fb == nil {
		return nil
	}
	return d.fb.Present()
}

// scrollUp shifts the pixel content up and clears the exposed bottom band.
func (d *fbDisplay) scrollUp(lines int, bg color.RGBA) {
	if d.fb == nil || d.fb.Format() != hal.PixelFormatRGB565 || lines <= 0 {
		return
	}
	buf := d.fb.Buffer()
	if buf == nil {
		return
	}
	w, h := d.fb.Width(), d.fb.Height()
	if w <= 0 || h <= 0 {
		return
	}
	if lines >= h {
		d.fillRect(0, 0, w, h, bg)
		return
	}

	stride := d.fb.StrideBytes()
	dstLen := (h - lines) * stride
	srcStart := lines * stride
	if dstLen > len(buf) {
		dstLen = len(buf)
	}
	if srcStart > len(buf) {
		d.fillRect(0, 0, w, h, bg)
		return
	}
	srcEnd := srcStart + dstLen
	if srcEnd > len(buf) {
		srcEnd = len(buf)
		dstLen = srcEnd - srcStart
	}
	copy(buf[:dstLen], buf[srcStart:srcEnd])

	d.fillRect(0, h-lines, w, lines, bg)
}

func (d *fbDisplay) fillRect(x, y, width, height int, c color.RGBA) {
	if d.fb == nil || d.fb.Format() != hal.PixelFormatRGB565 {
		return
	}
	buf := d.fb.Buffer()
	if buf == nil {
		return
	}
	w, h := d.fb.Width(), d.fb.Height()
	x0 := clampInt(x, 0, w)
	y0 := clampInt(y, 0, h)
	x1 := clampInt(x+width, 0, w)
	y1 := clampInt(y+height, 0, h)
	if x0 >= x1 || y0 >= y1 {
		return
	}

	pixel := rgb565From888(c.R, c.G, c.B)
	lo := byte(pixel)
	hi := byte(pixel >> 8)
	stride := d.fb.StrideBytes()
	for py := y0; py < y1; py++ {
		row := py * stride
		for px := x0; px < x1; px++ {
			off := row + px*2
			if off < 0 || off+1 >= len(buf) {
				continue
			}
			buf[off] = lo
			buf[off+1] = hi
		}
	}
}

func rgb565From888(r, g, b uint8) uint16 {
	return uint16((uint16(r>>3)&0x1F)<<11 | (uint16(g>>2)&0x3F)<<5 | (uint16(b>>3) & 0x1F))
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
