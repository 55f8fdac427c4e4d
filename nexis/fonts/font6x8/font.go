// Package font6x8 is the system monospace bitmap font: 6x8 cells with
// printable ASCII coverage.
package font6x8

import (
	"image/color"

	"tinygo.org/x/drivers"
	"tinygo.org/x/tinyfont"
)

// Font implements tinyfont.Fonter for the console renderer. Concurrent
// access is not safe due to internal glyph reuse.
var Font tinyfont.Fonter = &font6x8{}

const (
	// Width and Height are the fixed cell size in pixels.
	Width  = 6
	Height = 8

	firstRune = 0x20
	lastRune  = 0x7e
)

type font6x8 struct {
	g glyph
}

type glyph struct {
	r rune
}

func (g *glyph) Draw(display drivers.Displayer, x, y int16, c color.RGBA) {
	idx := glyphIndex(g.r)
	base := idx * Height
	for row := 0; row < Height; row++ {
		b := glyphData[base+row]
		// Bits are stored as 0b00xxxxxx (bit5 = leftmost pixel).
		for col := 0; col < Width; col++ {
			if b&(0x20>>col) == 0 {
				continue
			}
			display.SetPixel(x+int16(col), y-int16(Height-1-row), c)
		}
	}
}

func (g *glyph) Info() tinyfont.GlyphInfo {
	return tinyfont.GlyphInfo{
		Rune:     g.r,
		Width:    Width,
		Height:   Height,
		XAdvance: Width,
		XOffset:  0,
		YOffset:  -(Height - 1),
	}
}

func (f *font6x8) GetYAdvance() uint8 { return Height }

func (f *font6x8) GetGlyph(r rune) tinyfont.Glypher {
	f.g.r = r
	return &f.g
}

func glyphIndex(r rune) int {
	if r < firstRune || r > lastRune {
		r = '?'
	}
	return int(r) - firstRune
}
