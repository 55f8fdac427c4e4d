package console

import (
	"strings"
	"testing"

	"ironveil/hal"
)

type fakeFB struct {
	w, h     int
	buf      []byte
	presents int
}

func newFakeFB() *fakeFB {
	return &fakeFB{w: PixelWidth, h: PixelHeight, buf: make([]byte, PixelWidth*PixelHeight*2)}
}

func (f *fakeFB) Width() int              { return f.w }
func (f *fakeFB) Height() int             { return f.h }
func (f *fakeFB) Format() hal.PixelFormat { return hal.PixelFormatRGB565 }
func (f *fakeFB) StrideBytes() int        { return f.w * 2 }
func (f *fakeFB) Buffer() []byte          { return f.buf }
func (f *fakeFB) ClearRGB(r, g, b uint8)  {}
func (f *fakeFB) Present() error          { f.presents++; return nil }

func (f *fakeFB) pixel(x, y int) uint16 {
	off := y*f.StrideBytes() + x*2
	return uint16(f.buf[off]) | uint16(f.buf[off+1])<<8
}

func rowText(c *Console, y int) string {
	var sb strings.Builder
	for x := 0; x < Cols; x++ {
		r, _ := c.Cell(x, y)
		sb.WriteRune(r)
	}
	return strings.TrimRight(sb.String(), " ")
}

func TestWriteFillsCells(t *testing.T) {
	c := New(newFakeFB())
	c.WriteString("hello")
	if got := rowText(c, 0); got != "hello" {
		t.Fatalf("expected %q, got %q", "hello", got)
	}
	x, y := c.CursorPos()
	if x != 5 || y != 0 {
		t.Fatalf("expected cursor at 5,0, got %d,%d", x, y)
	}
}

func TestNewlineAndCarriageReturn(t *testing.T) {
	c := New(newFakeFB())
	c.WriteString("ab\ncd")
	if rowText(c, 0) != "ab" || rowText(c, 1) != "cd" {
		t.Fatalf("unexpected rows %q / %q", rowText(c, 0), rowText(c, 1))
	}
	c.WriteString("\rC")
	if rowText(c, 1) != "Cd" {
		t.Fatalf("expected overwrite after CR, got %q", rowText(c, 1))
	}
}

func TestBackspaceMovesLeft(t *testing.T) {
	c := New(newFakeFB())
	c.WriteString("abc\b \b")
	if got := rowText(c, 0); got != "ab" {
		t.Fatalf("expected %q, got %q", "ab", got)
	}
	x, _ := c.CursorPos()
	if x != 2 {
		t.Fatalf("expected cursor at 2, got %d", x)
	}
}

func TestTabAdvancesToStop(t *testing.T) {
	c := New(newFakeFB())
	c.WriteString("ab\tX")
	x, _ := c.CursorPos()
	if x != 9 {
		t.Fatalf("expected cursor past tab stop at 9, got %d", x)
	}
	r, _ := c.Cell(8, 0)
	if r != 'X' {
		t.Fatalf("expected X at column 8, got %q", r)
	}
}

func TestLineWrap(t *testing.T) {
	c := New(newFakeFB())
	c.WriteString(strings.Repeat("x", Cols+3))
	if rowText(c, 1) != "xxx" {
		t.Fatalf("expected wrap to second row, got %q", rowText(c, 1))
	}
}

func TestScrollDropsTopRow(t *testing.T) {
	c := New(newFakeFB())
	for i := 0; i < Rows; i++ {
		c.WriteString("line")
		c.WriteString(string(rune('A' + i%26)))
		if i < Rows-1 {
			c.WriteString("\n")
		}
	}
	// Cursor sits on the last row; one more newline scrolls.
	c.WriteString("\nnew")
	if got := rowText(c, 0); got != "lineB" {
		t.Fatalf("expected first line dropped, got %q", got)
	}
	if got := rowText(c, Rows-1); got != "new" {
		t.Fatalf("expected new text on bottom row, got %q", got)
	}
}

func TestAttrAppliesToNewCells(t *testing.T) {
	c := New(newFakeFB())
	c.WriteString("a")
	c.SetAttr(MakeAttr(Yellow, Blue))
	c.WriteString("b")
	_, attrA := c.Cell(0, 0)
	_, attrB := c.Cell(1, 0)
	if attrA != DefaultAttr {
		t.Fatalf("expected default attr on first cell, got %v", attrA)
	}
	if attrB.Fg() != Yellow || attrB.Bg() != Blue {
		t.Fatalf("expected yellow on blue, got fg=%d bg=%d", attrB.Fg(), attrB.Bg())
	}
}

func TestGlyphPixelsLand(t *testing.T) {
	fb := newFakeFB()
	c := New(fb)
	c.WriteString("A")

	lit := 0
	for y := 0; y < 8; y++ {
		for x := 0; x < 6; x++ {
			if fb.pixel(x, y) != 0 {
				lit++
			}
		}
	}
	if lit == 0 {
		t.Fatal("expected glyph pixels in the first cell")
	}
	// Neighboring cell stays background.
	for y := 0; y < 8; y++ {
		for x := 6; x < 12; x++ {
			if fb.pixel(x, y) != 0 {
				t.Fatalf("unexpected pixel at %d,%d", x, y)
			}
		}
	}
}

func TestScrollMovesPixelsUp(t *testing.T) {
	fb := newFakeFB()
	c := New(fb)
	c.WriteString("A")

	var before [8][6]uint16
	for y := 0; y < 8; y++ {
		for x := 0; x < 6; x++ {
			before[y][x] = fb.pixel(x, y)
		}
	}
	for i := 0; i < Rows; i++ {
		c.WriteString("\n")
	}
	// One full scroll: the glyph that was in row 0 cells is gone, and the
	// pixel block that was at text row 1 now sits at text row 0.
	for y := 0; y < 8; y++ {
		for x := 0; x < 6; x++ {
			if got := fb.pixel(x, y); got == before[y][x] && before[y][x] != 0 {
				t.Fatalf("expected pixel %d,%d to change after scroll", x, y)
			}
		}
	}
}

func TestClearResets(t *testing.T) {
	fb := newFakeFB()
	c := New(fb)
	c.WriteString("junk\nmore")
	c.Clear()
	if rowText(c, 0) != "" || rowText(c, 1) != "" {
		t.Fatal("expected empty grid after clear")
	}
	x, y := c.CursorPos()
	if x != 0 || y != 0 {
		t.Fatalf("expected cursor homed, got %d,%d", x, y)
	}
	for i := 0; i < len(fb.buf); i++ {
		if fb.buf[i] != 0 {
			t.Fatalf("expected black framebuffer after clear, byte %d = %#x", i, fb.buf[i])
		}
	}
}

func TestFlushPaintsCursorAndPresents(t *testing.T) {
	fb := newFakeFB()
	c := New(fb)
	c.WriteString("x")
	if err := c.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}
	if fb.presents != 1 {
		t.Fatalf("expected one present, got %d", fb.presents)
	}
	// Cursor cell (1,0) is painted as a solid block of the foreground.
	if fb.pixel(6, 0) == 0 {
		t.Fatal("expected inverted cursor block")
	}
	// Writing moves the cursor; the old cell is restored on next flush.
	c.WriteString("y")
	c.Flush()
	lit := false
	for y := 0; y < 8 && !lit; y++ {
		for x := 12; x < 18; x++ {
			if fb.pixel(x, y) != 0 {
				lit = true
				break
			}
		}
	}
	if !lit {
		t.Fatal("expected cursor to follow writes")
	}
}

func TestNilFramebufferIsSafe(t *testing.T) {
	c := New(nil)
	c.WriteString("headless\n")
	c.Clear()
	c.WriteString("still fine")
	if err := c.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}
	if got := rowText(c, 0); got != "still fine" {
		t.Fatalf("expected grid to work without pixels, got %q", got)
	}
}
