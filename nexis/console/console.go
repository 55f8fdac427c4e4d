// Package console renders an 80x25 text grid with the classic 16-color
// attribute model onto the HAL framebuffer.
//
// Writes update the cell grid and paint glyphs immediately; Flush draws the
// cursor and presents the frame. Write never blocks and never fails, so the
// kernel can log from any point in the step loop.
package console

import (
	"image/color"

	"tinygo.org/x/tinyfont"

	"ironveil/hal"
	"ironveil/nexis/fonts/font6x8"
)

const (
	// Cols and Rows fix the text grid size.
	Cols = 80
	Rows = 25

	cellW = font6x8.Width
	cellH = font6x8.Height

	tabStop = 8
)

// PixelWidth and PixelHeight are the framebuffer dimensions the grid fills.
const (
	PixelWidth  = Cols * cellW
	PixelHeight = Rows * cellH
)

// Color is one of the 16 text-mode colors.
type Color uint8

const (
	Black Color = iota
	Blue
	Green
	Cyan
	Red
	Magenta
	Brown
	LightGray
	DarkGray
	LightBlue
	LightGreen
	LightCyan
	LightRed
	Pink
	Yellow
	White
)

var palette = [16]color.RGBA{
	{0x00, 0x00, 0x00, 0xff}, // black
	{0x00, 0x00, 0xaa, 0xff}, // blue
	{0x00, 0xaa, 0x00, 0xff}, // green
	{0x00, 0xaa, 0xaa, 0xff}, // cyan
	{0xaa, 0x00, 0x00, 0xff}, // red
	{0xaa, 0x00, 0xaa, 0xff}, // magenta
	{0xaa, 0x55, 0x00, 0xff}, // brown
	{0xaa, 0xaa, 0xaa, 0xff}, // light gray
	{0x55, 0x55, 0x55, 0xff}, // dark gray
	{0x55, 0x55, 0xff, 0xff}, // light blue
	{0x55, 0xff, 0x55, 0xff}, // light green
	{0x55, 0xff, 0xff, 0xff}, // light cyan
	{0xff, 0x55, 0x55, 0xff}, // light red
	{0xff, 0x55, 0xff, 0xff}, // pink
	{0xff, 0xff, 0x55, 0xff}, // yellow
	{0xff, 0xff, 0xff, 0xff}, // white
}

func (c Color) rgba() color.RGBA { return palette[c&0x0f] }

// Attr packs foreground and background color into one byte, foreground in
// the low nibble.
type Attr uint8

// MakeAttr combines a foreground and background color.
func MakeAttr(fg, bg Color) Attr { return Attr(uint8(fg)&0x0f | uint8(bg)<<4) }

func (a Attr) Fg() Color { return Color(a & 0x0f) }
func (a Attr) Bg() Color { return Color(a >> 4) }

// DefaultAttr is light gray on black.
var DefaultAttr = MakeAttr(LightGray, Black)

type cell struct {
	r    rune
	attr Attr
}

// Console is the kernel text output device.
type Console struct {
	d     *fbDisplay
	cells [Rows][Cols]cell
	curX  int
	curY  int
	attr  Attr

	cursorShown bool
	cursorX     int
	cursorY     int
}

// New builds a console over fb. A nil framebuffer keeps the grid alive
// with no rendering, which is what headless mode wants.
func New(fb hal.Framebuffer) *Console {
	c := &Console{d: newFBDisplay(fb), attr: DefaultAttr}
	for y := 0; y < Rows; y++ {
		for x := 0; x < Cols; x++ {
			c.cells[y][x] = cell{r: ' ', attr: c.attr}
		}
	}
	c.d.fillRect(0, 0, PixelWidth, PixelHeight, c.attr.Bg().rgba())
	return c
}

// Attr returns the current write attribute.
func (c *Console) Attr() Attr { return c.attr }

// SetAttr changes the attribute for subsequent writes.
func (c *Console) SetAttr(a Attr) { c.attr = a }

// CursorPos returns the cell the next rune lands in.
func (c *Console) CursorPos() (x, y int) { return c.curX, c.curY }

// Cell returns the rune and attribute stored at a grid position.
func (c *Console) Cell(x, y int) (rune, Attr) {
	if x < 0 || x >= Cols || y < 0 || y >= Rows {
		return 0, 0
	}
	return c.cells[y][x].r, c.cells[y][x].attr
}

// Write renders p. It implements io.Writer and always succeeds.
func (c *Console) Write(p []byte) (int, error) {
	for _, r := range string(p) {
		c.putRune(r)
	}
	return len(p), nil
}

// WriteString renders s.
func (c *Console) WriteString(s string) {
	for _, r := range s {
		c.putRune(r)
	}
}

func (c *Console) putRune(r rune) {
	switch r {
	case '\n':
		c.newline()
	case '\r':
		c.curX = 0
	case '\b':
		if c.curX > 0 {
			c.curX--
		}
	case '\t':
		next := (c.curX/tabStop + 1) * tabStop
		for c.curX < next && c.curX < Cols {
			c.setCell(c.curX, c.curY, ' ')
			c.curX++
		}
		if c.curX >= Cols {
			c.newline()
		}
	default:
		if r < 0x20 {
			return
		}
		c.setCell(c.curX, c.curY, r)
		c.curX++
		if c.curX >= Cols {
			c.newline()
		}
	}
}

func (c *Console) setCell(x, y int, r rune) {
	c.cells[y][x] = cell{r: r, attr: c.attr}
	c.drawCell(x, y)
}

func (c *Console) drawCell(x, y int) {
	cl := c.cells[y][x]
	c.paintCell(x, y, cl.r, cl.attr.Fg().rgba(), cl.attr.Bg().rgba())
}

func (c *Console) paintCell(x, y int, r rune, fg, bg color.RGBA) {
	px := x * cellW
	py := y * cellH
	c.d.fillRect(px, py, cellW, cellH, bg)
	if r != ' ' {
		tinyfont.DrawChar(c.d, font6x8.Font, int16(px), int16(py+cellH-1), r, fg)
	}
}

func (c *Console) newline() {
	c.curX = 0
	if c.curY < Rows-1 {
		c.curY++
		return
	}
	c.scroll()
}

func (c *Console) scroll() {
	copy(c.cells[0:], c.cells[1:])
	for x := 0; x < Cols; x++ {
		c.cells[Rows-1][x] = cell{r: ' ', attr: c.attr}
	}
	if c.cursorShown && c.cursorY > 0 {
		c.cursorY--
	}
	c.d.scrollUp(cellH, c.attr.Bg().rgba())
}

// Clear empties the grid and homes the cursor.
func (c *Console) Clear() {
	for y := 0; y < Rows; y++ {
		for x := 0; x < Cols; x++ {
			c.cells[y][x] = cell{r: ' ', attr: c.attr}
		}
	}
	c.curX, c.curY = 0, 0
	c.cursorShown = false
	c.d.fillRect(0, 0, PixelWidth, PixelHeight, c.attr.Bg().rgba())
}

// Flush draws the cursor as an inverted cell and presents the frame.
func (c *Console) Flush() error {
	if c.cursorShown && (c.cursorX != c.curX || c.cursorY != c.curY) {
		c.drawCell(c.cursorX, c.cursorY)
	}
	cl := c.cells[c.curY][c.curX]
	c.paintCell(c.curX, c.curY, cl.r, cl.attr.Bg().rgba(), cl.attr.Fg().rgba())
	c.cursorShown = true
	c.cursorX, c.cursorY = c.curX, c.curY
	return c.d.Display()
}
