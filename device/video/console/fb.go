// Package console implements the text console: it owns the pixel surface,
// the cursor and the drawing colors, and renders characters through a bitmap
// font, wrapping lines and scrolling the frame when the cursor runs off the
// visible area.
package console

import (
	"fmt"
	"io"

	"goros/device/video/console/font"
	"goros/kernel"
)

// FbConsole renders text onto a raw pixel surface. Pixel channels are
// written in (Blue, Green, Red, Alpha) order with alpha, when present,
// always fully opaque. Every pixel write is bounds-checked against the
// backing buffer; a computed offset that falls outside it is silently
// dropped.
type FbConsole struct {
	surface Surface
	font    *font.Font
	scale   uint32

	// Scaled glyph dimensions in pixels.
	glyphWidth  uint32
	glyphHeight uint32

	cursorX uint32
	cursorY uint32
	fg, bg  RGB

	// tap mirrors every character accepted by WriteChar. It is used by
	// host frontends that cannot present the pixel surface directly.
	tap io.Writer

	scrolls uint64
}

// NewFbConsole returns a console drawing on the supplied surface with the
// given font at an integer scale factor (minimum 1). The console starts
// with white text on a black background.
func NewFbConsole(surface Surface, f *font.Font, scale uint32) *FbConsole {
	if scale == 0 {
		scale = 1
	}
	return &FbConsole{
		surface:     surface,
		font:        f,
		scale:       scale,
		glyphWidth:  f.GlyphWidth * scale,
		glyphHeight: f.GlyphHeight * scale,
		fg:          White,
		bg:          Black,
	}
}

// SetFont selects a bitmap font to be used by the console.
func (cons *FbConsole) SetFont(f *font.Font) {
	if f == nil {
		return
	}
	cons.font = f
	cons.glyphWidth = f.GlyphWidth * cons.scale
	cons.glyphHeight = f.GlyphHeight * cons.scale
}

// Dimensions returns the console width and height in the specified
// dimension.
func (cons *FbConsole) Dimensions(dim Dimension) (uint32, uint32) {
	switch dim {
	case Characters:
		return cons.surface.Width / cons.glyphWidth, cons.surface.Height / cons.glyphHeight
	default:
		return cons.surface.Width, cons.surface.Height
	}
}

// SetColors selects the foreground and background colors used by subsequent
// writes.
func (cons *FbConsole) SetColors(fg, bg RGB) {
	cons.fg, cons.bg = fg, bg
}

// Colors returns the current foreground and background colors.
func (cons *FbConsole) Colors() (RGB, RGB) {
	return cons.fg, cons.bg
}

// CursorPosition returns the cursor position in pixels.
func (cons *FbConsole) CursorPosition() (uint32, uint32) {
	return cons.cursorX, cons.cursorY
}

// Surface returns the surface the console draws on.
func (cons *FbConsole) Surface() Surface {
	return cons.surface
}

// SetTap installs a writer that mirrors every character written to the
// console. Passing nil removes the tap.
func (cons *FbConsole) SetTap(w io.Writer) {
	cons.tap = w
}

// Clear fills the entire surface with the background color and resets the
// cursor to the origin.
func (cons *FbConsole) Clear() {
	for y := uint32(0); y < cons.surface.Height; y++ {
		for x := uint32(0); x < cons.surface.Width; x++ {
			cons.writePixel(x, y, cons.bg)
		}
	}
	cons.cursorX, cons.cursorY = 0, 0
}

// WriteChar renders one character at the cursor. Newline resets x and
// advances y by one glyph row, scrolling if the new row would not fully fit;
// carriage return resets x only; any other character is blitted at the
// cursor and advances it, wrapping via an implicit newline when the next
// glyph would overflow the row.
func (cons *FbConsole) WriteChar(ch byte) {
	if cons.tap != nil {
		cons.tap.Write([]byte{ch})
	}

	switch ch {
	case '\n':
		cons.newline()
	case '\r':
		cons.cursorX = 0
	default:
		if cons.cursorX+cons.glyphWidth > cons.surface.Width {
			cons.newline()
		}
		cons.drawGlyph(ch, cons.cursorX, cons.cursorY)
		cons.cursorX += cons.glyphWidth
	}
}

// WriteString folds WriteChar over s.
func (cons *FbConsole) WriteString(s string) {
	for i := 0; i < len(s); i++ {
		cons.WriteChar(s[i])
	}
}

// Write implements io.Writer so formatted output can target the console.
func (cons *FbConsole) Write(data []byte) (int, error) {
	for _, b := range data {
		cons.WriteChar(b)
	}
	return len(data), nil
}

// Backspace steps the cursor back one cell and blanks it. It does nothing
// when the cursor sits at the start of a row.
func (cons *FbConsole) Backspace() {
	if cons.cursorX < cons.glyphWidth {
		return
	}
	cons.cursorX -= cons.glyphWidth
	cons.drawGlyph(' ', cons.cursorX, cons.cursorY)
}

// newline resets x to the row start and advances y by one glyph row,
// scrolling when the new row would not fully fit on the surface.
func (cons *FbConsole) newline() {
	cons.cursorX = 0
	cons.cursorY += cons.glyphHeight

	if cons.cursorY+cons.glyphHeight > cons.surface.Height {
		cons.scroll()
	}
}

// scroll moves every pixel row up by one glyph row, clears the newly exposed
// bottom rows to the background color and pins the cursor to the last fully
// visible row.
func (cons *FbConsole) scroll() {
	var (
		rowBytes   = cons.surface.Width * cons.surface.BytesPerPixel
		scrollRows = cons.glyphHeight
		buf        = cons.surface.Buffer
	)

	for y := uint32(0); y < cons.surface.Height-scrollRows; y++ {
		dst := y * cons.surface.Pitch
		src := (y + scrollRows) * cons.surface.Pitch
		if src+rowBytes > uint32(len(buf)) || dst+rowBytes > uint32(len(buf)) {
			break
		}
		copy(buf[dst:dst+rowBytes], buf[src:src+rowBytes])
	}

	for y := cons.surface.Height - scrollRows; y < cons.surface.Height; y++ {
		for x := uint32(0); x < cons.surface.Width; x++ {
			cons.writePixel(x, y, cons.bg)
		}
	}

	cons.cursorY = cons.surface.Height - scrollRows
	cons.scrolls++
}

// drawGlyph blits ch at pixel position (startX, startY). Set bits are drawn
// in the foreground color, clear bits in the background color; there is no
// transparency.
func (cons *FbConsole) drawGlyph(ch byte, startX, startY uint32) {
	rows := cons.font.Glyph(ch)

	for row, rowData := range rows {
		for col := uint32(0); col < cons.font.GlyphWidth; col++ {
			color := cons.bg
			if rowData&(1<<col) != 0 {
				color = cons.fg
			}

			for dy := uint32(0); dy < cons.scale; dy++ {
				for dx := uint32(0); dx < cons.scale; dx++ {
					cons.writePixel(startX+col*cons.scale+dx, startY+uint32(row)*cons.scale+dy, color)
				}
			}
		}
	}
}

// writePixel writes one pixel in BGR(A) channel order. Out-of-bounds
// coordinates and offsets are dropped without touching the buffer.
func (cons *FbConsole) writePixel(x, y uint32, color RGB) {
	if x >= cons.surface.Width || y >= cons.surface.Height {
		return
	}

	bpp := cons.surface.BytesPerPixel
	offset := y*cons.surface.Pitch + x*bpp
	if offset+bpp > uint32(len(cons.surface.Buffer)) {
		return
	}

	buf := cons.surface.Buffer
	buf[offset] = color.B
	if bpp > 1 {
		buf[offset+1] = color.G
	}
	if bpp > 2 {
		buf[offset+2] = color.R
	}
	if bpp > 3 {
		buf[offset+3] = 0xff
	}
}

// DriverName returns the name of this driver.
func (cons *FbConsole) DriverName() string {
	return "video/fb_console"
}

// DriverVersion returns the version of this driver.
func (cons *FbConsole) DriverVersion() (uint16, uint16, uint16) {
	return 0, 1, 0
}

// DriverInit initializes this driver.
func (cons *FbConsole) DriverInit(w io.Writer) *kernel.Error {
	cons.Clear()
	cols, rows := cons.Dimensions(Characters)
	fmt.Fprintf(w, "%dx%d surface (%d bytes/pixel), %dx%d characters\n",
		cons.surface.Width, cons.surface.Height, cons.surface.BytesPerPixel, cols, rows)
	return nil
}
