package console

import "goros/device/video/console/font"

// Dimension defines the types of dimensions that can be queried off a
// console device.
type Dimension uint8

const (
	// Characters describes the console size in character cells given the
	// active font and scale.
	Characters Dimension = iota

	// Pixels describes the console size in pixels.
	Pixels
)

// RGB is a full-color pixel value. The surface stores channels in BGR(A)
// order; RGB is the in-memory representation drivers and callers use.
type RGB struct {
	R, G, B uint8
}

// The colors used by the console core.
var (
	Black  = RGB{0, 0, 0}
	White  = RGB{255, 255, 255}
	Red    = RGB{255, 0, 0}
	Green  = RGB{0, 255, 0}
	Blue   = RGB{0, 0, 255}
	Yellow = RGB{255, 255, 0}
	Cyan   = RGB{0, 255, 255}
)

// Surface describes the mutable pixel buffer supplied by the display
// collaborator together with its geometry. Pitch is the byte stride of one
// scanline; it can exceed Width*BytesPerPixel.
type Surface struct {
	Width         uint32
	Height        uint32
	Pitch         uint32
	BytesPerPixel uint32
	Buffer        []byte
}

// NewSurface allocates a surface with a packed pitch.
func NewSurface(width, height, bytesPerPixel uint32) Surface {
	pitch := width * bytesPerPixel
	return Surface{
		Width:         width,
		Height:        height,
		Pitch:         pitch,
		BytesPerPixel: bytesPerPixel,
		Buffer:        make([]byte, pitch*height),
	}
}

// Device is the interface the shell and the interrupt handlers draw through.
type Device interface {
	// Clear fills the surface with the background color and resets the
	// cursor to the origin.
	Clear()

	// WriteChar renders one character at the cursor, interpreting \n and
	// \r, wrapping lines and scrolling as needed.
	WriteChar(ch byte)

	// WriteString folds WriteChar over s.
	WriteString(s string)

	// Backspace steps the cursor back one cell and blanks it. It does
	// nothing when the cursor sits at the start of a row.
	Backspace()

	// SetColors selects the foreground and background colors used by
	// subsequent writes.
	SetColors(fg, bg RGB)

	// Colors returns the current foreground and background colors.
	Colors() (fg, bg RGB)

	// CursorPosition returns the cursor position in pixels.
	CursorPosition() (x, y uint32)

	// Dimensions returns the console size in the requested dimension.
	Dimensions(Dimension) (uint32, uint32)
}

// FontSetter is implemented by console devices that support loadable bitmap
// fonts.
type FontSetter interface {
	SetFont(*font.Font)
}
