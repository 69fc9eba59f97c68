package console

import (
	"bytes"
	"testing"

	"goros/device/video/console/font"
)

func newTestConsole(width, height, bpp uint32) *FbConsole {
	return NewFbConsole(NewSurface(width, height, bpp), font.Font8x8, 1)
}

func TestFbConsoleDimensions(t *testing.T) {
	cons := newTestConsole(320, 200, 4)

	if w, h := cons.Dimensions(Pixels); w != 320 || h != 200 {
		t.Fatalf("expected pixel dimensions to be 320x200; got %dx%d", w, h)
	}

	if w, h := cons.Dimensions(Characters); w != 40 || h != 25 {
		t.Fatalf("expected character dimensions to be 40x25; got %dx%d", w, h)
	}
}

func TestFbConsolePixelFormat(t *testing.T) {
	specs := []struct {
		bpp      uint32
		expBytes []byte
	}{
		{4, []byte{30, 20, 10, 0xff}},
		{3, []byte{30, 20, 10}},
	}

	for specIndex, spec := range specs {
		cons := newTestConsole(16, 16, spec.bpp)
		cons.writePixel(0, 0, RGB{R: 10, G: 20, B: 30})

		got := cons.surface.Buffer[0:spec.bpp]
		if !bytes.Equal(got, spec.expBytes) {
			t.Errorf("[spec %d] expected pixel bytes %v; got %v", specIndex, spec.expBytes, got)
		}
	}
}

func TestFbConsoleOutOfBoundsWritesAreDropped(t *testing.T) {
	surface := Surface{
		Width:         10,
		Height:        10,
		Pitch:         40,
		BytesPerPixel: 4,
		// Short buffer; only the first 5 rows are backed by memory.
		Buffer: make([]byte, 40*5),
	}
	cons := NewFbConsole(surface, font.Font8x8, 1)

	cons.writePixel(0, 6, White)
	cons.writePixel(20, 0, White)
	cons.writePixel(0, 20, White)

	for i, b := range surface.Buffer {
		if b != 0 {
			t.Fatalf("expected buffer to remain untouched; byte %d is %#x", i, b)
		}
	}
}

func TestFbConsoleLineWrap(t *testing.T) {
	// 4 character columns; the 5th character wraps onto the next row.
	cons := newTestConsole(32, 24, 4)
	cons.WriteString("ABCDE")

	if x, y := cons.CursorPosition(); x != 8 || y != 8 {
		t.Fatalf("expected cursor at (8, 8) after wrapping; got (%d, %d)", x, y)
	}
}

func TestFbConsoleScroll(t *testing.T) {
	// 3 character rows; the cursor can rest at y = 0, 8 or 16.
	cons := newTestConsole(32, 24, 4)

	cons.WriteChar('\n')
	cons.WriteChar('\n')
	if cons.scrolls != 0 {
		t.Fatalf("expected no scroll while rows remain; got %d", cons.scrolls)
	}

	cons.WriteChar('\n')
	if cons.scrolls != 1 {
		t.Fatalf("expected exactly one scroll; got %d", cons.scrolls)
	}
	if _, y := cons.CursorPosition(); y != 16 {
		t.Fatalf("expected cursor pinned to the last row (y=16); got y=%d", y)
	}

	cons.WriteChar('\n')
	if cons.scrolls != 2 {
		t.Fatalf("expected a second scroll; got %d", cons.scrolls)
	}
	if _, y := cons.CursorPosition(); y != 16 {
		t.Fatalf("expected cursor to stay pinned at y=16; got y=%d", y)
	}
}

func TestFbConsoleScrollMovesContent(t *testing.T) {
	cons := newTestConsole(32, 24, 4)

	// Mark the first pixel of the second glyph row and scroll once.
	cons.writePixel(0, 8, White)
	cons.scroll()

	if got := cons.surface.Buffer[0]; got != 0xff {
		t.Errorf("expected marked pixel to move to the top row; got byte %#x", got)
	}

	// The exposed bottom rows must be cleared to the background color.
	bottom := 16 * cons.surface.Pitch
	for i := bottom; uint32(i) < 24*cons.surface.Pitch; i += 4 {
		if cons.surface.Buffer[i] != 0 || cons.surface.Buffer[i+1] != 0 || cons.surface.Buffer[i+2] != 0 {
			t.Fatalf("expected cleared bottom rows; found colored pixel at offset %d", i)
		}
	}
}

func TestFbConsoleBackspace(t *testing.T) {
	cons := newTestConsole(32, 24, 4)

	// Backspace at the start of a row is a no-op.
	cons.Backspace()
	if x, y := cons.CursorPosition(); x != 0 || y != 0 {
		t.Fatalf("expected backspace at row start to leave cursor at (0, 0); got (%d, %d)", x, y)
	}

	cons.WriteChar('X')
	cons.Backspace()

	if x, _ := cons.CursorPosition(); x != 0 {
		t.Fatalf("expected cursor to step back to x=0; got x=%d", x)
	}

	// The erased cell must contain only background pixels.
	for y := uint32(0); y < 8; y++ {
		for x := uint32(0); x < 8; x++ {
			offset := y*cons.surface.Pitch + x*4
			if cons.surface.Buffer[offset] != 0 || cons.surface.Buffer[offset+1] != 0 || cons.surface.Buffer[offset+2] != 0 {
				t.Fatalf("expected erased cell; found colored pixel at (%d, %d)", x, y)
			}
		}
	}
}

func TestFbConsoleClear(t *testing.T) {
	cons := newTestConsole(32, 24, 4)
	cons.SetColors(White, RGB{R: 1, G: 2, B: 3})
	cons.WriteString("hello\nworld")
	cons.Clear()

	if x, y := cons.CursorPosition(); x != 0 || y != 0 {
		t.Fatalf("expected cursor at origin after clear; got (%d, %d)", x, y)
	}

	for i := 0; i < len(cons.surface.Buffer); i += 4 {
		if cons.surface.Buffer[i] != 3 || cons.surface.Buffer[i+1] != 2 || cons.surface.Buffer[i+2] != 1 {
			t.Fatalf("expected background fill after clear; mismatch at offset %d", i)
		}
	}
}

func TestFbConsoleColors(t *testing.T) {
	cons := newTestConsole(32, 24, 4)

	cons.SetColors(Red, Blue)
	fg, bg := cons.Colors()
	if fg != Red || bg != Blue {
		t.Fatalf("expected colors (Red, Blue); got (%v, %v)", fg, bg)
	}
}

func TestFbConsoleTap(t *testing.T) {
	cons := newTestConsole(64, 24, 4)

	var buf bytes.Buffer
	cons.SetTap(&buf)
	cons.WriteString("hi\n")
	cons.SetTap(nil)
	cons.WriteString("ignored")

	if got := buf.String(); got != "hi\n" {
		t.Fatalf("expected tap to mirror %q; got %q", "hi\n", got)
	}
}

func TestFbConsoleWriter(t *testing.T) {
	cons := newTestConsole(64, 24, 4)

	n, err := cons.Write([]byte("ok"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 bytes written; got %d", n)
	}
}
