package machine

import (
	"bytes"
	"strings"
	"testing"

	"goros/device/ps2"
	"goros/device/video/console"
	"goros/device/video/console/font"
	"goros/kernel/irq"
)

func bootedMachine(t *testing.T) (*Machine, *bytes.Buffer) {
	t.Helper()

	m := New(Config{Width: 320, Height: 240, FontScale: 1})
	var tap bytes.Buffer
	m.SetTap(&tap)

	if err := m.Boot(); err != nil {
		t.Fatalf("boot failed: %v", err)
	}
	return m, &tap
}

// pressKey latches a scancode and runs the keyboard handler synchronously.
func pressKey(m *Machine, scancode uint8) {
	m.kbdModel.Push(scancode)
	m.keyboardInterrupt(irq.Event{Vector: irq.KeyboardVector, Scancode: scancode})
}

func typeText(m *Machine, text string) {
	for i := 0; i < len(text); i++ {
		scancode, shift, ok := ps2.Encode(text[i])
		if !ok {
			continue
		}
		if shift {
			pressKey(m, ps2.ScanLeftShift)
		}
		pressKey(m, scancode)
		pressKey(m, scancode|ps2.ReleaseBit)
		if shift {
			pressKey(m, ps2.ScanLeftShift|ps2.ReleaseBit)
		}
	}
}

func TestMachineBootProgramsDevices(t *testing.T) {
	m, _ := bootedMachine(t)

	primary, secondary := m.picModel.Offsets()
	if primary != 32 || secondary != 40 {
		t.Fatalf("expected controller offsets 32/40; got %d/%d", primary, secondary)
	}

	if !m.picModel.LineEnabled(0) || !m.picModel.LineEnabled(1) {
		t.Fatal("expected timer and keyboard lines to be unmasked after boot")
	}
	if m.picModel.LineEnabled(3) {
		t.Fatal("expected unused lines to stay masked")
	}

	if hz := m.pitModel.FrequencyHz(); hz != 100 {
		t.Fatalf("expected the timer to be programmed at 100Hz; got %d", hz)
	}

	if !m.cpu.InterruptsEnabled() {
		t.Fatal("expected interrupts to be enabled after boot")
	}

	// 8 delay writes from the controller init sequence, 3 from the timer.
	if m.settle.writes != 11 {
		t.Fatalf("expected 11 settle-port writes during boot; got %d", m.settle.writes)
	}
}

func TestMachineBootInstallsConfiguredFont(t *testing.T) {
	tall := &font.Font{
		Name:        "8x16",
		GlyphWidth:  8,
		GlyphHeight: 16,
		FirstChar:   '?',
		LastChar:    '?',
		Data:        make([]byte, 16),
	}

	m := New(Config{Width: 320, Height: 240, FontScale: 1, Font: tall})
	if err := m.Boot(); err != nil {
		t.Fatalf("boot failed: %v", err)
	}

	if _, rows := m.cons.Dimensions(console.Characters); rows != 15 {
		t.Fatalf("expected 15 text rows with a 16-pixel glyph; got %d", rows)
	}
}

func TestMachineMaskedLineSuppressesDelivery(t *testing.T) {
	m, tap := bootedMachine(t)

	// Mask every primary line, then deliver a latched keypress: the event
	// must be dropped before the handler runs, so the controller never
	// sees an acknowledgment and nothing is echoed.
	m.bus.WriteByte(primaryDataPort, 0xff)
	m.kbdModel.Push(0x1e)
	before := tap.Len()

	m.deliver(irq.Event{Vector: irq.KeyboardVector, Scancode: 0x1e})

	if primary, _ := m.picModel.EOICounts(); primary != 0 {
		t.Fatalf("expected no acknowledgment on a masked line; got %d", primary)
	}
	if tap.Len() != before {
		t.Fatalf("expected no console output on a masked line; got %q", tap.String())
	}
}

func TestMachineBanner(t *testing.T) {
	_, tap := bootedMachine(t)

	out := tap.String()
	if !strings.Contains(out, "Type 'help' for commands.") {
		t.Fatalf("expected boot banner; got %q", out)
	}
	if !strings.Contains(out, "goros> ") {
		t.Fatalf("expected initial prompt; got %q", out)
	}
}

func TestMachineTimerInterrupt(t *testing.T) {
	m, _ := bootedMachine(t)

	for i := 0; i < 5; i++ {
		m.timerInterrupt(irq.Event{Vector: irq.TimerVector})
	}

	if ticks := m.clk.TickCount(); ticks != 5 {
		t.Fatalf("expected 5 clock ticks; got %d", ticks)
	}

	primary, secondary := m.picModel.EOICounts()
	if primary != 5 || secondary != 0 {
		t.Fatalf("expected 5 primary EOIs and 0 secondary; got %d/%d", primary, secondary)
	}
}

func TestMachineKeyboardPathsAlwaysAcknowledge(t *testing.T) {
	m, _ := bootedMachine(t)

	// Modifier press, key release, unmapped press, ordinary press: each
	// path must produce exactly one acknowledgment.
	for i, scancode := range []uint8{ps2.ScanLeftShift, 0x9e, 0x5b, 0x1e} {
		before, _ := m.picModel.EOICounts()
		pressKey(m, scancode)
		after, _ := m.picModel.EOICounts()
		if after != before+1 {
			t.Fatalf("[spec %d] expected one EOI for scancode %#x; got %d", i, scancode, after-before)
		}
	}
}

func TestMachineEchoCommand(t *testing.T) {
	m, tap := bootedMachine(t)

	typeText(m, "echo hello\n")

	out := tap.String()
	if !strings.Contains(out, "hello\n") {
		t.Fatalf("expected echoed command output; got %q", out)
	}
	if m.sh.CommandCount() != 1 {
		t.Fatalf("expected one dispatched command; got %d", m.sh.CommandCount())
	}
}

func TestMachineShiftProducesUppercase(t *testing.T) {
	m, tap := bootedMachine(t)

	pressKey(m, ps2.ScanLeftShift)
	pressKey(m, 0x1e) // 'a'
	pressKey(m, 0x9e)
	pressKey(m, ps2.ScanLeftShift|ps2.ReleaseBit)

	if !strings.Contains(tap.String(), "A") {
		t.Fatalf("expected shifted 'a' to echo as 'A'; got %q", tap.String())
	}
}

func TestMachineCapsLockFlash(t *testing.T) {
	m, tap := bootedMachine(t)

	pressKey(m, ps2.ScanCapsLock)
	if !strings.Contains(tap.String(), "[CAPS ON]") {
		t.Fatalf("expected caps-on flash; got %q", tap.String())
	}

	pressKey(m, ps2.ScanCapsLock|ps2.ReleaseBit)
	pressKey(m, ps2.ScanCapsLock)
	if !strings.Contains(tap.String(), "[CAPS OFF]") {
		t.Fatalf("expected caps-off flash; got %q", tap.String())
	}
}

func TestMachineUnmappedScancodeDiagnostic(t *testing.T) {
	m, tap := bootedMachine(t)

	pressKey(m, 0x5b)

	if !strings.Contains(tap.String(), "[91]") {
		t.Fatalf("expected bracketed scancode diagnostic; got %q", tap.String())
	}
}

func TestMachineBackspaceCannotErasePrompt(t *testing.T) {
	m, _ := bootedMachine(t)

	x, y := m.cons.CursorPosition()
	pressKey(m, 0x0e) // backspace at an empty buffer

	if nx, ny := m.cons.CursorPosition(); nx != x || ny != y {
		t.Fatalf("expected the cursor to stay at (%d, %d); got (%d, %d)", x, y, nx, ny)
	}
}

func TestMachineBackspaceRemovesBufferedChar(t *testing.T) {
	m, _ := bootedMachine(t)

	x, y := m.cons.CursorPosition()
	typeText(m, "a")
	pressKey(m, 0x0e)

	if m.sh.Length() != 0 {
		t.Fatalf("expected the buffered character to be removed; length is %d", m.sh.Length())
	}
	if nx, ny := m.cons.CursorPosition(); nx != x || ny != y {
		t.Fatalf("expected the cursor back at (%d, %d); got (%d, %d)", x, y, nx, ny)
	}
}

func TestMachineTabIndent(t *testing.T) {
	m, tap := bootedMachine(t)

	pressKey(m, 0x0f)

	if !strings.Contains(tap.String(), ">   ") {
		t.Fatalf("expected tab indent marker; got %q", tap.String())
	}
	if m.sh.Length() != 0 {
		t.Fatalf("expected tab to stay out of the input buffer; length is %d", m.sh.Length())
	}
}

func TestMachineBreakpoint(t *testing.T) {
	m, tap := bootedMachine(t)

	m.breakpointInterrupt(irq.Event{Vector: irq.BreakpointVector})

	if !strings.Contains(tap.String(), "EXCEPTION: BREAKPOINT") {
		t.Fatalf("expected breakpoint diagnostic; got %q", tap.String())
	}
	if m.Halted() {
		t.Fatal("expected a breakpoint to be recoverable")
	}
}

func TestMachinePanicHalts(t *testing.T) {
	m, tap := bootedMachine(t)

	m.dispatcher.HandleInterrupt(200, func(irq.Event) {
		panic("handler fault")
	})
	m.deliver(irq.Event{Vector: 200})

	if !m.Halted() {
		t.Fatal("expected the processor to halt after a fatal fault")
	}
	if !strings.Contains(tap.String(), "kernel panic") {
		t.Fatalf("expected a panic banner on the console; got %q", tap.String())
	}
}

func TestMachineInjectKeySynthesizesShift(t *testing.T) {
	m, _ := bootedMachine(t)

	if !m.InjectKey('A') {
		t.Fatal("expected 'A' to be injectable")
	}

	m.kbdModel.mu.Lock()
	fifo := append([]uint8(nil), m.kbdModel.fifo...)
	m.kbdModel.mu.Unlock()

	exp := []uint8{ps2.ScanLeftShift, 0x1e, 0x9e, ps2.ScanLeftShift | ps2.ReleaseBit}
	if len(fifo) != len(exp) {
		t.Fatalf("expected %d latched scancodes; got %v", len(exp), fifo)
	}
	for i, scancode := range exp {
		if fifo[i] != scancode {
			t.Fatalf("expected scancode %#x at position %d; got %#x", scancode, i, fifo[i])
		}
	}
}

func TestMachineInjectKeyRejectsUnmapped(t *testing.T) {
	m, _ := bootedMachine(t)

	if m.InjectKey(0x01) {
		t.Fatal("expected control characters without a key to be rejected")
	}
}
