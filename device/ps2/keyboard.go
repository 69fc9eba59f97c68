// Package ps2 implements the set-1 keyboard scancode state machine: modifier
// tracking, scancode-to-character decoding and the data-port read path used
// by the keyboard interrupt handler.
package ps2

import (
	"fmt"
	"io"

	"goros/kernel"
	"goros/kernel/cpu"
)

// DataPort is the keyboard controller's data port.
const DataPort uint16 = 0x60

// Keyboard couples the controller data port with the decoder state. Its
// state is created once at boot and mutated only inside the keyboard
// interrupt handler, so it carries no lock of its own.
type Keyboard struct {
	ports cpu.PortIO
	mods  Modifiers
}

// NewKeyboard returns a keyboard driver reading from the supplied port bus.
func NewKeyboard(ports cpu.PortIO) *Keyboard {
	return &Keyboard{ports: ports}
}

// ReadScancode reads the next scancode byte off the data port.
func (k *Keyboard) ReadScancode() uint8 {
	return k.ports.ReadByte(DataPort)
}

// HandleModifier updates the modifier state for scancode and reports whether
// it was a modifier event.
func (k *Keyboard) HandleModifier(scancode uint8) bool {
	return ClassifyModifier(&k.mods, scancode)
}

// Decode maps a key-press scancode to a character under the current
// modifier state.
func (k *Keyboard) Decode(scancode uint8) (byte, bool) {
	return Decode(scancode, k.mods.ShiftPressed, k.mods.CapsLock)
}

// Modifiers returns a snapshot of the current modifier state.
func (k *Keyboard) Modifiers() Modifiers {
	return k.mods
}

// DriverName returns the name of this driver.
func (k *Keyboard) DriverName() string {
	return "ps2/keyboard"
}

// DriverVersion returns the version of this driver.
func (k *Keyboard) DriverVersion() (uint16, uint16, uint16) {
	return 0, 1, 0
}

// DriverInit initializes this driver.
func (k *Keyboard) DriverInit(w io.Writer) *kernel.Error {
	k.mods = Modifiers{}
	fmt.Fprintf(w, "set-1 decoder ready on port %#02x\n", DataPort)
	return nil
}
