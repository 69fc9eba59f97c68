package ps2

// Set-1 scancodes of interest. Bit 7 marks a key release.
const (
	ScanLeftShift  = 0x2a
	ScanRightShift = 0x36
	ScanCapsLock   = 0x3a

	// ReleaseBit is set on the scancode emitted when a key is released.
	ReleaseBit = 0x80
)

// Modifiers tracks the level- and edge-triggered modifier keys. Shift is
// level-triggered (set on press, cleared on the matching release); Caps Lock
// toggles on each press and ignores the release event.
type Modifiers struct {
	ShiftPressed bool
	CtrlPressed  bool
	AltPressed   bool
	CapsLock     bool
}

// ClassifyModifier inspects a scancode, updates the modifier state and
// reports whether the scancode was a modifier event. Modifier events never
// produce a character.
func ClassifyModifier(mods *Modifiers, scancode uint8) bool {
	switch scancode {
	case ScanLeftShift, ScanRightShift:
		mods.ShiftPressed = true
		return true
	case ScanLeftShift | ReleaseBit, ScanRightShift | ReleaseBit:
		mods.ShiftPressed = false
		return true
	case ScanCapsLock:
		mods.CapsLock = !mods.CapsLock
		return true
	}
	return false
}

// tableSize bounds the key-press scancodes covered by the layout tables.
const tableSize = 0x40

// letters maps letter-key scancodes to their lowercase character. Letters
// are the only keys whose case depends on Caps Lock.
var letters = [tableSize]byte{
	0x10: 'q', 0x11: 'w', 0x12: 'e', 0x13: 'r', 0x14: 't',
	0x15: 'y', 0x16: 'u', 0x17: 'i', 0x18: 'o', 0x19: 'p',
	0x1e: 'a', 0x1f: 's', 0x20: 'd', 0x21: 'f', 0x22: 'g',
	0x23: 'h', 0x24: 'j', 0x25: 'k', 0x26: 'l',
	0x2c: 'z', 0x2d: 'x', 0x2e: 'c', 0x2f: 'v', 0x30: 'b',
	0x31: 'n', 0x32: 'm',
}

// plain maps non-letter scancodes to their unshifted character. The control
// keys (space, enter, backspace, tab) appear in both plain and withShift so
// that they map unconditionally.
var plain = [tableSize]byte{
	0x02: '1', 0x03: '2', 0x04: '3', 0x05: '4', 0x06: '5',
	0x07: '6', 0x08: '7', 0x09: '8', 0x0a: '9', 0x0b: '0',
	0x0c: '-', 0x0d: '=',
	0x0e: '\b', 0x0f: '\t', 0x1c: '\n', 0x39: ' ',
	0x1a: '[', 0x1b: ']', 0x27: ';', 0x28: '\'', 0x29: '`',
	0x2b: '\\', 0x33: ',', 0x34: '.', 0x35: '/',
}

// withShift maps non-letter scancodes to their shifted character. Digits and
// punctuation are shift-sensitive only; Caps Lock never affects them.
var withShift = [tableSize]byte{
	0x02: '!', 0x03: '@', 0x04: '#', 0x05: '$', 0x06: '%',
	0x07: '^', 0x08: '&', 0x09: '*', 0x0a: '(', 0x0b: ')',
	0x0c: '_', 0x0d: '+',
	0x0e: '\b', 0x0f: '\t', 0x1c: '\n', 0x39: ' ',
	0x1a: '{', 0x1b: '}', 0x27: ':', 0x28: '"', 0x29: '~',
	0x2b: '|', 0x33: '<', 0x34: '>', 0x35: '?',
}

// Decode maps a key-press scancode to a character. Release scancodes (bit 7
// set) and unmapped scancodes return ok=false; the distinction between
// "release" and "unmapped" is the caller's to draw via ReleaseBit.
//
// Letter keys choose their case by the XOR of Shift and Caps Lock: both set
// or both clear yields lowercase, exactly one set yields uppercase.
func Decode(scancode uint8, shift, capsLock bool) (ch byte, ok bool) {
	if scancode >= tableSize {
		return 0, false
	}

	if l := letters[scancode]; l != 0 {
		if shift != capsLock {
			l -= 'a' - 'A'
		}
		return l, true
	}

	table := &plain
	if shift {
		table = &withShift
	}

	if c := table[scancode]; c != 0 {
		return c, true
	}
	return 0, false
}

// reverse maps characters back to the (scancode, shift) pair that produces
// them. It is the inverse of Decode and is used by host frontends to
// synthesize key events.
var reverse [128]struct {
	scancode uint8
	shift    bool
}

func init() {
	for sc := uint8(0); sc < tableSize; sc++ {
		if l := letters[sc]; l != 0 {
			reverse[l] = struct {
				scancode uint8
				shift    bool
			}{sc, false}
			reverse[l-('a'-'A')] = struct {
				scancode uint8
				shift    bool
			}{sc, true}
			continue
		}
		if c := plain[sc]; c != 0 {
			reverse[c] = struct {
				scancode uint8
				shift    bool
			}{sc, false}
		}
		if c := withShift[sc]; c != 0 && c != plain[sc] {
			reverse[c] = struct {
				scancode uint8
				shift    bool
			}{sc, true}
		}
	}
}

// Encode returns the key-press scancode that produces ch with Caps Lock off,
// along with whether Shift must be held. It returns ok=false for characters
// no key produces.
func Encode(ch byte) (scancode uint8, shift bool, ok bool) {
	if ch >= 128 {
		return 0, false, false
	}
	r := reverse[ch]
	if r.scancode == 0 {
		return 0, false, false
	}
	return r.scancode, r.shift, true
}
