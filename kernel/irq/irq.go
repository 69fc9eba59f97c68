// Package irq defines the interrupt vector space of the console core and the
// dispatch table that routes hardware events to their installed handlers.
//
// Hardware lines are remapped by the interrupt controller to a vector range
// that never overlaps the CPU-reserved exception vectors (0-31). Each event
// is dispatched synchronously and runs to completion before the next event
// is delivered; there is no interrupt nesting.
package irq

// Vector identifies an interrupt vector number.
type Vector uint8

const (
	// PrimaryOffset is the vector number of the primary controller's
	// first line after remapping.
	PrimaryOffset Vector = 32

	// SecondaryOffset is the vector number of the secondary controller's
	// first line after remapping.
	SecondaryOffset Vector = 40

	// BreakpointVector is the CPU breakpoint exception. It is not a
	// hardware line and requires no controller acknowledgment.
	BreakpointVector Vector = 3

	// TimerVector is the vector raised by the periodic timer (line 0).
	TimerVector = PrimaryOffset + 0

	// KeyboardVector is the vector raised by the keyboard (line 1).
	KeyboardVector = PrimaryOffset + 1
)

// Hardware line numbers on the cascaded controller pair.
const (
	TimerLine    uint8 = 0
	KeyboardLine uint8 = 1
)

// Line returns the hardware line a vector was remapped from, and whether the
// vector belongs to a hardware line at all.
func (v Vector) Line() (uint8, bool) {
	switch {
	case v >= PrimaryOffset && v < SecondaryOffset:
		return uint8(v - PrimaryOffset), true
	case v >= SecondaryOffset && v < SecondaryOffset+8:
		return uint8(v-SecondaryOffset) + 8, true
	default:
		return 0, false
	}
}

// Event is a tagged hardware event delivered to the dispatcher. For keyboard
// events Scancode carries the byte latched by the keyboard controller; the
// handler still reads the authoritative value off the data port.
type Event struct {
	Vector   Vector
	Scancode uint8
}

// HandlerFn is the signature of an interrupt handler. Handlers run to
// completion with interrupt delivery disabled and must acknowledge the
// controller as their final action.
type HandlerFn func(Event)

// Dispatcher maps vectors to installed handlers.
type Dispatcher struct {
	handlers [256]HandlerFn
}

// NewDispatcher returns a dispatcher with no handlers installed.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{}
}

// HandleInterrupt installs a handler for the given vector, replacing any
// existing handler.
func (d *Dispatcher) HandleInterrupt(v Vector, h HandlerFn) {
	d.handlers[v] = h
}

// Dispatch invokes the handler installed for the event's vector. It returns
// false if no handler is installed, in which case the event is dropped.
func (d *Dispatcher) Dispatch(ev Event) bool {
	h := d.handlers[ev.Vector]
	if h == nil {
		return false
	}

	h(ev)
	return true
}
