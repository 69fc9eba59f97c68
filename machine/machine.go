// Package machine assembles the console core: it owns the simulated port
// bus and devices, the drivers programmed against them, the interrupt
// dispatch loop that models the single processor core, and the shared locks
// binding the console, shell and clock state.
package machine

import (
	"bytes"
	"context"
	"io"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"goros/device"
	"goros/device/intctl"
	"goros/device/ps2"
	"goros/device/timer"
	"goros/device/video/console"
	"goros/device/video/console/font"
	"goros/kernel"
	"goros/kernel/clock"
	"goros/kernel/cpu"
	"goros/kernel/irq"
	"goros/kernel/shell"
	ksync "goros/kernel/sync"
)

// Config carries the machine geometry and timing parameters. Zero values
// select the defaults.
type Config struct {
	Width         uint32
	Height        uint32
	BytesPerPixel uint32
	FontScale     uint32
	TimerHz       uint32

	// Font is the glyph set installed on the console during Boot.
	Font *font.Font

	Logger *logrus.Logger
}

func (cfg *Config) applyDefaults() {
	if cfg.Width == 0 {
		cfg.Width = 640
	}
	if cfg.Height == 0 {
		cfg.Height = 480
	}
	if cfg.BytesPerPixel == 0 {
		cfg.BytesPerPixel = 4
	}
	if cfg.FontScale == 0 {
		cfg.FontScale = 2
	}
	if cfg.TimerHz == 0 {
		cfg.TimerHz = timer.DefaultFrequencyHz
	}
	if cfg.Font == nil {
		cfg.Font = font.Font8x8
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
		cfg.Logger.SetOutput(io.Discard)
	}
}

// Machine is one assembled console core instance.
type Machine struct {
	cfg Config
	log *logrus.Logger

	cpu        *cpu.CPU
	bus        *Bus
	pic        *intctl.DualPIC
	pit        *timer.PIT
	kbd        *ps2.Keyboard
	fb         *console.FbConsole
	clk        *clock.Clock
	sh         *shell.Shell
	dispatcher *irq.Dispatcher

	// cons is the device interface all text output goes through; fb is
	// retained for the surface and tap accessors the interface omits.
	cons console.Device

	// conLock guards the console and the shell; clkLock guards the clock.
	// Both are interrupt-safe so foreground readers can never deadlock
	// against the handlers.
	conLock *ksync.IrqSpinlock
	clkLock *ksync.IrqSpinlock

	picModel *picModel
	pitModel *pitModel
	kbdModel *kbdModel
	settle   *settleModel

	pending chan irq.Event
}

// New assembles a machine from cfg. Boot must be called before Run.
func New(cfg Config) *Machine {
	cfg.applyDefaults()

	m := &Machine{
		cfg:        cfg,
		log:        cfg.Logger,
		cpu:        cpu.New(),
		bus:        NewBus(),
		clk:        clock.New(),
		dispatcher: irq.NewDispatcher(),
		picModel:   newPicModel(),
		pitModel:   newPitModel(),
		kbdModel:   newKbdModel(),
		settle:     &settleModel{},
		pending:    make(chan irq.Event, 64),
	}

	m.bus.Attach(m.picModel)
	m.bus.Attach(m.pitModel)
	m.bus.Attach(m.kbdModel)
	m.bus.Attach(m.settle)

	m.pic = intctl.NewDualPIC(m.bus, uint8(irq.PrimaryOffset), uint8(irq.SecondaryOffset))
	m.pit = timer.NewPIT(m.bus, cfg.TimerHz)
	m.kbd = ps2.NewKeyboard(m.bus)

	surface := console.NewSurface(cfg.Width, cfg.Height, cfg.BytesPerPixel)
	m.fb = console.NewFbConsole(surface, font.Font8x8, cfg.FontScale)
	m.cons = m.fb

	m.sh = shell.New(m.cons, m.clk)
	m.conLock = ksync.NewIrqSpinlock(m.cpu)
	m.clkLock = ksync.NewIrqSpinlock(m.cpu)

	return m
}

// Boot initializes the drivers, installs the interrupt handlers, prints the
// banner and prompt and enables interrupt delivery.
func (m *Machine) Boot() error {
	drivers := []device.Driver{m.pic, m.pit, m.kbd, m.fb}

	var buf bytes.Buffer
	for _, drv := range drivers {
		buf.Reset()
		major, minor, patch := drv.DriverVersion()
		entry := m.log.WithField("driver", drv.DriverName())

		if err := drv.DriverInit(&buf); err != nil {
			entry.Errorf("init failed: %s", err.Message)
			return err
		}
		entry.Infof("%d.%d.%d: %s", major, minor, patch, strings.TrimSpace(buf.String()))
	}

	if setter, ok := m.cons.(console.FontSetter); ok {
		setter.SetFont(m.cfg.Font)
	}

	m.pic.EnableLine(irq.TimerLine)
	m.pic.EnableLine(irq.KeyboardLine)
	m.clk.Initialize(m.pit.PeriodMs())

	m.dispatcher.HandleInterrupt(irq.TimerVector, m.timerInterrupt)
	m.dispatcher.HandleInterrupt(irq.KeyboardVector, m.keyboardInterrupt)
	m.dispatcher.HandleInterrupt(irq.BreakpointVector, m.breakpointInterrupt)

	m.conLock.Acquire()
	m.sh.Banner()
	m.sh.ShowPrompt()
	m.conLock.Release()

	m.cpu.EnableInterrupts()
	m.log.WithField("hz", m.pit.Frequency()).Info("interrupts enabled")
	return nil
}

// Run drives the machine until ctx is cancelled or the processor halts. One
// goroutine generates timer pulses; a second models the core, delivering
// pending events one at a time so no handler ever preempts another.
func (m *Machine) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		ticker := time.NewTicker(time.Second / time.Duration(m.pit.Frequency()))
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				select {
				case m.pending <- irq.Event{Vector: irq.TimerVector}:
				default:
					// Core is behind; the pulse is lost.
				}
			}
		}
	})

	g.Go(func() error {
		for {
			select {
			case <-ctx.Done():
				return nil
			case ev := <-m.pending:
				m.deliver(ev)
				if m.cpu.Halted() {
					cancel()
					return nil
				}
			}
		}
	})

	return g.Wait()
}

// deliver runs one event to completion on the simulated core. Delivery
// waits for the interrupt flag: a handler never fires while a foreground
// reader holds an interrupt-safe lock. Events whose vector maps to a masked
// hardware line never reach their handler. A panic escaping a handler is
// the fatal-fault path: the diagnostic is printed to the console and the
// processor halts for good.
func (m *Machine) deliver(ev irq.Event) {
	defer func() {
		if r := recover(); r != nil {
			m.conLock.Acquire()
			kernel.Panic(m.fb, m.cpu.Halt, r)
			m.conLock.Release()
		}
	}()

	for !m.cpu.InterruptsEnabled() {
		if m.cpu.Halted() {
			return
		}
		runtime.Gosched()
	}

	if line, ok := ev.Vector.Line(); ok && !m.picModel.LineEnabled(line) {
		m.log.WithField("vector", ev.Vector).Debug("line masked, event dropped")
		return
	}

	if !m.dispatcher.Dispatch(ev) {
		m.log.WithField("vector", ev.Vector).Debug("no handler installed, event dropped")
	}
}

// timerInterrupt advances the clock. Acknowledgment is deferred first so it
// is always the final action.
func (m *Machine) timerInterrupt(ev irq.Event) {
	defer m.pic.Acknowledge(uint8(ev.Vector))

	m.clkLock.Acquire()
	m.clk.Tick()
	m.clkLock.Release()
}

// keyboardInterrupt consumes one scancode: modifiers update decoder state
// (Caps Lock flashes its new state), releases are dropped, unmapped presses
// show a bracketed diagnostic and decoded characters are routed to the
// shell and echoed. Every path acknowledges the controller last.
func (m *Machine) keyboardInterrupt(ev irq.Event) {
	defer m.pic.Acknowledge(uint8(ev.Vector))

	scancode := m.kbd.ReadScancode()

	m.conLock.Acquire()
	defer m.conLock.Release()

	if m.kbd.HandleModifier(scancode) {
		if scancode == ps2.ScanCapsLock {
			state := " [CAPS OFF] "
			if m.kbd.Modifiers().CapsLock {
				state = " [CAPS ON] "
			}
			m.printColored(console.Yellow, state)
		}
		return
	}

	if scancode&ps2.ReleaseBit != 0 {
		return
	}

	ch, ok := m.kbd.Decode(scancode)
	if !ok {
		m.printColored(console.Yellow, "["+strconv.Itoa(int(scancode))+"]")
		return
	}

	switch ch {
	case '\b':
		if m.sh.CanBackspace() {
			m.sh.HandleChar('\b')
			m.cons.Backspace()
		}
	case '\n':
		m.sh.HandleChar('\n')
	case '\t':
		// Tab is rendered as an indent marker and never buffered.
		m.printColored(console.Yellow, ">   ")
	default:
		m.sh.HandleChar(ch)
		m.echoChar(ch)
	}
}

// echoChar displays a decoded character, colored by the modifier state that
// produced it.
func (m *Machine) echoChar(ch byte) {
	mods := m.kbd.Modifiers()

	color := console.Green
	switch {
	case mods.CapsLock && isLetter(ch):
		color = console.Red
	case mods.ShiftPressed:
		color = console.Blue
	}

	m.cons.SetColors(color, console.Black)
	m.cons.WriteChar(ch)
	m.cons.SetColors(console.White, console.Black)
}

func (m *Machine) breakpointInterrupt(irq.Event) {
	m.conLock.Acquire()
	m.cons.WriteString("EXCEPTION: BREAKPOINT\n")
	m.conLock.Release()
}

// InjectScancode latches a scancode in the keyboard controller and raises
// the keyboard vector. The event is dropped if the pending queue is full.
func (m *Machine) InjectScancode(scancode uint8) {
	m.kbdModel.Push(scancode)
	select {
	case m.pending <- irq.Event{Vector: irq.KeyboardVector, Scancode: scancode}:
	default:
	}
}

// InjectKey synthesizes the scancode sequence for ch, wrapping it in a
// shift press and release when the character requires one. It reports
// whether ch maps to a key at all.
func (m *Machine) InjectKey(ch byte) bool {
	scancode, shift, ok := ps2.Encode(ch)
	if !ok {
		return false
	}

	if shift {
		m.InjectScancode(ps2.ScanLeftShift)
	}
	m.InjectScancode(scancode)
	m.InjectScancode(scancode | ps2.ReleaseBit)
	if shift {
		m.InjectScancode(ps2.ScanLeftShift | ps2.ReleaseBit)
	}
	return true
}

// RaiseBreakpoint raises the CPU breakpoint exception.
func (m *Machine) RaiseBreakpoint() {
	select {
	case m.pending <- irq.Event{Vector: irq.BreakpointVector}:
	default:
	}
}

// Snapshot returns a copy of the display surface taken under the console
// lock.
func (m *Machine) Snapshot() console.Surface {
	m.conLock.Acquire()
	defer m.conLock.Release()

	surface := m.fb.Surface()
	buf := make([]byte, len(surface.Buffer))
	copy(buf, surface.Buffer)
	surface.Buffer = buf
	return surface
}

// SetTap mirrors every character the console renders into w.
func (m *Machine) SetTap(w io.Writer) {
	m.conLock.Acquire()
	m.fb.SetTap(w)
	m.conLock.Release()
}

// Halted reports whether the processor has halted.
func (m *Machine) Halted() bool {
	return m.cpu.Halted()
}

// Uptime returns the elapsed-time breakdown under the clock lock.
func (m *Machine) Uptime() clock.Uptime {
	m.clkLock.Acquire()
	defer m.clkLock.Release()
	return m.clk.Uptime()
}

func (m *Machine) printColored(fg console.RGB, s string) {
	m.cons.SetColors(fg, console.Black)
	m.cons.WriteString(s)
	m.cons.SetColors(console.White, console.Black)
}

func isLetter(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}
