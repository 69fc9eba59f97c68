package machine

import "sync"

// Simulated legacy device models. Each model implements just enough of the
// real chip's programming interface to validate what the drivers write and
// to expose the resulting state to tests and to the frontend.

const (
	primaryCommandPort   uint16 = 0x20
	primaryDataPort      uint16 = 0x21
	secondaryCommandPort uint16 = 0xa0
	secondaryDataPort    uint16 = 0xa1

	pitDataPort    uint16 = 0x40
	pitCommandPort uint16 = 0x43

	kbdDataPort uint16 = 0x60
	settlePort  uint16 = 0x80

	icw1Init uint8 = 0x10
	eoiByte  uint8 = 0x20

	pitBaseFrequencyHz = 1193182
)

// pic8259 models one interrupt controller chip. An ICW1 write on the command
// port arms a three-byte initialization sequence on the data port (ICW2
// vector offset, ICW3 cascade wiring, ICW4 mode); outside that sequence the
// data port carries the interrupt mask.
type pic8259 struct {
	cmdPort  uint16
	dataPort uint16

	initStage int
	offset    uint8
	cascade   uint8
	mask      uint8

	eoiCount uint64
}

func (p *pic8259) write(port uint16, val uint8) {
	if port == p.cmdPort {
		if val&icw1Init != 0 {
			p.initStage = 1
			return
		}
		if val == eoiByte {
			p.eoiCount++
		}
		return
	}

	switch p.initStage {
	case 1:
		p.offset = val
		p.initStage = 2
	case 2:
		p.cascade = val
		p.initStage = 3
	case 3:
		p.initStage = 0
	default:
		p.mask = val
	}
}

func (p *pic8259) read(port uint16) uint8 {
	if port == p.dataPort {
		return p.mask
	}
	return 0
}

// picModel is the cascaded controller pair.
type picModel struct {
	primary   pic8259
	secondary pic8259
}

func newPicModel() *picModel {
	return &picModel{
		primary:   pic8259{cmdPort: primaryCommandPort, dataPort: primaryDataPort},
		secondary: pic8259{cmdPort: secondaryCommandPort, dataPort: secondaryDataPort},
	}
}

func (m *picModel) Ports() []uint16 {
	return []uint16{primaryCommandPort, primaryDataPort, secondaryCommandPort, secondaryDataPort}
}

func (m *picModel) ReadPort(port uint16) uint8 {
	if port == secondaryCommandPort || port == secondaryDataPort {
		return m.secondary.read(port)
	}
	return m.primary.read(port)
}

func (m *picModel) WritePort(port uint16, val uint8) {
	if port == secondaryCommandPort || port == secondaryDataPort {
		m.secondary.write(port, val)
		return
	}
	m.primary.write(port, val)
}

// LineEnabled reports whether the given hardware line is unmasked. A
// secondary line additionally requires the primary's cascade line to be
// unmasked.
func (m *picModel) LineEnabled(line uint8) bool {
	if line < 8 {
		return m.primary.mask&(1<<line) == 0
	}
	return m.secondary.mask&(1<<(line-8)) == 0 && m.primary.mask&(1<<2) == 0
}

// EOICounts returns how many end-of-interrupt commands each controller has
// received.
func (m *picModel) EOICounts() (primary, secondary uint64) {
	return m.primary.eoiCount, m.secondary.eoiCount
}

// Offsets returns the vector offsets the driver programmed.
func (m *picModel) Offsets() (primary, secondary uint8) {
	return m.primary.offset, m.secondary.offset
}

// pitModel models channel 0 of the interval timer. The driver writes a mode
// command and then the divisor in low-byte, high-byte order.
type pitModel struct {
	command    uint8
	divisor    uint16
	loWritten  bool
	configured bool
}

func newPitModel() *pitModel {
	return &pitModel{}
}

func (m *pitModel) Ports() []uint16 {
	return []uint16{pitDataPort, pitCommandPort}
}

func (m *pitModel) ReadPort(uint16) uint8 {
	return 0
}

func (m *pitModel) WritePort(port uint16, val uint8) {
	if port == pitCommandPort {
		m.command = val
		m.loWritten = false
		m.configured = false
		return
	}

	if !m.loWritten {
		m.divisor = m.divisor&0xff00 | uint16(val)
		m.loWritten = true
		return
	}
	m.divisor = m.divisor&0x00ff | uint16(val)<<8
	m.configured = true
}

// FrequencyHz returns the tick rate implied by the programmed divisor, or
// zero while the divisor is incomplete.
func (m *pitModel) FrequencyHz() uint32 {
	if !m.configured || m.divisor == 0 {
		return 0
	}
	return pitBaseFrequencyHz / uint32(m.divisor)
}

// kbdModel models the keyboard controller's output buffer as a FIFO on the
// data port. The frontend pushes scancodes from its own goroutine, so the
// FIFO carries its own lock.
type kbdModel struct {
	mu   sync.Mutex
	fifo []uint8
}

func newKbdModel() *kbdModel {
	return &kbdModel{}
}

func (m *kbdModel) Push(scancode uint8) {
	m.mu.Lock()
	m.fifo = append(m.fifo, scancode)
	m.mu.Unlock()
}

func (m *kbdModel) Ports() []uint16 {
	return []uint16{kbdDataPort}
}

func (m *kbdModel) ReadPort(uint16) uint8 {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.fifo) == 0 {
		return 0
	}
	scancode := m.fifo[0]
	m.fifo = m.fifo[1:]
	return scancode
}

func (m *kbdModel) WritePort(uint16, uint8) {}

// settleModel counts writes to the legacy delay port.
type settleModel struct {
	writes uint64
}

func (m *settleModel) Ports() []uint16 {
	return []uint16{settlePort}
}

func (m *settleModel) ReadPort(uint16) uint8 {
	return 0
}

func (m *settleModel) WritePort(uint16, uint8) {
	m.writes++
}
