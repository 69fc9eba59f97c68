// Package intctl drives the legacy pair of cascaded 8259 interrupt
// controllers. All raw port arithmetic for the controllers lives here; the
// driver talks to the hardware exclusively through the cpu.PortIO capability
// it is constructed with, which keeps it testable against a simulated bus.
package intctl

import (
	"fmt"
	"io"

	"goros/kernel"
	"goros/kernel/cpu"
)

// Legacy port addresses for the controller pair.
const (
	primaryCommandPort   uint16 = 0x20
	primaryDataPort      uint16 = 0x21
	secondaryCommandPort uint16 = 0xa0
	secondaryDataPort    uint16 = 0xa1

	// settlePort is an unused diagnostic port; writing to it gives the
	// controllers time to process the previous command.
	settlePort uint16 = 0x80
)

// Initialization and operation command words.
const (
	icw1Init = 0x11 // begin init sequence, ICW4 required

	// ICW3: the secondary controller hangs off the primary's line 2.
	icw3CascadeWire = 0x04 // primary: bit mask of the cascade line
	icw3CascadeID   = 0x02 // secondary: cascade identity

	icw4Mode8086 = 0x01

	eoiCommand = 0x20
	maskAll    = 0xff
)

// cascadeLine is the primary controller line the secondary is wired to. It
// must stay unmasked whenever any secondary line is enabled.
const cascadeLine = 2

// DualPIC drives the two cascaded 8259 controllers. Hardware failure is not
// modeled: every port write is fire-and-forget.
type DualPIC struct {
	ports cpu.PortIO

	primaryOffset   uint8
	secondaryOffset uint8
}

// NewDualPIC returns a driver for the controller pair that will remap the
// primary and secondary controllers to the supplied vector offsets.
func NewDualPIC(ports cpu.PortIO, primaryOffset, secondaryOffset uint8) *DualPIC {
	return &DualPIC{
		ports:           ports,
		primaryOffset:   primaryOffset,
		secondaryOffset: secondaryOffset,
	}
}

// Initialize runs the full initialization sequence on both controllers:
// mask everything, issue ICW1-ICW4 (vector offsets, cascade wiring, 8086
// mode) and mask everything again. Lines must be explicitly re-enabled via
// EnableLine afterwards.
func (p *DualPIC) Initialize() {
	// Disable all lines before reprogramming.
	p.ports.WriteByte(primaryDataPort, maskAll)
	p.ports.WriteByte(secondaryDataPort, maskAll)

	// ICW1: begin the initialization sequence on both controllers.
	p.ports.WriteByte(primaryCommandPort, icw1Init)
	p.settle()
	p.ports.WriteByte(secondaryCommandPort, icw1Init)
	p.settle()

	// ICW2: vector offsets.
	p.ports.WriteByte(primaryDataPort, p.primaryOffset)
	p.settle()
	p.ports.WriteByte(secondaryDataPort, p.secondaryOffset)
	p.settle()

	// ICW3: cascade wiring.
	p.ports.WriteByte(primaryDataPort, icw3CascadeWire)
	p.settle()
	p.ports.WriteByte(secondaryDataPort, icw3CascadeID)
	p.settle()

	// ICW4: 8086 operating mode.
	p.ports.WriteByte(primaryDataPort, icw4Mode8086)
	p.settle()
	p.ports.WriteByte(secondaryDataPort, icw4Mode8086)
	p.settle()

	// Re-mask everything; EnableLine opens individual lines later.
	p.ports.WriteByte(primaryDataPort, maskAll)
	p.ports.WriteByte(secondaryDataPort, maskAll)
}

// EnableLine clears the mask bit for the given hardware line. Lines 0-7
// belong to the primary controller, lines 8-15 to the secondary. Enabling a
// secondary line also unmasks the primary's cascade line so the secondary
// can deliver at all.
func (p *DualPIC) EnableLine(line uint8) {
	if line < 8 {
		mask := p.ports.ReadByte(primaryDataPort)
		p.ports.WriteByte(primaryDataPort, mask&^(1<<line))
		return
	}

	mask := p.ports.ReadByte(secondaryDataPort)
	p.ports.WriteByte(secondaryDataPort, mask&^(1<<(line-8)))

	mask = p.ports.ReadByte(primaryDataPort)
	p.ports.WriteByte(primaryDataPort, mask&^(1<<cascadeLine))
}

// Acknowledge signals end-of-interrupt for the given vector. Vectors in the
// secondary controller's range require an EOI to the secondary first; the
// primary always receives one.
func (p *DualPIC) Acknowledge(vector uint8) {
	if vector >= p.secondaryOffset {
		p.ports.WriteByte(secondaryCommandPort, eoiCommand)
	}
	p.ports.WriteByte(primaryCommandPort, eoiCommand)
}

// settle gives the controller time to process the previous write.
func (p *DualPIC) settle() {
	p.ports.WriteByte(settlePort, 0)
}

// DriverName returns the name of this driver.
func (p *DualPIC) DriverName() string {
	return "intctl/8259"
}

// DriverVersion returns the version of this driver.
func (p *DualPIC) DriverVersion() (uint16, uint16, uint16) {
	return 0, 1, 0
}

// DriverInit initializes this driver.
func (p *DualPIC) DriverInit(w io.Writer) *kernel.Error {
	p.Initialize()
	fmt.Fprintf(w, "remapped hardware lines to vectors %d-%d, all lines masked\n",
		p.primaryOffset, p.secondaryOffset+7)
	return nil
}
