// Package timer drives channel 0 of the legacy 8253/8254 programmable
// interval timer, programming it as a fixed-rate periodic interrupt source.
package timer

import (
	"fmt"
	"io"

	"goros/kernel"
	"goros/kernel/cpu"
)

const (
	channelDataPort uint16 = 0x40 // channel 0 data
	commandPort     uint16 = 0x43
	settlePort      uint16 = 0x80

	// baseFrequencyHz is the fixed input frequency of the counter.
	baseFrequencyHz = 1193182

	// commandByte selects channel 0, lobyte/hibyte access, mode 2 (rate
	// generator), binary counting.
	commandByte = 0x34
)

// DefaultFrequencyHz is the tick rate the machine programs at boot.
const DefaultFrequencyHz = 100

// MinFrequencyHz and MaxFrequencyHz bound the programmable tick rate. Below
// 19Hz the divisor no longer fits the 16-bit counter register; above 1000Hz
// the tick period rounds down to zero whole milliseconds and the clock would
// stand still.
const (
	MinFrequencyHz = 19
	MaxFrequencyHz = 1000
)

// PIT drives the interval timer. A misprogrammed divisor is undetectable by
// software; there is no completion feedback and no retry.
type PIT struct {
	ports cpu.PortIO

	frequencyHz uint32
	initialized bool
}

// NewPIT returns a driver that will program the timer to fire at the given
// rate. Frequencies outside [MinFrequencyHz, MaxFrequencyHz] (zero included)
// select DefaultFrequencyHz.
func NewPIT(ports cpu.PortIO, frequencyHz uint32) *PIT {
	if frequencyHz < MinFrequencyHz || frequencyHz > MaxFrequencyHz {
		frequencyHz = DefaultFrequencyHz
	}
	return &PIT{ports: ports, frequencyHz: frequencyHz}
}

// Initialize programs channel 0: mode-select command first, then the divisor
// low byte, then the divisor high byte, with a settle delay between writes.
func (t *PIT) Initialize() {
	divisor := uint16(baseFrequencyHz / t.frequencyHz)

	t.ports.WriteByte(commandPort, commandByte)
	t.settle()
	t.ports.WriteByte(channelDataPort, uint8(divisor&0xff))
	t.settle()
	t.ports.WriteByte(channelDataPort, uint8(divisor>>8))
	t.settle()

	t.initialized = true
}

// Initialized returns true once Initialize has run.
func (t *PIT) Initialized() bool {
	return t.initialized
}

// Frequency returns the configured tick rate in Hz.
func (t *PIT) Frequency() uint32 {
	return t.frequencyHz
}

// PeriodMs returns the interval between ticks in milliseconds.
func (t *PIT) PeriodMs() uint32 {
	return 1000 / t.frequencyHz
}

// settle gives the timer time to process the previous write.
func (t *PIT) settle() {
	t.ports.WriteByte(settlePort, 0)
}

// DriverName returns the name of this driver.
func (t *PIT) DriverName() string {
	return "timer/8253"
}

// DriverVersion returns the version of this driver.
func (t *PIT) DriverVersion() (uint16, uint16, uint16) {
	return 0, 1, 0
}

// DriverInit initializes this driver.
func (t *PIT) DriverInit(w io.Writer) *kernel.Error {
	t.Initialize()
	fmt.Fprintf(w, "channel 0 programmed at %dHz (%dms period)\n", t.frequencyHz, t.PeriodMs())
	return nil
}
