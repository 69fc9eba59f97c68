// Package cpu models the single hardware thread the console core runs on:
// the interrupt delivery flag, the terminal halt state and byte-wide access
// to the legacy I/O port space. Port access is routed through a PortIO
// implementation installed by the machine so that device drivers can be
// exercised against a simulated bus.
package cpu

import "sync/atomic"

// PortIO provides byte-wide access to the legacy I/O port space.
type PortIO interface {
	// ReadByte reads a uint8 value from the requested port.
	ReadByte(port uint16) uint8

	// WriteByte writes a uint8 value to the requested port.
	WriteByte(port uint16, val uint8)
}

// CPU tracks the execution state of the simulated processor. A CPU instance
// is constructed once at boot and shared by reference between the foreground
// context and the interrupt dispatch path.
type CPU struct {
	intEnabled uint32
	halted     uint32
}

// New returns a CPU with interrupt delivery disabled.
func New() *CPU {
	return &CPU{}
}

// EnableInterrupts enables interrupt delivery.
func (c *CPU) EnableInterrupts() {
	atomic.StoreUint32(&c.intEnabled, 1)
}

// DisableInterrupts disables interrupt delivery. Events raised while
// delivery is disabled remain pending; they are not lost.
func (c *CPU) DisableInterrupts() {
	atomic.StoreUint32(&c.intEnabled, 0)
}

// SwapInterruptsOff disables interrupt delivery and reports whether it was
// enabled beforehand. Read and write happen as one atomic exchange, so two
// contexts racing to disable cannot both observe the flag as enabled.
func (c *CPU) SwapInterruptsOff() bool {
	return atomic.SwapUint32(&c.intEnabled, 0) == 1
}

// InterruptsEnabled returns true if interrupt delivery is enabled.
func (c *CPU) InterruptsEnabled() bool {
	return atomic.LoadUint32(&c.intEnabled) == 1
}

// Halt parks the CPU in a non-resumable wait state. There is no
// corresponding resume operation.
func (c *CPU) Halt() {
	atomic.StoreUint32(&c.halted, 1)
}

// Halted returns true once Halt has been invoked.
func (c *CPU) Halted() bool {
	return atomic.LoadUint32(&c.halted) == 1
}
