// Package clock implements the system clock: a counter that accumulates
// periodic timer ticks into elapsed time. The clock stores nothing but the
// tick count and the tick period; every derived value is computed on read.
package clock

// Clock accumulates timer ticks. It is advanced exclusively by the timer
// interrupt handler and is owned by the machine, which guards it with an
// interrupt-safe lock shared with the foreground readers.
type Clock struct {
	ticks       uint64
	msPerTick   uint32
	initialized bool
}

// Uptime is the day/hour/minute/second/millisecond breakdown of the elapsed
// time, computed on demand by Clock.Uptime.
type Uptime struct {
	Days         uint64
	Hours        uint64
	Minutes      uint64
	Seconds      uint64
	Milliseconds uint16

	TotalMs      uint64
	TotalSeconds uint64
}

// New returns an uninitialized clock. Tick is a no-op until Initialize runs.
func New() *Clock {
	return &Clock{}
}

// Initialize resets the tick count to zero and records the tick period.
// Calling Initialize on a running clock resets the elapsed time rather than
// accumulating it.
func (c *Clock) Initialize(msPerTick uint32) {
	c.msPerTick = msPerTick
	c.ticks = 0
	c.initialized = true
}

// Initialized returns true once Initialize has run.
func (c *Clock) Initialized() bool {
	return c.initialized
}

// Tick advances the clock by one timer period. It is called exactly once per
// timer interrupt and is a no-op before initialization.
func (c *Clock) Tick() {
	if c.initialized {
		c.ticks++
	}
}

// TickCount returns the number of ticks accumulated since initialization.
func (c *Clock) TickCount() uint64 {
	return c.ticks
}

// UptimeMs returns the elapsed time in milliseconds, or zero before
// initialization.
func (c *Clock) UptimeMs() uint64 {
	if !c.initialized {
		return 0
	}
	return c.ticks * uint64(c.msPerTick)
}

// UptimeSeconds returns the elapsed time in whole seconds.
func (c *Clock) UptimeSeconds() uint64 {
	return c.UptimeMs() / 1000
}

// Uptime returns the full elapsed-time breakdown.
func (c *Clock) Uptime() Uptime {
	totalMs := c.UptimeMs()
	totalSeconds := totalMs / 1000

	return Uptime{
		Days:         totalSeconds / 86400,
		Hours:        (totalSeconds % 86400) / 3600,
		Minutes:      (totalSeconds % 3600) / 60,
		Seconds:      totalSeconds % 60,
		Milliseconds: uint16(totalMs % 1000),
		TotalMs:      totalMs,
		TotalSeconds: totalSeconds,
	}
}
