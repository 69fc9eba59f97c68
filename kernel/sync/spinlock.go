// Package sync provides the spin-wait mutual exclusion primitives that bind
// the console, shell and clock state shared between the foreground context
// and the interrupt handlers.
package sync

import (
	"runtime"
	"sync/atomic"
)

// yieldFn is invoked between acquisition attempts; tests may substitute it.
var yieldFn = runtime.Gosched

// Spinlock implements a lock where each context trying to acquire it
// busy-waits till the lock becomes available.
type Spinlock struct {
	state uint32
}

// Acquire blocks until the lock can be acquired by the calling context. The
// lock has no context awareness: an interrupt handler that spins on a lock
// held by the foreground code it preempted can never make progress on a
// single core. Code shared with interrupt handlers must use IrqSpinlock
// instead.
func (l *Spinlock) Acquire() {
	for !l.TryToAcquire() {
		yieldFn()
	}
}

// TryToAcquire attempts to acquire the lock and returns true if the lock
// could be acquired or false otherwise.
func (l *Spinlock) TryToAcquire() bool {
	return atomic.SwapUint32(&l.state, 1) == 0
}

// Release relinquishes a held lock. Calling Release while the lock is free
// has no effect.
func (l *Spinlock) Release() {
	atomic.StoreUint32(&l.state, 0)
}

// IntControl exposes the CPU interrupt-flag primitives needed by
// IrqSpinlock. It is satisfied by *cpu.CPU.
type IntControl interface {
	EnableInterrupts()

	// SwapInterruptsOff disables interrupt delivery and reports whether
	// it was enabled beforehand, as one atomic exchange.
	SwapInterruptsOff() bool
}

// IrqSpinlock is a Spinlock variant that is safe to share between the
// foreground context and interrupt handlers. Acquire disables interrupt
// delivery for as long as the lock is held so that no handler dispatched
// mid-section can observe the shared state it guards. Release restores the
// interrupt flag to its pre-acquisition value, which makes the lock usable
// from within handlers (where delivery is already disabled) without
// re-enabling interrupts early.
type IrqSpinlock struct {
	lock       Spinlock
	ic         IntControl
	wasEnabled bool
}

// NewIrqSpinlock returns an interrupt-safe spinlock bound to the supplied
// interrupt controls.
func NewIrqSpinlock(ic IntControl) *IrqSpinlock {
	return &IrqSpinlock{ic: ic}
}

// Acquire blocks until the lock is held, then disables interrupt delivery.
// The flag is captured with an atomic exchange under the lock, so only the
// current holder ever reads or writes it: two contexts racing Acquire can
// never both record the flag as enabled, and a Release can never re-enable
// delivery while another context holds the lock.
func (l *IrqSpinlock) Acquire() {
	l.lock.Acquire()
	l.wasEnabled = l.ic.SwapInterruptsOff()
}

// Release restores the interrupt flag captured by the matching Acquire call
// and relinquishes the lock. The restore happens before the lock is handed
// over so the next holder observes the flag exactly as the previous Acquire
// found it.
func (l *IrqSpinlock) Release() {
	if l.wasEnabled {
		l.wasEnabled = false
		l.ic.EnableInterrupts()
	}
	l.lock.Release()
}
