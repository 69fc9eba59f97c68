package machine

import "sync"

// PortHandler is implemented by every simulated device attached to the port
// bus. A handler claims a fixed set of ports and services byte reads and
// writes on them.
type PortHandler interface {
	Ports() []uint16
	ReadPort(port uint16) uint8
	WritePort(port uint16, val uint8)
}

// Bus routes port I/O to the simulated devices. It satisfies cpu.PortIO, so
// the drivers program the simulated hardware through the same interface they
// would use against real ports. Reads from unclaimed ports float high
// (0xff); writes to unclaimed ports are dropped.
type Bus struct {
	mu       sync.Mutex
	handlers map[uint16]PortHandler
}

// NewBus returns a bus with no devices attached.
func NewBus() *Bus {
	return &Bus{handlers: make(map[uint16]PortHandler)}
}

// Attach claims h's ports on the bus, replacing any previous claimant.
func (b *Bus) Attach(h PortHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, port := range h.Ports() {
		b.handlers[port] = h
	}
}

// ReadByte reads a byte from the given port.
func (b *Bus) ReadByte(port uint16) uint8 {
	b.mu.Lock()
	defer b.mu.Unlock()

	h := b.handlers[port]
	if h == nil {
		return 0xff
	}
	return h.ReadPort(port)
}

// WriteByte writes a byte to the given port.
func (b *Bus) WriteByte(port uint16, val uint8) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if h := b.handlers[port]; h != nil {
		h.WritePort(port, val)
	}
}
