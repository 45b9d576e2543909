// Package transport wraps a physical serial port (the UART between
// controller and air relay) with the bounded, non-blocking read behaviour
// the link's dataplane relies on: a fixed-size ring buffer absorbing reads
// between ticks, and a WriteAvailable room report that callers check before
// writing (§6, §5). Write itself passes straight through to the port.
package transport

import (
	"io"
	"sync"

	"go.bug.st/serial"

	"github.com/buaawifi/uav-h2-supply-control/internal/linkerror"
	"github.com/buaawifi/uav-h2-supply-control/internal/logging"
	"go.uber.org/zap"
)

// DefaultBufferSize is the size of the RX ring buffer, above the ≥ 1 KiB
// per-direction minimum of spec.md §6.
const DefaultBufferSize = 4096

// Port wraps an open serial.Port with a background reader goroutine that
// drains incoming bytes into a ring buffer, so ReadByte never blocks the
// caller's tick loop. Write does not check for room itself; non-blocking
// back-pressure (§4.5/§6) relies on callers checking WriteAvailable first.
type Port struct {
	port serial.Port
	name string

	mu      sync.Mutex
	ring    []byte
	head    int
	tail    int
	count   int
	closeCh chan struct{}
}

// Open opens the named serial device at the given baud rate, 8N1 (the node
// binaries pass 115200, §6), and starts the background reader.
func Open(device string, baud int) (*Port, error) {
	mode := &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	sp, err := serial.Open(device, mode)
	if err != nil {
		return nil, linkerror.NewIOError(device, "failed to open serial port", err)
	}

	p := &Port{
		port:    sp,
		name:    device,
		ring:    make([]byte, DefaultBufferSize),
		closeCh: make(chan struct{}),
	}
	go p.readLoop()
	return p, nil
}

func (p *Port) readLoop() {
	buf := make([]byte, 256)
	for {
		select {
		case <-p.closeCh:
			return
		default:
		}
		n, err := p.port.Read(buf)
		if err != nil {
			if err != io.EOF {
				logging.Warn("transport: read error", zap.String("device", p.name), zap.Error(err))
			}
			return
		}
		if n == 0 {
			continue
		}
		p.enqueue(buf[:n])
	}
}

func (p *Port) enqueue(data []byte) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, b := range data {
		if p.count == len(p.ring) {
			// Ring full: drop the oldest byte rather than block the reader.
			p.head = (p.head + 1) % len(p.ring)
			p.count--
			logging.Warn("transport: RX ring buffer full, dropping oldest byte", zap.String("device", p.name))
		}
		p.ring[p.tail] = b
		p.tail = (p.tail + 1) % len(p.ring)
		p.count++
	}
}

// ReadByte pops the oldest buffered byte. ok is false if nothing is
// buffered; it never blocks.
func (p *Port) ReadByte() (b byte, ok bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.count == 0 {
		return 0, false
	}
	b = p.ring[p.head]
	p.head = (p.head + 1) % len(p.ring)
	p.count--
	return b, true
}

// WriteAvailable reports the ring buffer's free space, standing in for the
// UART TX FIFO's free contiguous room (§6).
func (p *Port) WriteAvailable() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.ring) - p.count
}

// Write writes p's bytes to the underlying port. Callers that need
// non-blocking drop-on-congestion semantics should check WriteAvailable
// first, as internal/airrelay does.
func (p *Port) Write(data []byte) (int, error) {
	return p.port.Write(data)
}

// Close stops the reader goroutine and closes the underlying port.
func (p *Port) Close() error {
	close(p.closeCh)
	return p.port.Close()
}
