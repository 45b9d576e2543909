// Package radio defines the logical radio collaborator shared by the air
// and ground relays. Concrete transceiver register programming is out of
// scope (spec.md §1); only Reset/Configure/Transmit/Receive/IsBusy form the
// core's dependency, and only the three-valued TX outcome (OK/BUSY/FAIL)
// matters to the scheduler and retry engines built on top of this package.
package radio

import "time"

// Result is the outcome of one Transmit attempt. BUSY and FAIL must never
// be collapsed into each other: BUSY means the local radio deferred and the
// downlink was never actually emitted, which is what keeps the ground
// relay's retry budget from being charged for it (spec.md §4.6, §9).
type Result int

const (
	OK Result = iota
	Busy
	Fail
)

func (r Result) String() string {
	switch r {
	case OK:
		return "OK"
	case Busy:
		return "BUSY"
	case Fail:
		return "FAIL"
	default:
		return "UNKNOWN"
	}
}

// Radio is the logical half-duplex transceiver collaborator. Implementations
// own the guard window between back-to-back TX attempts (§6: a minimum 5ms
// guard; a second attempt inside it returns Busy) and the TX-done timeout
// (~800ms; a timeout is reported as Fail, per §5).
type Radio interface {
	// Reset reinitialises the transceiver; used by the ground relay's RX
	// watchdog self-heal.
	Reset() error
	// Configure applies radio parameters (frequency, power, ...); called
	// once at node start, after Reset.
	Configure() error
	// Transmit attempts to send one payload. It returns promptly with one
	// of OK, Busy, or Fail — it never blocks for the full TX-done timeout
	// without eventually reporting Fail.
	Transmit(payload []byte) Result
	// Receive polls for at most one waiting packet. ok is false if none is
	// available; it must not block.
	Receive() (packet []byte, ok bool)
	// IsBusy reports whether the radio is mid-transmit.
	IsBusy() bool
}

// MaxPacket bounds a single radio packet per spec.md §6 (MAX_PAYLOAD + 7 for
// the full frame overhead).
const MaxPacket = 220 + 7

// Loopback is a Radio test double: it delivers every transmitted packet
// back out of Receive on the next poll, honours the TX guard window, and
// can be told to fail or go busy on demand. It is not a simulation of a
// physical transceiver; it exists to exercise the scheduler and retry
// engine deterministically.
type Loopback struct {
	GuardWindow time.Duration

	lastTxAt   time.Time
	haveLastTx bool

	forceResult *Result
	pending     [][]byte

	resets int
}

// NewLoopback returns a Loopback radio with the spec default 5ms TX guard.
func NewLoopback() *Loopback {
	return &Loopback{GuardWindow: 5 * time.Millisecond}
}

// ForceResult makes every Transmit call return r instead of the normal
// loopback behaviour until it is cleared by passing nil. A forced OK still
// queues the packet for Receive; a forced Busy or Fail does not.
func (l *Loopback) ForceResult(r *Result) { l.forceResult = r }

// Reset implements Radio.
func (l *Loopback) Reset() error {
	l.resets++
	l.pending = nil
	l.haveLastTx = false
	return nil
}

// ResetCount reports how many times Reset has been called, for tests that
// assert the RX watchdog self-healed.
func (l *Loopback) ResetCount() int { return l.resets }

// Configure implements Radio.
func (l *Loopback) Configure() error { return nil }

// Transmit implements Radio.
func (l *Loopback) Transmit(payload []byte) Result {
	if l.forceResult != nil {
		r := *l.forceResult
		if r == OK {
			l.pending = append(l.pending, append([]byte(nil), payload...))
		}
		return r
	}

	now := time.Now()
	if l.haveLastTx && now.Sub(l.lastTxAt) < l.GuardWindow {
		return Busy
	}
	l.lastTxAt = now
	l.haveLastTx = true

	if len(payload) > MaxPacket {
		return Fail
	}
	l.pending = append(l.pending, append([]byte(nil), payload...))
	return OK
}

// Receive implements Radio.
func (l *Loopback) Receive() ([]byte, bool) {
	if len(l.pending) == 0 {
		return nil, false
	}
	p := l.pending[0]
	l.pending = l.pending[1:]
	return p, true
}

// IsBusy implements Radio.
func (l *Loopback) IsBusy() bool {
	if !l.haveLastTx {
		return false
	}
	return time.Since(l.lastTxAt) < l.GuardWindow
}
