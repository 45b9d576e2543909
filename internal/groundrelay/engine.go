package groundrelay

import (
	"github.com/buaawifi/uav-h2-supply-control/internal/logging"
	"github.com/buaawifi/uav-h2-supply-control/internal/protocol"
	"github.com/buaawifi/uav-h2-supply-control/internal/radio"
	"go.uber.org/zap"
)

// Config holds the reliable-downlink engine's tunables (§6).
type Config struct {
	AckTimeoutMs     uint32
	MaxRetry         int
	RxWatchdogMs     uint32
	ReinitCooldownMs uint32
	BusyWarnAfterMs  uint32
	BusyWarnEveryMs  uint32
}

// DefaultConfig returns the spec.md §6 compile-time defaults.
func DefaultConfig() Config {
	return Config{
		AckTimeoutMs:     400,
		MaxRetry:         3,
		RxWatchdogMs:     5000,
		ReinitCooldownMs: 3000,
		BusyWarnAfterMs:  3000,
		BusyWarnEveryMs:  1000,
	}
}

// LineSink receives the byte-exact USB shell output lines (§6).
type LineSink interface {
	WriteLine(line Line)
}

// Engine is the ground relay's owned reliable-downlink state: the radio
// collaborator, the single PendingCommand slot, the sequence counter, and
// the RX watchdog bookkeeping.
type Engine struct {
	cfg Config
	rdo radio.Radio
	out LineSink

	// FrameHook, when non-nil, observes every frame decoded off the radio
	// before line formatting. The dashboard and monitor feeds hang off it;
	// it must not block.
	FrameHook func(frame protocol.Frame)

	seq     byte
	pending PendingCommand

	rawSniff bool

	haveEverReceived bool
	lastPacketMs     uint32
	haveLastSelfHeal bool
	lastSelfHealMs   uint32
}

// New constructs an Engine.
func New(cfg Config, rdo radio.Radio, out LineSink) *Engine {
	return &Engine{cfg: cfg, rdo: rdo, out: out}
}

func (e *Engine) nextSeq() byte {
	e.seq++
	if e.seq == 0 { // skip 0 on wrap
		e.seq = 1
	}
	return e.seq
}

// Submit encodes (msgType, payload) with the next sequence number, attempts
// one immediate radio TX at nowMs, and installs a PendingCommand if msgType
// expects an Ack (§4.6). It returns the sequence number used.
func (e *Engine) Submit(msgType byte, payload []byte, nowMs uint32) (byte, error) {
	seq := e.nextSeq()
	frame, err := protocol.Encode(msgType, seq, payload)
	if err != nil {
		return seq, err
	}

	result := e.rdo.Transmit(frame)

	if ackExpecting[msgType] {
		e.pending = PendingCommand{
			Active:  true,
			MsgType: msgType,
			Seq:     seq,
			Frame:   frame,
		}
		switch result {
		case radio.OK, radio.Fail:
			e.pending.SentOnce = true
			e.pending.LastSendMs = nowMs
		case radio.Busy:
			// sent_once stays false; retry service will attempt again.
		}
	}
	return seq, nil
}

// Tick runs the RX drain (including Ack matching) and then the retry
// service, in that order (§5: a retry is never issued in the same tick an
// Ack arrived).
func (e *Engine) Tick(nowMs uint32) {
	e.serviceRx(nowMs)
	e.serviceRetry(nowMs)
	e.serviceWatchdog(nowMs)
}

// Pending returns a snapshot of the PendingCommand slot, for status
// surfaces (dashboard, monitor).
func (e *Engine) Pending() PendingCommand { return e.pending }

// SetRawSniff enables or disables raw-sniff mode on the ground side. While
// enabled, received packets are hex-dumped to the shell instead of being
// parsed, and Ack matching is suspended.
func (e *Engine) SetRawSniff(enabled bool) { e.rawSniff = enabled }

func (e *Engine) serviceRx(nowMs uint32) {
	packet, ok := e.rdo.Receive()
	if !ok {
		return
	}
	e.haveEverReceived = true
	e.lastPacketMs = nowMs

	if e.rawSniff {
		e.out.WriteLine(rawPacketLine(packet))
		return
	}

	p := protocol.NewParser()
	for _, b := range packet {
		frame, emitted := p.Feed(b)
		if !emitted {
			continue
		}
		e.handleRxFrame(frame)
	}
}

func (e *Engine) handleRxFrame(frame protocol.Frame) {
	if e.FrameHook != nil {
		e.FrameHook(frame)
	}

	switch frame.MsgType {
	case protocol.MsgTelemetry:
		t, ok := protocol.DecodeTelemetry(frame.Payload)
		if !ok {
			return
		}
		e.out.WriteLine(FormatTelemetryLine(t))

	case protocol.MsgAck:
		ack, ok := protocol.DecodeAck(frame.Payload)
		if !ok {
			return
		}
		e.out.WriteLine(FormatAckLine(ack))
		if !e.pending.Active {
			return
		}
		if ack.AckedMsgType != e.pending.MsgType || frame.Seq != e.pending.Seq {
			logging.LogAckMismatch(e.pending.MsgType, ack.AckedMsgType, e.pending.Seq, frame.Seq)
			return
		}
		// A negative ack is still a terminal response (§4.6).
		e.pending.Active = false
		e.out.WriteLine(ackReceivedLine(ack.AckedMsgType, frame.Seq, ack.Status))
	}
}

func (e *Engine) serviceRetry(nowMs uint32) {
	p := &e.pending
	if !p.Active {
		return
	}

	if !p.SentOnce {
		result := e.rdo.Transmit(p.Frame)
		switch result {
		case radio.OK, radio.Fail:
			p.SentOnce = true
			p.LastSendMs = nowMs
			p.haveBusySince = false
		case radio.Busy:
			e.noteBusy(p, nowMs)
		}
		return
	}

	if wrapDiff(p.LastSendMs, nowMs) < e.cfg.AckTimeoutMs {
		return
	}

	if p.Retry >= e.cfg.MaxRetry {
		e.out.WriteLine(failLine(p.MsgType, p.Seq))
		p.Active = false
		return
	}

	result := e.rdo.Transmit(p.Frame)
	switch result {
	case radio.Busy:
		e.noteBusy(p, nowMs)
	case radio.OK, radio.Fail:
		p.Retry++
		p.LastSendMs = nowMs
		p.haveBusySince = false
		e.out.WriteLine(retryLine(p.Retry, p.MsgType, p.Seq))
	}
}

func (e *Engine) noteBusy(p *PendingCommand, nowMs uint32) {
	if !p.haveBusySince {
		p.haveBusySince = true
		p.BusySinceMs = nowMs
	}
	busyFor := wrapDiff(p.BusySinceMs, nowMs)
	if busyFor <= e.cfg.BusyWarnAfterMs {
		return
	}
	if p.haveLastBusy && wrapDiff(p.LastBusyWarnMs, nowMs) < e.cfg.BusyWarnEveryMs {
		return
	}
	p.haveLastBusy = true
	p.LastBusyWarnMs = nowMs
	e.out.WriteLine(busyWarningLine)
}

func (e *Engine) serviceWatchdog(nowMs uint32) {
	if !e.haveEverReceived {
		return
	}
	if wrapDiff(e.lastPacketMs, nowMs) < e.cfg.RxWatchdogMs {
		return
	}
	if e.haveLastSelfHeal && wrapDiff(e.lastSelfHealMs, nowMs) < e.cfg.ReinitCooldownMs {
		return
	}
	logging.Warn("ground relay: RX watchdog reinitialising radio",
		zap.Uint32("since_last_packet_ms", wrapDiff(e.lastPacketMs, nowMs)))
	_ = e.rdo.Reset()
	e.lastSelfHealMs = nowMs
	e.haveLastSelfHeal = true
	e.lastPacketMs = nowMs // avoid immediate re-trigger
}

func wrapDiff(a, b uint32) uint32 { return b - a }
