// Package airrelay implements the air-side gateway: a half-duplex TX
// scheduler with priority slots (§4.5), downlink whitelisting and
// forwarding to the controller's UART, and a raw-sniff diagnostic mode.
package airrelay

import (
	"github.com/buaawifi/uav-h2-supply-control/internal/logging"
	"github.com/buaawifi/uav-h2-supply-control/internal/protocol"
	"github.com/buaawifi/uav-h2-supply-control/internal/radio"
	"go.uber.org/zap"
)

// UART is the relay's connection to the controller: a bounded byte source
// for the downlink path and a non-blocking, back-pressure-aware sink for
// forwarded frames.
type UART interface {
	ReadByte() (b byte, ok bool)
	// WriteAvailable reports how many contiguous bytes of buffer room the
	// TX side currently has, so the relay can drop rather than block.
	WriteAvailable() int
	Write(p []byte) (int, error)
}

// Config holds the scheduler's tunables. A zero HeartbeatPeriodMs disables
// heartbeat generation.
type Config struct {
	TelemetryPeriodMs  uint32
	DownlinkSuppressMs uint32
	HeartbeatPeriodMs  uint32
}

// downlinkWhitelist is the set of msg_types the air relay will forward from
// radio to UART, and their exact expected payload length (§4.5).
var downlinkWhitelist = map[byte]int{
	protocol.MsgModeSwitch: protocol.ExpectedPayloadLen[protocol.MsgModeSwitch],
	protocol.MsgManualCmd:  protocol.ExpectedPayloadLen[protocol.MsgManualCmd],
	protocol.MsgSetpoints:  protocol.ExpectedPayloadLen[protocol.MsgSetpoints],
	protocol.MsgHeartbeat:  protocol.ExpectedPayloadLen[protocol.MsgHeartbeat],
}

// Relay is the air relay's owned scheduler state: the two TX slots, the
// downlink parser, and the drop/suppression bookkeeping.
type Relay struct {
	cfg Config

	uart UART
	rdo  radio.Radio

	highSlot  []byte
	telemSlot []byte

	parser *protocol.Parser

	lastDownlinkMs    uint32
	haveLastDownlink  bool
	lastTelemTxMs     uint32
	haveLastTelemTx   bool
	lastHeartbeatMs   uint32
	haveLastHeartbeat bool
	heartbeatSeq      byte
	uartDropCount     int
	rawSniff          bool
	rawSniffSink      func(packet []byte)
}

// New constructs a Relay.
func New(cfg Config, uart UART, rdo radio.Radio) *Relay {
	return &Relay{cfg: cfg, uart: uart, rdo: rdo, parser: protocol.NewParser()}
}

// EnqueueUplink is called once per frame emitted by the controller's UART.
// ACK and any non-telemetry frame go to the high-priority slot; Telemetry
// goes to the rate-gated telemetry slot. Both slots are last-writer-wins.
func (r *Relay) EnqueueUplink(msgType byte, frame []byte) {
	if msgType == protocol.MsgTelemetry {
		r.telemSlot = frame
		return
	}
	r.highSlot = frame
}

// SetRawSniff enables or disables raw-sniff mode. While enabled, downlink
// frame decoding/forwarding is suspended and every raw radio packet is
// handed to sink instead (§4.5).
func (r *Relay) SetRawSniff(enabled bool, sink func(packet []byte)) {
	r.rawSniff = enabled
	r.rawSniffSink = sink
}

// UARTDropCount reports how many forwarded frames were dropped for lack of
// UART buffer room.
func (r *Relay) UARTDropCount() int { return r.uartDropCount }

// Tick runs one scheduler iteration: UART drain + downlink forward, then TX
// service, per the ordering in spec.md §5 (this biases the scheduler
// against transmitting immediately after a downlink).
func (r *Relay) Tick(nowMs uint32) {
	r.drainUART(nowMs)
	r.serviceDownlink(nowMs)
	r.serviceHeartbeat(nowMs)
	r.serviceTx(nowMs)
}

// serviceHeartbeat keeps the controller's link-liveness alive from the air
// side: an empty Heartbeat frame down the UART every HeartbeatPeriodMs, so
// the controller does not fall back to SAFE merely because the host went
// quiet (§6: HEARTBEAT_PERIOD, air→controller).
func (r *Relay) serviceHeartbeat(nowMs uint32) {
	if r.cfg.HeartbeatPeriodMs == 0 {
		return
	}
	if r.haveLastHeartbeat && wrapDiff(r.lastHeartbeatMs, nowMs) < r.cfg.HeartbeatPeriodMs {
		return
	}

	r.heartbeatSeq++
	if r.heartbeatSeq == 0 {
		r.heartbeatSeq = 1
	}
	frame, err := protocol.Encode(protocol.MsgHeartbeat, r.heartbeatSeq, nil)
	if err != nil {
		return
	}
	if r.uart.WriteAvailable() < len(frame) {
		r.uartDropCount++
		return
	}
	_, _ = r.uart.Write(frame)
	r.lastHeartbeatMs = nowMs
	r.haveLastHeartbeat = true
}

func (r *Relay) drainUART(nowMs uint32) {
	for i := 0; i < 256; i++ {
		b, ok := r.uart.ReadByte()
		if !ok {
			return
		}
		frame, emitted := r.parser.Feed(b)
		if !emitted {
			continue
		}
		encoded, err := protocol.Encode(frame.MsgType, frame.Seq, frame.Payload)
		if err != nil {
			continue
		}
		r.EnqueueUplink(frame.MsgType, encoded)
	}
}

func (r *Relay) serviceDownlink(nowMs uint32) {
	packet, ok := r.rdo.Receive()
	if !ok {
		return
	}
	r.lastDownlinkMs = nowMs
	r.haveLastDownlink = true

	if r.rawSniff {
		if r.rawSniffSink != nil {
			r.rawSniffSink(packet)
		}
		return
	}

	p := protocol.NewParser()
	for _, b := range packet {
		frame, emitted := p.Feed(b)
		if !emitted {
			continue
		}
		expected, whitelisted := downlinkWhitelist[frame.MsgType]
		if !whitelisted || len(frame.Payload) != expected {
			continue
		}
		encoded, err := protocol.Encode(frame.MsgType, frame.Seq, frame.Payload)
		if err != nil {
			continue
		}
		if r.uart.WriteAvailable() < len(encoded) {
			r.uartDropCount++
			logging.Warn("dropping downlink frame: UART buffer full",
				zap.Int("msg_type", int(frame.MsgType)), zap.Int("length", len(encoded)))
			continue
		}
		_, _ = r.uart.Write(encoded)
	}
}

func (r *Relay) serviceTx(nowMs uint32) {
	suppressTelemetry := r.haveLastDownlink && wrapDiff(r.lastDownlinkMs, nowMs) < r.cfg.DownlinkSuppressMs

	if len(r.highSlot) > 0 && wellFormed(r.highSlot) {
		switch r.rdo.Transmit(r.highSlot) {
		case radio.OK:
			r.highSlot = nil
		case radio.Busy:
			// Leave the slot; no retry counter at this layer (§4.5).
		case radio.Fail:
			logging.Warn("air relay: high-priority TX failed")
		}
		return
	}

	if suppressTelemetry {
		return
	}

	if len(r.telemSlot) == 0 {
		return
	}
	if r.haveLastTelemTx && wrapDiff(r.lastTelemTxMs, nowMs) < r.cfg.TelemetryPeriodMs {
		return
	}
	switch r.rdo.Transmit(r.telemSlot) {
	case radio.OK:
		r.telemSlot = nil
		r.lastTelemTxMs = nowMs
		r.haveLastTelemTx = true
	case radio.Busy:
		// Keep the slot.
	case radio.Fail:
		logging.Warn("air relay: telemetry TX failed")
	}
}

func wellFormed(frame []byte) bool {
	return len(frame) >= 2 && frame[0] == 0x55 && frame[1] == 0xAA
}

func wrapDiff(a, b uint32) uint32 { return b - a }
