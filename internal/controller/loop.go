// Package controller implements the fuel controller's per-tick control
// loop: link poll, sample, compute, safety clamp, actuate, telemetry TX, in
// that strict order (§4.2, §5). The loop owns no clock and no concrete I/O;
// it is driven by an explicit nowMs and talks to small collaborator
// interfaces so it can be exercised deterministically in tests.
package controller

import (
	"github.com/buaawifi/uav-h2-supply-control/internal/controlstate"
	"github.com/buaawifi/uav-h2-supply-control/internal/protocol"
	"github.com/buaawifi/uav-h2-supply-control/internal/safety"
)

// Link is the controller's UART collaborator: a bounded, non-blocking byte
// source and a frame sink. The loop drains at most MaxDrainPerTick octets
// (one per ReadByte call) per tick (§5).
type Link interface {
	ReadByte() (b byte, ok bool)
	Write(frame []byte) error
}

// SensorSource is the external sensor collaborator (RTDs + pressure
// transducer); out of scope per spec.md §1, modeled here only as the
// boundary the loop depends on.
type SensorSource interface {
	Sample(nowMs uint32) controlstate.Telemetry
}

// ActuatorSink is the external actuator-drive collaborator.
type ActuatorSink interface {
	Apply(nowMs uint32, outputs controlstate.Outputs)
}

// AutoController is the AUTO-mode delegate. It MUST be a pure function of
// state and telemetry and must not mutate state (§4.2). ZeroAutoController
// below is the reference placeholder the spec requires.
type AutoController interface {
	Compute(state *controlstate.State, telem controlstate.Telemetry) controlstate.Outputs
}

// ZeroAutoController is the placeholder AUTO delegate: it always returns
// zero outputs. A real automatic-control algorithm is out of scope (§1).
type ZeroAutoController struct{}

// Compute implements AutoController.
func (ZeroAutoController) Compute(*controlstate.State, controlstate.Telemetry) controlstate.Outputs {
	return controlstate.Outputs{}
}

// MaxDrainPerTick bounds how many UART octets a single tick's link poll
// will consume (§5).
const MaxDrainPerTick = 256

// Config bundles the loop's tunables.
type Config struct {
	TelemetryPeriodMs uint32
	Safety            safety.Config
}

// Loop is the controller's owned, mutable per-tick machinery. It is
// constructed once at node start and driven by repeated calls to Tick;
// there is no concurrency inside it.
type Loop struct {
	cfg Config

	State *controlstate.State

	link   Link
	sensor SensorSource
	auto   AutoController
	actsnk ActuatorSink

	parser *protocol.Parser
	seq    byte

	lastTelemetryTxMs uint32
	haveSentTelemetry bool
}

// New constructs a Loop ready to run. state is owned by the caller and
// mutated in place by every Tick.
func New(cfg Config, state *controlstate.State, link Link, sensor SensorSource, auto AutoController, actuators ActuatorSink) *Loop {
	if auto == nil {
		auto = ZeroAutoController{}
	}
	return &Loop{
		cfg:    cfg,
		State:  state,
		link:   link,
		sensor: sensor,
		auto:   auto,
		actsnk: actuators,
		parser: protocol.NewParser(),
	}
}

// Tick runs exactly one iteration of the loop body at nowMs.
func (l *Loop) Tick(nowMs uint32) {
	l.linkPoll(nowMs)

	telem := l.sensor.Sample(nowMs)

	outputs := l.compute(telem)
	outputs = safety.Evaluate(l.cfg.Safety, l.State, telem, outputs, nowMs)

	l.actsnk.Apply(nowMs, outputs)

	if !l.haveSentTelemetry || wrapDiff(l.lastTelemetryTxMs, nowMs) >= l.cfg.TelemetryPeriodMs {
		l.sendTelemetry(nowMs, telem, outputs)
		l.lastTelemetryTxMs = nowMs
		l.haveSentTelemetry = true
	}
}

func wrapDiff(a, b uint32) uint32 { return b - a }

func (l *Loop) linkPoll(nowMs uint32) {
	for i := 0; i < MaxDrainPerTick; i++ {
		b, ok := l.link.ReadByte()
		if !ok {
			return
		}
		frame, emitted := l.parser.Feed(b)
		if !emitted {
			continue
		}
		l.handleFrame(nowMs, frame)
	}
}

func (l *Loop) handleFrame(nowMs uint32, frame protocol.Frame) {
	l.State.NoteFrameReceived(nowMs)

	expected, known := protocol.ExpectedPayloadLen[frame.MsgType]
	if !known {
		// Unknown msg_type: silently ignored, no Ack (§4.2, avoids
		// feedback loops with a retry engine upstream).
		return
	}
	if len(frame.Payload) != expected {
		l.sendAck(frame.MsgType, frame.Seq, protocol.StatusErr)
		return
	}

	switch frame.MsgType {
	case protocol.MsgModeSwitch:
		mode, _ := protocol.DecodeModeSwitch(frame.Payload)
		l.State.Mode = mode
		l.sendAck(frame.MsgType, frame.Seq, protocol.StatusOK)
	case protocol.MsgSetpoints:
		sp, _ := protocol.DecodeSetpoints(frame.Payload)
		l.State.ApplySetpoints(sp, nowMs)
		l.sendAck(frame.MsgType, frame.Seq, protocol.StatusOK)
	case protocol.MsgManualCmd:
		cmd, _ := protocol.DecodeManualCmd(frame.Payload)
		l.State.ApplyManualCmd(cmd, nowMs)
		l.sendAck(frame.MsgType, frame.Seq, protocol.StatusOK)
	case protocol.MsgHeartbeat:
		// Silent: link liveness already refreshed above.
	default:
		// Telemetry/Ack arriving at the controller is unexpected but
		// harmless; ignore without Ack.
	}
}

func (l *Loop) sendAck(ackedType, seq, status byte) {
	payload := protocol.EncodeAck(protocol.Ack{AckedMsgType: ackedType, Status: status})
	frame, err := protocol.Encode(protocol.MsgAck, seq, payload)
	if err != nil {
		return
	}
	_ = l.link.Write(frame)
}

func (l *Loop) compute(telem controlstate.Telemetry) controlstate.Outputs {
	switch l.State.Mode {
	case controlstate.ModeSafe:
		return controlstate.Outputs{}
	case controlstate.ModeManual:
		return l.computeManual()
	case controlstate.ModeAuto:
		return l.auto.Compute(l.State, telem)
	default:
		return controlstate.Outputs{}
	}
}

func (l *Loop) computeManual() controlstate.Outputs {
	var out controlstate.Outputs
	if !l.State.HaveManualCmd {
		return out
	}
	cmd := l.State.ManualCmd
	if cmd.Flags&protocol.ManualFlagHeater != 0 {
		out.HeaterPct = clampPct(cmd.HeaterPct)
	}
	if cmd.Flags&protocol.ManualFlagValve != 0 {
		out.ValvePct = clampPct(cmd.ValvePct)
	}
	if cmd.Flags&protocol.ManualFlagPump != 0 {
		out.PumpT = cmd.PumpT // pump_T passed through unclamped (§4.2)
	}
	return out
}

func clampPct(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

func (l *Loop) nextSeq() byte {
	l.seq++
	if l.seq == 0 {
		l.seq = 1
	}
	return l.seq
}

func (l *Loop) sendTelemetry(nowMs uint32, telem controlstate.Telemetry, outputs controlstate.Outputs) {
	wire := protocol.Telemetry{
		TimestampMs: nowMs,
		TempCount:   telem.TempCount,
		TempC:       telem.TempC,
		PressurePa:  telem.PressurePa,
		HeaterPct:   outputs.HeaterPct,
		ValvePct:    outputs.ValvePct,
	}
	frame, err := protocol.Encode(protocol.MsgTelemetry, l.nextSeq(), protocol.EncodeTelemetry(wire))
	if err != nil {
		return
	}
	_ = l.link.Write(frame)
}
