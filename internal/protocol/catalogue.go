package protocol

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Message type codes. These are the only message types the link understands;
// anything else is an unknown msg_type per spec.
const (
	MsgTelemetry  byte = 0x01
	MsgModeSwitch byte = 0x10
	MsgSetpoints  byte = 0x11
	MsgManualCmd  byte = 0x12
	MsgAck        byte = 0x20
	MsgHeartbeat  byte = 0x23
)

// Mode is the controller's operating mode, as carried on the wire by
// ModeSwitch. Telemetry carries no mode field.
type Mode byte

const (
	ModeSafe Mode = iota
	ModeManual
	ModeAuto
)

func (m Mode) String() string {
	switch m {
	case ModeSafe:
		return "SAFE"
	case ModeManual:
		return "MANUAL"
	case ModeAuto:
		return "AUTO"
	default:
		return fmt.Sprintf("Mode(%d)", byte(m))
	}
}

// Ack status codes.
const (
	StatusOK  byte = 0
	StatusErr byte = 1
)

// ManualCmd presence-flag bits.
const (
	ManualFlagHeater byte = 1 << 0
	ManualFlagValve  byte = 1 << 1
	ManualFlagPump   byte = 1 << 2
)

// Setpoints enable-mask bits.
const (
	SetpointEnableT     byte = 1 << 0
	SetpointEnableP     byte = 1 << 1
	SetpointEnableValve byte = 1 << 2
	SetpointEnablePump  byte = 1 << 3
)

// ExpectedPayloadLen is the whitelist of known message types and their
// exact wire payload length. Frames whose payload length does not match
// the type's entry here are malformed at the message layer (§4.2: they
// produce Ack(ERR) at the controller, or are dropped at the air relay's
// downlink whitelist).
var ExpectedPayloadLen = map[byte]int{
	MsgTelemetry:  33,
	MsgModeSwitch: 1,
	MsgSetpoints:  17,
	MsgManualCmd:  13,
	MsgAck:        2,
	MsgHeartbeat:  0,
}

// Telemetry is the controller's periodic status report.
type Telemetry struct {
	TimestampMs uint32
	TempCount   uint8
	TempC       [4]float32
	PressurePa  float32
	HeaterPct   float32
	ValvePct    float32
}

// EncodeTelemetry packs t into its wire payload.
func EncodeTelemetry(t Telemetry) []byte {
	buf := make([]byte, ExpectedPayloadLen[MsgTelemetry])
	binary.LittleEndian.PutUint32(buf[0:4], t.TimestampMs)
	buf[4] = t.TempCount
	off := 5
	for i := 0; i < 4; i++ {
		binary.LittleEndian.PutUint32(buf[off:off+4], math.Float32bits(t.TempC[i]))
		off += 4
	}
	binary.LittleEndian.PutUint32(buf[off:off+4], math.Float32bits(t.PressurePa))
	off += 4
	binary.LittleEndian.PutUint32(buf[off:off+4], math.Float32bits(t.HeaterPct))
	off += 4
	binary.LittleEndian.PutUint32(buf[off:off+4], math.Float32bits(t.ValvePct))
	return buf
}

// DecodeTelemetry unpacks a Telemetry payload. ok is false if payload is
// not the expected length.
func DecodeTelemetry(payload []byte) (t Telemetry, ok bool) {
	if len(payload) != ExpectedPayloadLen[MsgTelemetry] {
		return Telemetry{}, false
	}
	t.TimestampMs = binary.LittleEndian.Uint32(payload[0:4])
	t.TempCount = payload[4]
	off := 5
	for i := 0; i < 4; i++ {
		t.TempC[i] = math.Float32frombits(binary.LittleEndian.Uint32(payload[off : off+4]))
		off += 4
	}
	t.PressurePa = math.Float32frombits(binary.LittleEndian.Uint32(payload[off : off+4]))
	off += 4
	t.HeaterPct = math.Float32frombits(binary.LittleEndian.Uint32(payload[off : off+4]))
	off += 4
	t.ValvePct = math.Float32frombits(binary.LittleEndian.Uint32(payload[off : off+4]))
	return t, true
}

// EncodeModeSwitch packs a mode change request.
func EncodeModeSwitch(mode Mode) []byte {
	return []byte{byte(mode)}
}

// DecodeModeSwitch unpacks a ModeSwitch payload.
func DecodeModeSwitch(payload []byte) (mode Mode, ok bool) {
	if len(payload) != ExpectedPayloadLen[MsgModeSwitch] {
		return 0, false
	}
	return Mode(payload[0]), true
}

// Setpoints carries automatic-mode targets; EnableMask marks which fields
// are valid (§3).
type Setpoints struct {
	T          float32
	P          float32
	ValveSP    float32
	PumpT      float32
	EnableMask byte
}

// EncodeSetpoints packs s into its wire payload.
func EncodeSetpoints(s Setpoints) []byte {
	buf := make([]byte, ExpectedPayloadLen[MsgSetpoints])
	binary.LittleEndian.PutUint32(buf[0:4], math.Float32bits(s.T))
	binary.LittleEndian.PutUint32(buf[4:8], math.Float32bits(s.P))
	binary.LittleEndian.PutUint32(buf[8:12], math.Float32bits(s.ValveSP))
	binary.LittleEndian.PutUint32(buf[12:16], math.Float32bits(s.PumpT))
	buf[16] = s.EnableMask
	return buf
}

// DecodeSetpoints unpacks a Setpoints payload.
func DecodeSetpoints(payload []byte) (s Setpoints, ok bool) {
	if len(payload) != ExpectedPayloadLen[MsgSetpoints] {
		return Setpoints{}, false
	}
	s.T = math.Float32frombits(binary.LittleEndian.Uint32(payload[0:4]))
	s.P = math.Float32frombits(binary.LittleEndian.Uint32(payload[4:8]))
	s.ValveSP = math.Float32frombits(binary.LittleEndian.Uint32(payload[8:12]))
	s.PumpT = math.Float32frombits(binary.LittleEndian.Uint32(payload[12:16]))
	s.EnableMask = payload[16]
	return s, true
}

// ManualCmd carries operator-issued actuator overrides; Flags marks which
// fields are present (§3) — a field not flagged must be treated as absent,
// not as zero.
type ManualCmd struct {
	Flags     byte
	HeaterPct float32
	ValvePct  float32
	PumpT     float32
}

// EncodeManualCmd packs m into its wire payload.
func EncodeManualCmd(m ManualCmd) []byte {
	buf := make([]byte, ExpectedPayloadLen[MsgManualCmd])
	buf[0] = m.Flags
	binary.LittleEndian.PutUint32(buf[1:5], math.Float32bits(m.HeaterPct))
	binary.LittleEndian.PutUint32(buf[5:9], math.Float32bits(m.ValvePct))
	binary.LittleEndian.PutUint32(buf[9:13], math.Float32bits(m.PumpT))
	return buf
}

// DecodeManualCmd unpacks a ManualCmd payload.
func DecodeManualCmd(payload []byte) (m ManualCmd, ok bool) {
	if len(payload) != ExpectedPayloadLen[MsgManualCmd] {
		return ManualCmd{}, false
	}
	m.Flags = payload[0]
	m.HeaterPct = math.Float32frombits(binary.LittleEndian.Uint32(payload[1:5]))
	m.ValvePct = math.Float32frombits(binary.LittleEndian.Uint32(payload[5:9]))
	m.PumpT = math.Float32frombits(binary.LittleEndian.Uint32(payload[9:13]))
	return m, true
}

// Ack acknowledges a previously received message.
type Ack struct {
	AckedMsgType byte
	Status       byte
}

// EncodeAck packs a into its wire payload.
func EncodeAck(a Ack) []byte {
	return []byte{a.AckedMsgType, a.Status}
}

// DecodeAck unpacks an Ack payload.
func DecodeAck(payload []byte) (a Ack, ok bool) {
	if len(payload) != ExpectedPayloadLen[MsgAck] {
		return Ack{}, false
	}
	return Ack{AckedMsgType: payload[0], Status: payload[1]}, true
}
