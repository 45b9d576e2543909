// Package controlstate holds the controller's single-owner, single-threaded
// state: the current mode, the last validated commands, and the timestamps
// that drive link-liveness and safety decisions. It carries no behaviour of
// its own beyond the small invariant-preserving setters below; the policy
// that mutates it lives in internal/safety and internal/controller.
package controlstate

import "github.com/buaawifi/uav-h2-supply-control/internal/protocol"

// Mode is re-exported from protocol so callers needn't import both packages
// for the one enum that crosses the wire boundary.
type Mode = protocol.Mode

const (
	ModeSafe   = protocol.ModeSafe
	ModeManual = protocol.ModeManual
	ModeAuto   = protocol.ModeAuto
)

// Setpoints mirrors the wire Setpoints message with its enable mask intact,
// so AUTO-mode delegates can tell an unset field from a zero one.
type Setpoints = protocol.Setpoints

// ManualCmd mirrors the wire ManualCmd message with its presence flags
// intact, so mode policy can tell an unset field from a zero one.
type ManualCmd = protocol.ManualCmd

// Outputs is what the mode policy computes and the safety stage may clamp
// before it reaches the actuator collaborators.
type Outputs struct {
	HeaterPct float32
	ValvePct  float32
	PumpT     float32
}

// Telemetry is the controller-local view of a fresh sensor sample, before
// it is packed onto the wire. TempCount bounds how many of TempC are valid.
type Telemetry struct {
	TimestampMs uint32
	TempCount   uint8
	TempC       [4]float32
	PressurePa  float32
}

// State is the controller's complete mutable state, owned by the loop that
// runs internal/controller and mutated in place tick by tick. There is
// exactly one instance per controller process; it is never shared across
// goroutines.
type State struct {
	Mode Mode

	Setpoints     Setpoints
	HaveSetpoints bool

	ManualCmd     ManualCmd
	HaveManualCmd bool

	LastCmdMs           uint32
	LastSetpointMs      uint32
	LastManualMs        uint32
	LastLinkHeartbeatMs uint32

	LinkAlive bool
}

// New returns a State in its initial SAFE, link-down configuration.
func New() *State {
	return &State{Mode: ModeSafe}
}

// NoteFrameReceived refreshes link-liveness bookkeeping. It must be called
// for every frame the controller accepts off the wire, including ones that
// are otherwise ignored (e.g. Heartbeat), per spec: any valid frame revives
// the link.
func (s *State) NoteFrameReceived(nowMs uint32) {
	s.LastCmdMs = nowMs
	s.LinkAlive = true
	s.LastLinkHeartbeatMs = nowMs
}

// ApplySetpoints records a newly validated Setpoints message.
func (s *State) ApplySetpoints(sp Setpoints, nowMs uint32) {
	s.Setpoints = sp
	s.HaveSetpoints = true
	s.LastSetpointMs = nowMs
}

// ApplyManualCmd records a newly validated ManualCmd message.
func (s *State) ApplyManualCmd(cmd ManualCmd, nowMs uint32) {
	s.ManualCmd = cmd
	s.HaveManualCmd = true
	s.LastManualMs = nowMs
}
