// Package safety implements the controller's interlock: the rules that can
// force the control state back to SAFE regardless of what mode policy just
// computed. It runs after mode compute and before actuation (§4.3), so a
// MANUAL command cannot dodge the interlock by being evaluated last.
package safety

import (
	"math"

	"github.com/buaawifi/uav-h2-supply-control/internal/controlstate"
)

// Config holds the tunable interlock thresholds.
type Config struct {
	LinkTimeoutMs uint32
	MaxTempC      float32
}

// wrapDiff computes b-a as an unsigned 32-bit difference, tolerating clock
// wraparound per spec.md §5/§9.
func wrapDiff(a, b uint32) uint32 {
	return b - a
}

// Evaluate applies the interlock rules in order to state, given the fresh
// telemetry and the outputs mode-compute just produced. It returns the
// (possibly clamped) outputs; state.Mode is mutated in place.
func Evaluate(cfg Config, state *controlstate.State, telem controlstate.Telemetry, outputs controlstate.Outputs, nowMs uint32) controlstate.Outputs {
	if state.LinkAlive && wrapDiff(state.LastLinkHeartbeatMs, nowMs) > cfg.LinkTimeoutMs {
		state.LinkAlive = false
	}
	if !state.LinkAlive {
		state.Mode = controlstate.ModeSafe
	}

	count := int(telem.TempCount)
	if count > len(telem.TempC) {
		count = len(telem.TempC)
	}
	for i := 0; i < count; i++ {
		v := telem.TempC[i]
		if math.IsNaN(float64(v)) {
			continue
		}
		if v > cfg.MaxTempC {
			state.Mode = controlstate.ModeSafe
			break
		}
	}

	if state.Mode == controlstate.ModeSafe {
		outputs = controlstate.Outputs{}
	}
	return outputs
}
