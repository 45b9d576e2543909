// Package actuator translates percent-valued outputs into the two physical
// drive disciplines the hardware supports: a digital time-proportional
// valve and a continuous PWM heater. Both take an explicit millisecond
// clock rather than reading one themselves, per spec.md §9's "no hidden
// clock read" rule — this is what makes the duty-cycle math deterministically
// testable.
package actuator

import "math"

// Level is a two-state digital output.
type Level bool

const (
	Low  Level = false
	High Level = true
)

// ValveDriver realises a percent command as a duty cycle over a fixed
// cycle period, per spec.md §4.4. It holds a single cycle origin and
// advances it in whole-period jumps rather than stepping through elapsed
// cycles one at a time, so Drive is O(1) regardless of how long it has been
// since the last call.
type ValveDriver struct {
	CyclePeriodMs uint32

	originMs uint32
	started  bool
}

// NewValveDriver returns a driver for the given cycle period.
func NewValveDriver(cyclePeriodMs uint32) *ValveDriver {
	return &ValveDriver{CyclePeriodMs: cyclePeriodMs}
}

// Drive computes the valve's output level at nowMs for percent command pct.
// All differences are computed modulo 2^32 so the driver tolerates clock
// wraparound.
func (v *ValveDriver) Drive(nowMs uint32, pct float32) Level {
	if math.IsNaN(float64(pct)) {
		pct = 0
	}
	if pct <= 0 {
		v.started = false
		return Low
	}
	if pct >= 100 {
		v.started = false
		return High
	}

	if !v.started {
		v.originMs = nowMs
		v.started = true
	}

	elapsed := nowMs - v.originMs
	if v.CyclePeriodMs > 0 && elapsed >= v.CyclePeriodMs {
		// Advance the origin by whole cycle periods in one division-and-
		// multiply step rather than looping, per spec.md §4.4.
		periods := elapsed / v.CyclePeriodMs
		v.originMs += periods * v.CyclePeriodMs
		elapsed = nowMs - v.originMs
	}

	onMs := uint32(float64(v.CyclePeriodMs) * float64(pct) / 100)
	if elapsed < onMs {
		return High
	}
	return Low
}

// HeaterDriver maps a continuous percent command onto an 8-bit PWM duty
// cycle. Non-finite percent inputs are treated as zero; the command is
// clamped to [0,100] before mapping.
type HeaterDriver struct{}

// Duty8 returns the 8-bit duty equivalent ([0,255]) for percent pct.
func (HeaterDriver) Duty8(pct float32) uint8 {
	if math.IsNaN(float64(pct)) || math.IsInf(float64(pct), 0) {
		pct = 0
	}
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	return uint8(math.Round(float64(pct) / 100 * 255))
}
