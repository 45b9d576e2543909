package safety

import (
	"math"
	"testing"

	"github.com/buaawifi/uav-h2-supply-control/internal/controlstate"
)

func testConfig() Config {
	return Config{LinkTimeoutMs: 1500, MaxTempC: 80}
}

func TestLinkTimeoutForcesSafe(t *testing.T) {
	s := controlstate.New()
	s.Mode = controlstate.ModeManual
	s.NoteFrameReceived(0)

	out := Evaluate(testConfig(), s, controlstate.Telemetry{}, controlstate.Outputs{HeaterPct: 80}, 2000)

	if s.LinkAlive {
		t.Error("LinkAlive should be false after timeout")
	}
	if s.Mode != controlstate.ModeSafe {
		t.Errorf("Mode = %v, want SAFE", s.Mode)
	}
	if out != (controlstate.Outputs{}) {
		t.Errorf("Outputs = %+v, want zero", out)
	}
}

func TestOvertemperatureForcesSafe(t *testing.T) {
	s := controlstate.New()
	s.Mode = controlstate.ModeManual
	s.NoteFrameReceived(0)

	telem := controlstate.Telemetry{TempCount: 2, TempC: [4]float32{25, 85}}
	out := Evaluate(testConfig(), s, telem, controlstate.Outputs{HeaterPct: 80, ValvePct: 100}, 0)

	if s.Mode != controlstate.ModeSafe {
		t.Errorf("Mode = %v, want SAFE", s.Mode)
	}
	if out.HeaterPct != 0 || out.ValvePct != 0 {
		t.Errorf("Outputs = %+v, want zero", out)
	}
}

func TestNaNTempIgnored(t *testing.T) {
	s := controlstate.New()
	s.Mode = controlstate.ModeManual
	s.NoteFrameReceived(0)

	telem := controlstate.Telemetry{TempCount: 1, TempC: [4]float32{float32(math.NaN())}}
	Evaluate(testConfig(), s, telem, controlstate.Outputs{}, 0)

	if s.Mode != controlstate.ModeManual {
		t.Errorf("Mode = %v, want MANUAL (NaN must not trip overtemp)", s.Mode)
	}
}

func TestTempAboveCountIgnored(t *testing.T) {
	s := controlstate.New()
	s.Mode = controlstate.ModeManual
	s.NoteFrameReceived(0)

	// temp_c[2] is hot, but temp_count=1 means only index 0 is valid.
	telem := controlstate.Telemetry{TempCount: 1, TempC: [4]float32{25, 25, 200, 25}}
	Evaluate(testConfig(), s, telem, controlstate.Outputs{}, 0)

	if s.Mode != controlstate.ModeManual {
		t.Errorf("Mode = %v, want MANUAL (index beyond temp_count must be ignored)", s.Mode)
	}
}

func TestNominalStaysInMode(t *testing.T) {
	s := controlstate.New()
	s.Mode = controlstate.ModeManual
	s.NoteFrameReceived(0)

	telem := controlstate.Telemetry{TempCount: 2, TempC: [4]float32{25, 30}}
	out := Evaluate(testConfig(), s, telem, controlstate.Outputs{HeaterPct: 40}, 100)

	if s.Mode != controlstate.ModeManual {
		t.Errorf("Mode = %v, want MANUAL", s.Mode)
	}
	if out.HeaterPct != 40 {
		t.Errorf("Outputs.HeaterPct = %v, want unchanged 40", out.HeaterPct)
	}
}
