package monitor

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/buaawifi/uav-h2-supply-control/internal/protocol"
)

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	model, ok := next.(Model)
	if !ok {
		t.Fatalf("Update returned %T, want Model", next)
	}
	return model
}

func TestTelemetryRendersInView(t *testing.T) {
	m := NewModel()
	m = update(t, m, TelemetryMsg{Telemetry: protocol.Telemetry{
		TimestampMs: 5000,
		TempCount:   2,
		TempC:       [4]float32{21.5, 22.25},
		PressurePa:  101325,
		HeaterPct:   40,
		ValvePct:    30,
	}})

	view := m.View()
	for _, want := range []string{"5000ms", "21.50", "22.25", "40.0%", "30.0%"} {
		if !strings.Contains(view, want) {
			t.Errorf("View() missing %q", want)
		}
	}
}

func TestPendingTakesPriorityOverAck(t *testing.T) {
	m := NewModel()
	m = update(t, m, AckMsg{Ack: protocol.Ack{AckedMsgType: protocol.MsgModeSwitch, Status: protocol.StatusOK}, Seq: 3})
	m = update(t, m, PendingMsg{Active: true, MsgType: protocol.MsgManualCmd, Seq: 4, Retry: 2})

	view := m.View()
	if !strings.Contains(view, "command in flight") {
		t.Errorf("View() should show the in-flight command, got:\n%s", view)
	}
	if !strings.Contains(view, "retry=2") {
		t.Errorf("View() should show the retry count, got:\n%s", view)
	}
}

func TestLogIsBounded(t *testing.T) {
	m := NewModel()
	for i := 0; i < maxLogLines+25; i++ {
		m = update(t, m, LineMsg{Line: "line"})
	}
	if len(m.log) != maxLogLines {
		t.Errorf("log length = %d, want %d", len(m.log), maxLogLines)
	}
}

func TestQuitKeyQuits(t *testing.T) {
	m := NewModel()
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	if cmd == nil {
		t.Fatal("expected a quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected tea.QuitMsg from the quit binding")
	}
}
