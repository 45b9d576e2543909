// Package monitor is the ground relay's operator console: a read-only
// Bubble Tea view of the decoded traffic (telemetry, acks, command
// lifecycle) for a technician at the relay's terminal. It sits beside the
// USB shell and never intercepts or reformats the shell's line-oriented
// grammar, which host automation must still be able to parse byte-exact.
package monitor

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/buaawifi/uav-h2-supply-control/internal/protocol"
)

// maxLogLines bounds the retained traffic log.
const maxLogLines = 200

// TelemetryMsg delivers one decoded telemetry report to the console.
type TelemetryMsg struct {
	Telemetry protocol.Telemetry
}

// AckMsg delivers one decoded acknowledgement to the console.
type AckMsg struct {
	Ack protocol.Ack
	Seq byte
}

// PendingMsg delivers the reliable-downlink engine's current state.
type PendingMsg struct {
	Active  bool
	MsgType byte
	Seq     byte
	Retry   int
}

// LineMsg delivers one shell output line to the traffic log.
type LineMsg struct {
	Line string
}

// keyMap defines the console's key bindings.
type keyMap struct {
	Up   key.Binding
	Down key.Binding
	Quit key.Binding
}

var defaultKeyMap = keyMap{
	Up: key.NewBinding(
		key.WithKeys("up", "k"),
		key.WithHelp("↑/k", "scroll up"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "j"),
		key.WithHelp("↓/j", "scroll down"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

// Model is the console's Bubble Tea model.
type Model struct {
	width  int
	height int

	haveTelemetry bool
	telemetry     protocol.Telemetry

	haveAck bool
	ack     protocol.Ack
	ackSeq  byte

	pending PendingMsg

	log      []string
	viewport viewport.Model
	keys     keyMap
}

// NewModel returns a console model sized to the current terminal.
func NewModel() Model {
	width, height := GetTerminalSize()
	vp := viewport.New(width-4, maxInt(height-10, 5))
	return Model{
		width:    width,
		height:   height,
		viewport: vp,
		keys:     defaultKeyMap,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.viewport.Width = msg.Width - 4
		m.viewport.Height = maxInt(msg.Height-10, 5)
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Up):
			m.viewport.LineUp(1)
		case key.Matches(msg, m.keys.Down):
			m.viewport.LineDown(1)
		}
		return m, nil

	case TelemetryMsg:
		m.haveTelemetry = true
		m.telemetry = msg.Telemetry
		return m, nil

	case AckMsg:
		m.haveAck = true
		m.ack = msg.Ack
		m.ackSeq = msg.Seq
		return m, nil

	case PendingMsg:
		m.pending = msg
		return m, nil

	case LineMsg:
		m.log = append(m.log, msg.Line)
		if len(m.log) > maxLogLines {
			m.log = m.log[len(m.log)-maxLogLines:]
		}
		m.viewport.SetContent(strings.Join(m.log, "\n"))
		m.viewport.GotoBottom()
		return m, nil
	}
	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(TitleStyle.Render("FUEL LINK — GROUND RELAY MONITOR"))
	b.WriteString("\n\n")
	b.WriteString(m.viewTelemetry())
	b.WriteString("\n")
	b.WriteString(m.viewCommand())
	b.WriteString("\n\n")
	b.WriteString(LogBoxStyle.Render(m.viewport.View()))
	b.WriteString("\n")
	b.WriteString(HelpStyle.Render("↑/↓ scroll · q quit"))
	b.WriteString("\n")

	return b.String()
}

func (m Model) viewTelemetry() string {
	if !m.haveTelemetry {
		return LabelStyle.Render("telemetry: ") + ValueStyle.Render("waiting for first report")
	}
	t := m.telemetry
	parts := []string{
		LabelStyle.Render("t=") + ValueStyle.Render(fmt.Sprintf("%dms", t.TimestampMs)),
	}
	for i := 0; i < int(t.TempCount) && i < len(t.TempC); i++ {
		parts = append(parts, LabelStyle.Render(fmt.Sprintf("T%d=", i))+ValueStyle.Render(fmt.Sprintf("%.2f°C", t.TempC[i])))
	}
	parts = append(parts,
		LabelStyle.Render("P=")+ValueStyle.Render(fmt.Sprintf("%.0fPa", t.PressurePa)),
		LabelStyle.Render("heater=")+ValueStyle.Render(fmt.Sprintf("%.1f%%", t.HeaterPct)),
		LabelStyle.Render("valve=")+ValueStyle.Render(fmt.Sprintf("%.1f%%", t.ValvePct)),
	)
	return lipgloss.JoinHorizontal(lipgloss.Top, strings.Join(parts, "  "))
}

func (m Model) viewCommand() string {
	if m.pending.Active {
		return PendingStyle.Render(fmt.Sprintf(
			"command in flight: msg=0x%02x seq=%d retry=%d", m.pending.MsgType, m.pending.Seq, m.pending.Retry))
	}
	if m.haveAck {
		style := ModeActiveStyle
		if m.ack.Status != protocol.StatusOK {
			style = ModeSafeStyle
		}
		return style.Render(fmt.Sprintf(
			"last ack: msg=0x%02x seq=%d status=%d", m.ack.AckedMsgType, m.ackSeq, m.ack.Status))
	}
	return LabelStyle.Render("no command activity")
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
