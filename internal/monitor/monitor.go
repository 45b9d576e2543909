package monitor

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/buaawifi/uav-h2-supply-control/internal/protocol"
)

// Console wraps a running Bubble Tea program and the feed methods the relay
// loop calls to push decoded traffic into it. Feed methods are safe to call
// from any goroutine; tea.Program.Send serialises delivery.
type Console struct {
	program *tea.Program
}

// New constructs a Console around a fresh model. Call Run to start it.
func New() *Console {
	return &Console{
		program: tea.NewProgram(NewModel(), tea.WithAltScreen()),
	}
}

// Run blocks until the operator quits the console.
func (c *Console) Run() error {
	_, err := c.program.Run()
	return err
}

// Quit asks the console to exit, for shutdown paths that are not
// operator-initiated.
func (c *Console) Quit() {
	c.program.Quit()
}

// FeedTelemetry pushes one decoded telemetry report.
func (c *Console) FeedTelemetry(t protocol.Telemetry) {
	c.program.Send(TelemetryMsg{Telemetry: t})
}

// FeedAck pushes one decoded acknowledgement.
func (c *Console) FeedAck(a protocol.Ack, seq byte) {
	c.program.Send(AckMsg{Ack: a, Seq: seq})
}

// FeedPending pushes the reliable-downlink engine's current state.
func (c *Console) FeedPending(active bool, msgType, seq byte, retry int) {
	c.program.Send(PendingMsg{Active: active, MsgType: msgType, Seq: seq, Retry: retry})
}

// FeedLine pushes one shell output line into the traffic log.
func (c *Console) FeedLine(line string) {
	c.program.Send(LineMsg{Line: line})
}
