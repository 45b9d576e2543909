package airrelay

import (
	"testing"

	"github.com/buaawifi/uav-h2-supply-control/internal/protocol"
	"github.com/buaawifi/uav-h2-supply-control/internal/radio"
)

type fakeUART struct {
	in        []byte
	out       [][]byte
	available int
}

func (u *fakeUART) ReadByte() (byte, bool) {
	if len(u.in) == 0 {
		return 0, false
	}
	b := u.in[0]
	u.in = u.in[1:]
	return b, true
}

func (u *fakeUART) WriteAvailable() int { return u.available }

func (u *fakeUART) Write(p []byte) (int, error) {
	u.out = append(u.out, append([]byte(nil), p...))
	return len(p), nil
}

func testConfig() Config {
	return Config{TelemetryPeriodMs: 500, DownlinkSuppressMs: 80}
}

func TestHighPrioritySentBeforeTelemetry(t *testing.T) {
	uart := &fakeUART{available: 1024}
	rdo := radio.NewLoopback()
	rdo.GuardWindow = 0
	r := New(testConfig(), uart, rdo)

	ack, _ := protocol.Encode(protocol.MsgAck, 1, protocol.EncodeAck(protocol.Ack{}))
	telem, _ := protocol.Encode(protocol.MsgTelemetry, 2, protocol.EncodeTelemetry(protocol.Telemetry{}))
	r.EnqueueUplink(protocol.MsgAck, ack)
	r.EnqueueUplink(protocol.MsgTelemetry, telem)

	r.Tick(0)

	packet, ok := rdo.Receive()
	if !ok {
		t.Fatal("no packet transmitted")
	}
	if len(packet) != len(ack) {
		t.Errorf("expected the ACK frame to be transmitted first, got len %d want %d", len(packet), len(ack))
	}
}

func TestTelemetrySuppressedAfterRecentDownlink(t *testing.T) {
	uart := &fakeUART{available: 1024}
	rdo := radio.NewLoopback()
	rdo.GuardWindow = 0
	r := New(testConfig(), uart, rdo)

	modeSwitch, _ := protocol.Encode(protocol.MsgModeSwitch, 3, protocol.EncodeModeSwitch(protocol.ModeAuto))
	rdo.Transmit(modeSwitch) // pretend a downlink arrived

	telem, _ := protocol.Encode(protocol.MsgTelemetry, 1, protocol.EncodeTelemetry(protocol.Telemetry{}))
	r.EnqueueUplink(protocol.MsgTelemetry, telem)

	r.Tick(0) // consumes the downlink, sets lastDownlinkMs=0, suppresses telemetry
	if _, ok := rdo.Receive(); ok {
		t.Fatal("telemetry should have been suppressed right after a downlink")
	}

	r.Tick(100) // past the 80ms suppression window
	if _, ok := rdo.Receive(); !ok {
		t.Fatal("telemetry should be sent once suppression window elapses")
	}
}

func TestDownlinkWhitelistDropsUnknownType(t *testing.T) {
	uart := &fakeUART{available: 1024}
	rdo := radio.NewLoopback()
	rdo.GuardWindow = 0
	r := New(testConfig(), uart, rdo)

	telem, _ := protocol.Encode(protocol.MsgTelemetry, 1, protocol.EncodeTelemetry(protocol.Telemetry{}))
	rdo.Transmit(telem) // Telemetry is not in the downlink whitelist

	r.Tick(0)

	if len(uart.out) != 0 {
		t.Errorf("got %d forwarded frames, want 0 (telemetry must not be forwarded downlink)", len(uart.out))
	}
}

func TestDownlinkDropsOnUARTBackpressure(t *testing.T) {
	uart := &fakeUART{available: 0}
	rdo := radio.NewLoopback()
	rdo.GuardWindow = 0
	r := New(testConfig(), uart, rdo)

	hb, _ := protocol.Encode(protocol.MsgHeartbeat, 1, nil)
	rdo.Transmit(hb)

	r.Tick(0)

	if len(uart.out) != 0 {
		t.Errorf("got %d forwarded frames, want 0 (no UART room)", len(uart.out))
	}
	if r.UARTDropCount() != 1 {
		t.Errorf("UARTDropCount() = %d, want 1", r.UARTDropCount())
	}
}

func TestHeartbeatSentDownUARTEveryPeriod(t *testing.T) {
	uart := &fakeUART{available: 1024}
	rdo := radio.NewLoopback()
	rdo.GuardWindow = 0
	cfg := testConfig()
	cfg.HeartbeatPeriodMs = 500
	r := New(cfg, uart, rdo)

	r.Tick(0)
	r.Tick(100) // inside the period, no second heartbeat
	r.Tick(600)

	if len(uart.out) != 2 {
		t.Fatalf("got %d UART writes, want 2 heartbeats", len(uart.out))
	}
	for i, frame := range uart.out {
		p := protocol.NewParser()
		var got protocol.Frame
		emitted := false
		for _, b := range frame {
			if f, ok := p.Feed(b); ok {
				got = f
				emitted = true
			}
		}
		if !emitted || got.MsgType != protocol.MsgHeartbeat {
			t.Errorf("UART write %d is not a heartbeat frame: % x", i, frame)
		}
	}
}

func TestHeartbeatDisabledByZeroPeriod(t *testing.T) {
	uart := &fakeUART{available: 1024}
	rdo := radio.NewLoopback()
	rdo.GuardWindow = 0
	r := New(testConfig(), uart, rdo)

	r.Tick(0)
	r.Tick(1000)

	if len(uart.out) != 0 {
		t.Errorf("got %d UART writes, want 0 with heartbeats disabled", len(uart.out))
	}
}

func TestHeartbeatHonoursUARTBackpressure(t *testing.T) {
	uart := &fakeUART{available: 0}
	rdo := radio.NewLoopback()
	rdo.GuardWindow = 0
	cfg := testConfig()
	cfg.HeartbeatPeriodMs = 500
	r := New(cfg, uart, rdo)

	r.Tick(0)

	if len(uart.out) != 0 {
		t.Errorf("heartbeat must not be written without UART room")
	}
	if r.UARTDropCount() != 1 {
		t.Errorf("UARTDropCount() = %d, want 1", r.UARTDropCount())
	}
}

func TestRawSniffBypassesForwarding(t *testing.T) {
	uart := &fakeUART{available: 1024}
	rdo := radio.NewLoopback()
	rdo.GuardWindow = 0
	r := New(testConfig(), uart, rdo)

	var sniffed [][]byte
	r.SetRawSniff(true, func(p []byte) { sniffed = append(sniffed, p) })

	hb, _ := protocol.Encode(protocol.MsgHeartbeat, 1, nil)
	rdo.Transmit(hb)

	r.Tick(0)

	if len(uart.out) != 0 {
		t.Errorf("raw-sniff mode must not forward to UART")
	}
	if len(sniffed) != 1 {
		t.Errorf("got %d sniffed packets, want 1", len(sniffed))
	}
}
