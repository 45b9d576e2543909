package dashboard

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/buaawifi/uav-h2-supply-control/internal/protocol"
)

func TestStatusSnapshotReflectsPublishes(t *testing.T) {
	s := New(":0")
	go s.hub.run()

	s.PublishTelemetry(protocol.Telemetry{
		TimestampMs: 1234,
		TempCount:   2,
		TempC:       [4]float32{21.5, 22.0},
		PressurePa:  101325,
		HeaterPct:   40,
		ValvePct:    30,
	})
	s.PublishAck(protocol.Ack{AckedMsgType: protocol.MsgModeSwitch, Status: protocol.StatusOK}, 7)
	s.PublishPending(true, protocol.MsgModeSwitch, 7, 1)
	s.PublishLine("[CMD] RETRY #1 msg=0x10 seq=7")

	rec := httptest.NewRecorder()
	s.handleStatus(rec, httptest.NewRequest(http.MethodGet, "/status", nil))

	var snap Snapshot
	if err := json.NewDecoder(rec.Body).Decode(&snap); err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	if !snap.HaveTelemetry || snap.Telemetry.TimestampMs != 1234 {
		t.Errorf("snapshot telemetry = %+v, want timestamp 1234", snap.Telemetry)
	}
	if !snap.HaveAck || snap.Ack.Seq != 7 {
		t.Errorf("snapshot ack = %+v, want seq 7", snap.Ack)
	}
	if !snap.Pending.Active || snap.Pending.Retry != 1 {
		t.Errorf("snapshot pending = %+v, want active retry=1", snap.Pending)
	}
	if len(snap.Lines) != 1 || !strings.HasPrefix(snap.Lines[0], "[CMD] RETRY") {
		t.Errorf("snapshot lines = %v", snap.Lines)
	}
}

func TestLineHistoryBounded(t *testing.T) {
	s := New(":0")
	go s.hub.run()

	for i := 0; i < maxLines+10; i++ {
		s.PublishLine("line")
	}
	s.mu.Lock()
	n := len(s.snap.Lines)
	s.mu.Unlock()
	if n != maxLines {
		t.Errorf("retained %d lines, want %d", n, maxLines)
	}
}

func TestWebSocketFeedDeliversEvents(t *testing.T) {
	s := New(":0")
	go s.hub.run()

	ts := httptest.NewServer(http.HandlerFunc(s.handleWS))
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	// First message is the snapshot seed.
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var seed map[string]json.RawMessage
	if err := conn.ReadJSON(&seed); err != nil {
		t.Fatalf("read seed: %v", err)
	}
	var seedType string
	_ = json.Unmarshal(seed["type"], &seedType)
	if seedType != "snapshot" {
		t.Fatalf("first message type = %q, want snapshot", seedType)
	}

	// Give the hub time to register the client before broadcasting.
	time.Sleep(50 * time.Millisecond)
	s.PublishLine("[ACK] for=0x10 status=0")

	var ev event
	if err := conn.ReadJSON(&ev); err != nil {
		t.Fatalf("read event: %v", err)
	}
	if ev.Type != "line" || ev.Line != "[ACK] for=0x10 status=0" {
		t.Errorf("event = %+v", ev)
	}
}
