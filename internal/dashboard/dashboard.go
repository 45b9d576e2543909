package dashboard

import (
	"encoding/json"
	"net"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/buaawifi/uav-h2-supply-control/internal/linkerror"
	"github.com/buaawifi/uav-h2-supply-control/internal/logging"
	"github.com/buaawifi/uav-h2-supply-control/internal/protocol"
	"go.uber.org/zap"
)

// maxLines bounds the snapshot's retained shell-line history.
const maxLines = 50

// TelemetryView is the JSON shape of one decoded telemetry report.
type TelemetryView struct {
	TimestampMs uint32     `json:"timestamp_ms"`
	TempCount   uint8      `json:"temp_count"`
	TempC       [4]float32 `json:"temp_c"`
	PressurePa  float32    `json:"pressure_pa"`
	HeaterPct   float32    `json:"heater_pct"`
	ValvePct    float32    `json:"valve_pct"`
}

// AckView is the JSON shape of one decoded acknowledgement.
type AckView struct {
	AckedMsgType byte `json:"acked_msg_type"`
	Seq          byte `json:"seq"`
	Status       byte `json:"status"`
}

// PendingView is the JSON shape of the reliable-downlink engine's state.
type PendingView struct {
	Active  bool `json:"active"`
	MsgType byte `json:"msg_type"`
	Seq     byte `json:"seq"`
	Retry   int  `json:"retry"`
}

// Snapshot is the full status document returned by /status and sent to each
// WebSocket client on connect.
type Snapshot struct {
	HaveTelemetry bool          `json:"have_telemetry"`
	Telemetry     TelemetryView `json:"telemetry"`
	HaveAck       bool          `json:"have_ack"`
	Ack           AckView       `json:"ack"`
	Pending       PendingView   `json:"pending"`
	Lines         []string      `json:"lines"`
}

// event is one WebSocket push.
type event struct {
	Type      string         `json:"type"`
	Telemetry *TelemetryView `json:"telemetry,omitempty"`
	Ack       *AckView       `json:"ack,omitempty"`
	Pending   *PendingView   `json:"pending,omitempty"`
	Line      string         `json:"line,omitempty"`
}

// Server is the ground relay's read-only status boundary. Publish methods
// are safe to call from the relay's loop goroutine; HTTP serving happens on
// its own goroutines.
type Server struct {
	addr string
	hub  *hub

	mu   sync.Mutex
	snap Snapshot

	httpServer *http.Server
	listener   net.Listener

	upgrader websocket.Upgrader
}

// New constructs a Server that will listen on addr (e.g. ":8080").
func New(addr string) *Server {
	return &Server{
		addr: addr,
		hub:  newHub(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The dashboard is read-only and LAN-local; any origin may watch.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// Start binds the listener and begins serving. It returns once the listener
// is bound; serving continues in the background until Close.
func (s *Server) Start() error {
	mux := http.NewServeMux()
	mux.HandleFunc("/status", s.handleStatus)
	mux.HandleFunc("/ws", s.handleWS)

	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return linkerror.NewNetworkError("failed to bind dashboard listener", err)
	}
	s.listener = ln
	s.httpServer = &http.Server{Handler: mux}

	go s.hub.run()
	go func() {
		if err := s.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
			logging.Error("dashboard: serve failed", zap.Error(err))
		}
	}()

	logging.Info("dashboard: listening", zap.String("addr", ln.Addr().String()))
	return nil
}

// Addr returns the bound listen address, for tests and mDNS advertisement.
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Close stops serving and disconnects all clients.
func (s *Server) Close() error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Close()
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	snap := s.snap
	snap.Lines = append([]string(nil), s.snap.Lines...)
	s.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(snap); err != nil {
		logging.Debug("dashboard: status encode failed", zap.Error(err))
	}
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Debug("dashboard: upgrade failed", zap.Error(err))
		return
	}

	c := &client{hub: s.hub, conn: conn, send: make(chan []byte, sendQueueDepth)}
	s.hub.register <- c

	// Seed the new client with the current snapshot before live events.
	s.mu.Lock()
	snap := s.snap
	snap.Lines = append([]string(nil), s.snap.Lines...)
	s.mu.Unlock()
	if data, err := json.Marshal(struct {
		Type     string   `json:"type"`
		Snapshot Snapshot `json:"snapshot"`
	}{Type: "snapshot", Snapshot: snap}); err == nil {
		c.send <- data
	}

	go c.writePump()
	go c.readPump()
}

// PublishTelemetry records and pushes one decoded telemetry report.
func (s *Server) PublishTelemetry(t protocol.Telemetry) {
	view := TelemetryView{
		TimestampMs: t.TimestampMs,
		TempCount:   t.TempCount,
		TempC:       t.TempC,
		PressurePa:  t.PressurePa,
		HeaterPct:   t.HeaterPct,
		ValvePct:    t.ValvePct,
	}
	s.mu.Lock()
	s.snap.HaveTelemetry = true
	s.snap.Telemetry = view
	s.mu.Unlock()
	s.publish(event{Type: "telemetry", Telemetry: &view})
}

// PublishAck records and pushes one decoded acknowledgement.
func (s *Server) PublishAck(a protocol.Ack, seq byte) {
	view := AckView{AckedMsgType: a.AckedMsgType, Seq: seq, Status: a.Status}
	s.mu.Lock()
	s.snap.HaveAck = true
	s.snap.Ack = view
	s.mu.Unlock()
	s.publish(event{Type: "ack", Ack: &view})
}

// PublishPending records and pushes the reliable-downlink engine's state.
func (s *Server) PublishPending(active bool, msgType, seq byte, retry int) {
	view := PendingView{Active: active, MsgType: msgType, Seq: seq, Retry: retry}
	s.mu.Lock()
	s.snap.Pending = view
	s.mu.Unlock()
	s.publish(event{Type: "pending", Pending: &view})
}

// PublishLine records and pushes one shell output line.
func (s *Server) PublishLine(line string) {
	s.mu.Lock()
	s.snap.Lines = append(s.snap.Lines, line)
	if len(s.snap.Lines) > maxLines {
		s.snap.Lines = s.snap.Lines[len(s.snap.Lines)-maxLines:]
	}
	s.mu.Unlock()
	s.publish(event{Type: "line", Line: line})
}

func (s *Server) publish(ev event) {
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}
	select {
	case s.hub.broadcast <- data:
	default:
		// The hub is saturated; drop the event rather than block the loop.
	}
}
