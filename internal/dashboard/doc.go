// Package dashboard serves the ground relay's read-only status boundary for
// an external host GUI: a JSON snapshot endpoint and a WebSocket feed that
// pushes decoded traffic (telemetry, acks, command lifecycle lines) as it
// happens.
//
// The dashboard never accepts commands; the USB shell remains the only
// command path. Clients that fall behind are disconnected rather than
// allowed to block the relay's loop.
package dashboard
