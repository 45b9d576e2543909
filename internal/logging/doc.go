// Package logging provides structured logging for the fuel-supply link's
// three node binaries.
//
// This package wraps zap with convenience functions for the common logging
// patterns the controller, air relay, and ground relay all need. It is
// silent by default — a node that never calls Initialize gets a nop
// logger, so the link's wire protocol stays byte-exact for hosts parsing
// the USB shell even if a developer forgets to configure logging.
//
// # Log Levels
//
//   - Debug: frame-level detail (raw hex dumps, parser resyncs)
//   - Info: normal operation (mode transitions, ack matches)
//   - Warn: non-fatal issues (drops, busy radio, retries, self-heal)
//   - Error: startup/config failures
//
// # Configuration
//
//	if err := logging.Initialize(*logLevel); err != nil {
//	    log.Fatal(err)
//	}
//	defer logging.Sync()
//
// If level is empty, FUELLINK_LOG_LEVEL is consulted; if that is also
// unset, logging is silent (zap.NewNop()).
package logging
