// Package config loads and saves the link's tunable constants (§6):
// telemetry period, link timeout, max temperature, valve cycle period, and
// the reliable-downlink/RX-watchdog timings. Each node's cmd/ binary loads
// a Tunables from an optional --config YAML file, falling back to Default()
// when unset or absent.
//
// # Usage
//
//	tunables, err := config.Load(path) // path == "" or missing -> Default()
//	if err != nil {
//	    log.Fatal(err)
//	}
package config
