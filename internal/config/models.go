// Package config provides the compile-time-default, YAML-overridable
// tunables shared by all three link nodes (§6). It follows the same
// versioned-root-struct-plus-YAML pattern the teacher's config registry
// used, adapted from device/outlet metadata to link timing constants.
package config

// Tunables holds every constant spec.md §6 lists as tunable. Fields carry
// millisecond units unless named otherwise; MaxTempC is degrees Celsius.
type Tunables struct {
	Version int `yaml:"version"`

	TelemetryPeriodMs  uint32  `yaml:"telemetry_period_ms"`
	LinkTimeoutMs      uint32  `yaml:"link_timeout_ms"`
	MaxTempC           float32 `yaml:"max_temp_c"`
	ValveCycleMs       uint32  `yaml:"valve_cycle_ms"`
	HeartbeatPeriodMs  uint32  `yaml:"heartbeat_period_ms"`
	LoraTelemPeriodMs  uint32  `yaml:"lora_telem_period_ms"`
	LoraTxGuardMs      uint32  `yaml:"lora_tx_guard_ms"`
	DownlinkSuppressMs uint32  `yaml:"downlink_suppress_ms"`
	CmdAckTimeoutMs    uint32  `yaml:"cmd_ack_timeout_ms"`
	CmdMaxRetry        int     `yaml:"cmd_max_retry"`
	RxWatchdogMs       uint32  `yaml:"rx_watchdog_ms"`
	ReinitCooldownMs   uint32  `yaml:"reinit_cooldown_ms"`
}

// Default returns the spec.md §6 compile-time defaults.
func Default() *Tunables {
	return &Tunables{
		Version:            1,
		TelemetryPeriodMs:  200,
		LinkTimeoutMs:      1500,
		MaxTempC:           80,
		ValveCycleMs:       500,
		HeartbeatPeriodMs:  500,
		LoraTelemPeriodMs:  500,
		LoraTxGuardMs:      5,
		DownlinkSuppressMs: 80,
		CmdAckTimeoutMs:    400,
		CmdMaxRetry:        3,
		RxWatchdogMs:       5000,
		ReinitCooldownMs:   3000,
	}
}
