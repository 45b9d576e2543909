// Air-relay is the airside gateway of the fuel-supply link: it bridges the
// controller's UART to the long-range radio with a half-duplex TX scheduler,
// whitelisted downlink forwarding, and heartbeat generation.
//
// Usage:
//
//	air-relay --device /dev/ttyS2 [flags]
//
// The concrete transceiver driver is an external collaborator; this binary
// wires the in-memory loopback radio for bench runs until one is linked in.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/buaawifi/uav-h2-supply-control/internal/airrelay"
	"github.com/buaawifi/uav-h2-supply-control/internal/config"
	"github.com/buaawifi/uav-h2-supply-control/internal/logging"
	"github.com/buaawifi/uav-h2-supply-control/internal/radio"
	"github.com/buaawifi/uav-h2-supply-control/internal/transport"
	"github.com/buaawifi/uav-h2-supply-control/internal/version"
	"go.uber.org/zap"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var (
	devicePath string
	configPath string
	logLevel   string
	tickMs     int
)

var rootCmd = &cobra.Command{
	Use:   "air-relay",
	Short: "Airside UART-to-radio gateway",
	Long: `The airside gateway of the fuel-supply control link.

Bridges the controller's UART to the long-range radio: uplink frames are
scheduled through priority TX slots, downlink commands are whitelisted and
forwarded with non-blocking back-pressure, and heartbeats keep the
controller's link liveness fresh.`,
	Version: version.Version,
	RunE:    runRelay,
}

func init() {
	rootCmd.Flags().StringVar(&devicePath, "device", "", "Serial device connected to the controller (e.g. /dev/ttyS2)")
	rootCmd.Flags().StringVar(&configPath, "config", "", "Path to a YAML tunables file (optional)")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error); defaults to FUELLINK_LOG_LEVEL")
	rootCmd.Flags().IntVar(&tickMs, "tick-ms", 10, "Loop tick period in milliseconds")
	_ = rootCmd.MarkFlagRequired("device")

	rootCmd.AddCommand(versionCmd)
}

func runRelay(cmd *cobra.Command, args []string) error {
	if err := logging.Initialize(logLevel); err != nil {
		return err
	}
	defer logging.Sync()

	tunables, err := config.Load(configPath)
	if err != nil {
		return err
	}

	port, err := transport.Open(devicePath, 115200)
	if err != nil {
		return err
	}
	defer port.Close()

	rdo := radio.NewLoopback()
	rdo.GuardWindow = time.Duration(tunables.LoraTxGuardMs) * time.Millisecond
	if err := rdo.Reset(); err != nil {
		return err
	}
	if err := rdo.Configure(); err != nil {
		return err
	}

	relay := airrelay.New(airrelay.Config{
		TelemetryPeriodMs:  tunables.LoraTelemPeriodMs,
		DownlinkSuppressMs: tunables.DownlinkSuppressMs,
		HeartbeatPeriodMs:  tunables.HeartbeatPeriodMs,
	}, port, rdo)

	logging.Info("air-relay: running",
		zap.String("device", devicePath),
		zap.Uint32("telem_period_ms", tunables.LoraTelemPeriodMs),
		zap.Uint32("heartbeat_period_ms", tunables.HeartbeatPeriodMs),
	)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	start := time.Now()
	ticker := time.NewTicker(time.Duration(tickMs) * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			relay.Tick(uint32(time.Since(start).Milliseconds()))
		case <-stop:
			logging.Info("air-relay: shutting down",
				zap.Int("uart_drops", relay.UARTDropCount()))
			return nil
		}
	}
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("air-relay %s (commit: %s)\n", version.Version, version.Commit)
	},
}
