// Fuel-controller is the field controller node of the fuel-supply link.
//
// It runs the periodic control loop: drain command frames off the UART,
// sample the sensors, apply the mode policy and safety interlock, drive the
// actuators, and stream telemetry back up the link.
//
// Usage:
//
//	fuel-controller --device /dev/ttyS1 [flags]
//
// The RTD/ADC sampling chain is an external collaborator; this binary wires
// a null sensor source until one is linked in.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/buaawifi/uav-h2-supply-control/internal/actuator"
	"github.com/buaawifi/uav-h2-supply-control/internal/config"
	"github.com/buaawifi/uav-h2-supply-control/internal/controller"
	"github.com/buaawifi/uav-h2-supply-control/internal/controlstate"
	"github.com/buaawifi/uav-h2-supply-control/internal/logging"
	"github.com/buaawifi/uav-h2-supply-control/internal/safety"
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
	Use:   "fuel-controller",
	Short: "Fuel-supply field controller",
	Long: `The field controller node of the fuel-supply control link.

Drains command frames from the air relay over UART, applies the mode policy
and safety interlock, drives the heater and valve, and streams telemetry.`,
	Version: version.Version,
	RunE:    runController,
}

func init() {
	rootCmd.Flags().StringVar(&devicePath, "device", "", "Serial device connected to the air relay (e.g. /dev/ttyS1)")
	rootCmd.Flags().StringVar(&configPath, "config", "", "Path to a YAML tunables file (optional)")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error); defaults to FUELLINK_LOG_LEVEL")
	rootCmd.Flags().IntVar(&tickMs, "tick-ms", 10, "Loop tick period in milliseconds")
	_ = rootCmd.MarkFlagRequired("device")

	rootCmd.AddCommand(versionCmd)
}

// nullSensor stands in for the external RTD/ADC sampling chain: it reports a
// timestamped sample with no channels populated.
type nullSensor struct{}

func (nullSensor) Sample(nowMs uint32) controlstate.Telemetry {
	return controlstate.Telemetry{TimestampMs: nowMs}
}

// driveSink hands post-clamp outputs to the valve and heater drivers. The
// resulting pin/duty values are surfaced through debug logging until a GPIO
// backend is linked in.
type driveSink struct {
	valve  *actuator.ValveDriver
	heater actuator.HeaterDriver

	lastValve actuator.Level
	lastDuty  uint8
	havePrev  bool
}

func (d *driveSink) Apply(nowMs uint32, out controlstate.Outputs) {
	level := d.valve.Drive(nowMs, out.ValvePct)
	duty := d.heater.Duty8(out.HeaterPct)
	if !d.havePrev || level != d.lastValve || duty != d.lastDuty {
		logging.Debug("actuator outputs",
			zap.Bool("valve_high", bool(level)),
			zap.Uint8("heater_duty8", duty),
			zap.Float32("pump_t", out.PumpT),
		)
	}
	d.lastValve = level
	d.lastDuty = duty
	d.havePrev = true
}

// portLink adapts a transport.Port to controller.Link, whose Write reports
// only an error.
type portLink struct{ *transport.Port }

func (l portLink) Write(frame []byte) error {
	_, err := l.Port.Write(frame)
	return err
}

func runController(cmd *cobra.Command, args []string) error {
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

	state := controlstate.New()
	loop := controller.New(controller.Config{
		TelemetryPeriodMs: tunables.TelemetryPeriodMs,
		Safety: safety.Config{
			LinkTimeoutMs: tunables.LinkTimeoutMs,
			MaxTempC:      tunables.MaxTempC,
		},
	}, state, portLink{port}, nullSensor{}, nil, &driveSink{
		valve: actuator.NewValveDriver(tunables.ValveCycleMs),
	})

	logging.Info("fuel-controller: running",
		zap.String("device", devicePath),
		zap.Uint32("telemetry_period_ms", tunables.TelemetryPeriodMs),
	)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	start := time.Now()
	ticker := time.NewTicker(time.Duration(tickMs) * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			loop.Tick(uint32(time.Since(start).Milliseconds()))
		case <-stop:
			logging.Info("fuel-controller: shutting down")
			return nil
		}
	}
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("fuel-controller %s (commit: %s)\n", version.Version, version.Commit)
	},
}
