// Ground-relay is the groundside gateway of the fuel-supply link: it bridges
// the long-range radio to the host over USB serial, runs the reliable
// downlink engine with ACK matching and an RX watchdog, and hosts the
// line-oriented host shell.
//
// Optional surfaces: a read-only status dashboard with a WebSocket feed
// (--dashboard-addr), mDNS self-advertisement (--mdns), and an operator
// console TUI ('ground-relay monitor').
//
// The concrete transceiver driver is an external collaborator; this binary
// wires the in-memory loopback radio for bench runs until one is linked in.
package main

import (
	"bufio"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/buaawifi/uav-h2-supply-control/internal/config"
	"github.com/buaawifi/uav-h2-supply-control/internal/dashboard"
	"github.com/buaawifi/uav-h2-supply-control/internal/discovery"
	"github.com/buaawifi/uav-h2-supply-control/internal/groundrelay"
	"github.com/buaawifi/uav-h2-supply-control/internal/logging"
	"github.com/buaawifi/uav-h2-supply-control/internal/monitor"
	"github.com/buaawifi/uav-h2-supply-control/internal/protocol"
	"github.com/buaawifi/uav-h2-supply-control/internal/radio"
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
	configPath    string
	logLevel      string
	tickMs        int
	dashboardAddr string
	mdnsEnabled   bool
	mdnsPort      int
)

var rootCmd = &cobra.Command{
	Use:   "ground-relay",
	Short: "Groundside radio-to-host gateway",
	Long: `The groundside gateway of the fuel-supply control link.

Bridges the long-range radio to the host: decoded telemetry and acks are
printed as parseable shell lines, commands typed on the shell are submitted
through the reliable downlink engine, and an RX watchdog self-heals the
radio when the link goes quiet.`,
	Version: version.Version,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runRelay(false)
	},
}

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Run the relay with the operator console TUI",
	Long: `Run the ground relay with a live operator console: telemetry, mode,
pending-command and retry state, and the decoded traffic log.

The console is read-only and sits beside the host shell; shell output keeps
its byte-exact line grammar.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runRelay(true)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a YAML tunables file (optional)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error); defaults to FUELLINK_LOG_LEVEL")
	rootCmd.PersistentFlags().IntVar(&tickMs, "tick-ms", 10, "Loop tick period in milliseconds")
	rootCmd.PersistentFlags().StringVar(&dashboardAddr, "dashboard-addr", "", "Listen address for the status dashboard (e.g. :8080; disabled if empty)")
	rootCmd.PersistentFlags().BoolVar(&mdnsEnabled, "mdns", false, "Advertise the dashboard over mDNS")
	rootCmd.PersistentFlags().IntVar(&mdnsPort, "mdns-port", 8080, "Port to advertise over mDNS")

	rootCmd.AddCommand(monitorCmd)
	rootCmd.AddCommand(versionCmd)
}

// lineSink fans one shell output line out to the host (stdout), the
// dashboard, and the operator console. Stdout keeps the byte-exact grammar;
// the other surfaces are additive.
type lineSink struct {
	dash    *dashboard.Server
	console *monitor.Console
}

func (s *lineSink) WriteLine(line groundrelay.Line) {
	fmt.Println(line)
	if s.dash != nil {
		s.dash.PublishLine(line)
	}
	if s.console != nil {
		s.console.FeedLine(line)
	}
}

// loraControl implements the shell's local radio diagnostics.
type loraControl struct {
	engine *groundrelay.Engine
	rdo    radio.Radio
	nowMs  func() uint32
}

func (c *loraControl) Stat() string {
	p := c.engine.Pending()
	if p.Active {
		return fmt.Sprintf("lora: busy=%v pending msg=0x%02x seq=%d retry=%d",
			c.rdo.IsBusy(), p.MsgType, p.Seq, p.Retry)
	}
	return fmt.Sprintf("lora: busy=%v idle", c.rdo.IsBusy())
}

func (c *loraControl) SetRawSniff(enabled bool) {
	c.engine.SetRawSniff(enabled)
}

func (c *loraControl) SendRaw(text string) error {
	switch c.rdo.Transmit([]byte(text)) {
	case radio.OK:
		return nil
	case radio.Busy:
		return fmt.Errorf("radio busy")
	default:
		return fmt.Errorf("radio TX failed")
	}
}

func (c *loraControl) Ping() error {
	_, err := c.engine.Submit(protocol.MsgHeartbeat, nil, c.nowMs())
	return err
}

func runRelay(withMonitor bool) error {
	if err := logging.Initialize(logLevel); err != nil {
		return err
	}
	defer logging.Sync()

	tunables, err := config.Load(configPath)
	if err != nil {
		return err
	}

	rdo := radio.NewLoopback()
	rdo.GuardWindow = time.Duration(tunables.LoraTxGuardMs) * time.Millisecond
	if err := rdo.Reset(); err != nil {
		return err
	}
	if err := rdo.Configure(); err != nil {
		return err
	}

	var dash *dashboard.Server
	if dashboardAddr != "" {
		dash = dashboard.New(dashboardAddr)
		if err := dash.Start(); err != nil {
			return err
		}
		defer dash.Close()
	}

	if mdnsEnabled {
		host, _ := os.Hostname()
		adv, err := discovery.Advertise("fuellink-"+host, mdnsPort, map[string]string{
			"role": "ground-relay",
		})
		if err != nil {
			logging.Warn("ground-relay: mDNS advertisement failed", zap.Error(err))
		} else {
			defer adv.Close()
		}
	}

	var console *monitor.Console
	if withMonitor {
		console = monitor.New()
	}

	start := time.Now()
	nowMs := func() uint32 { return uint32(time.Since(start).Milliseconds()) }

	sink := &lineSink{dash: dash, console: console}
	engine := groundrelay.New(groundrelay.Config{
		AckTimeoutMs:     tunables.CmdAckTimeoutMs,
		MaxRetry:         tunables.CmdMaxRetry,
		RxWatchdogMs:     tunables.RxWatchdogMs,
		ReinitCooldownMs: tunables.ReinitCooldownMs,
		BusyWarnAfterMs:  3000,
		BusyWarnEveryMs:  1000,
	}, rdo, sink)

	engine.FrameHook = func(frame protocol.Frame) {
		switch frame.MsgType {
		case protocol.MsgTelemetry:
			if t, ok := protocol.DecodeTelemetry(frame.Payload); ok {
				if dash != nil {
					dash.PublishTelemetry(t)
				}
				if console != nil {
					console.FeedTelemetry(t)
				}
			}
		case protocol.MsgAck:
			if a, ok := protocol.DecodeAck(frame.Payload); ok {
				if dash != nil {
					dash.PublishAck(a, frame.Seq)
				}
				if console != nil {
					console.FeedAck(a, frame.Seq)
				}
			}
		}
	}

	shell := groundrelay.NewShell(engine, &loraControl{engine: engine, rdo: rdo, nowMs: nowMs})

	// An interactive host gets the banner; a scripted one stays silent.
	if term.IsTerminal(int(os.Stdin.Fd())) && !withMonitor {
		shell.Execute("help", sink, nowMs())
	}

	// In monitor mode Bubble Tea owns stdin, so the shell reader stays off
	// and no shell commands are accepted.
	lines := make(chan string, 16)
	if withMonitor {
		lines = nil
	} else {
		go func() {
			scanner := bufio.NewScanner(os.Stdin)
			for scanner.Scan() {
				lines <- scanner.Text()
			}
			close(lines)
		}()
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	done := make(chan struct{})
	go func() {
		defer close(done)
		ticker := time.NewTicker(time.Duration(tickMs) * time.Millisecond)
		defer ticker.Stop()

		var lastPending groundrelay.PendingCommand
		for {
			select {
			case line, ok := <-lines:
				if !ok {
					lines = nil
					continue
				}
				shell.Execute(line, sink, nowMs())
			case <-ticker.C:
				engine.Tick(nowMs())
				p := engine.Pending()
				if p.Active != lastPending.Active || p.Retry != lastPending.Retry || p.Seq != lastPending.Seq {
					if dash != nil {
						dash.PublishPending(p.Active, p.MsgType, p.Seq, p.Retry)
					}
					if console != nil {
						console.FeedPending(p.Active, p.MsgType, p.Seq, p.Retry)
					}
					lastPending = p
				}
			case <-stop:
				return
			}
		}
	}()

	logging.Info("ground-relay: running")

	if withMonitor {
		err := console.Run()
		signalStop(stop)
		<-done
		return err
	}
	<-done
	logging.Info("ground-relay: shutting down")
	return nil
}

// signalStop asks the relay loop to exit without racing a second OS signal.
func signalStop(stop chan os.Signal) {
	select {
	case stop <- syscall.SIGTERM:
	default:
	}
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("ground-relay %s (commit: %s)\n", version.Version, version.Commit)
	},
}
