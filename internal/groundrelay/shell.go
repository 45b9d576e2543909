package groundrelay

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/buaawifi/uav-h2-supply-control/internal/protocol"
)

// Shell parses the USB line-oriented command grammar (§6) into downlink
// submissions and local LoRa diagnostics. It does not own the serial
// framing itself (that is cobra/bufio glue in cmd/ground-relay); it just
// turns one '\n'-terminated line into an action.
type Shell struct {
	engine   *Engine
	loraCtrl LoRaControl
}

// LoRaControl is the small set of local (non-downlink) LoRa diagnostics the
// shell can invoke directly against the relay's radio.
type LoRaControl interface {
	Stat() string
	SetRawSniff(enabled bool)
	SendRaw(text string) error
	Ping() error
}

// NewShell constructs a Shell bound to engine for command submission and
// ctrl for local LoRa diagnostics.
func NewShell(engine *Engine, ctrl LoRaControl) *Shell {
	return &Shell{engine: engine, loraCtrl: ctrl}
}

const helpText = `commands:
  help
  mode safe|manual|auto
  set heater <pct>
  set valve <pct>
  set T <degC>
  set P <pa>
  set valve_sp <pct>
  lora stat
  lora raw on|off
  lora tx <text>
  lora ping`

// Execute parses and runs one command line, writing any resulting output
// lines to out. nowMs is the clock used for command submission.
func (s *Shell) Execute(line string, out LineSink, nowMs uint32) {
	fields := strings.Fields(strings.TrimSpace(line))
	if len(fields) == 0 {
		return
	}

	switch fields[0] {
	case "help":
		out.WriteLine(helpText)

	case "mode":
		s.execMode(fields, out, nowMs)

	case "set":
		s.execSet(fields, out, nowMs)

	case "lora":
		s.execLora(fields, out)

	default:
		out.WriteLine(fmt.Sprintf("unknown command: %s", fields[0]))
	}
}

func (s *Shell) execMode(fields []string, out LineSink, nowMs uint32) {
	if len(fields) != 2 {
		out.WriteLine("usage: mode safe|manual|auto")
		return
	}
	var mode protocol.Mode
	switch fields[1] {
	case "safe":
		mode = protocol.ModeSafe
	case "manual":
		mode = protocol.ModeManual
	case "auto":
		mode = protocol.ModeAuto
	default:
		out.WriteLine("usage: mode safe|manual|auto")
		return
	}
	s.engine.Submit(protocol.MsgModeSwitch, protocol.EncodeModeSwitch(mode), nowMs)
}

func (s *Shell) execSet(fields []string, out LineSink, nowMs uint32) {
	if len(fields) != 3 {
		out.WriteLine("usage: set heater|valve|T|P|valve_sp <value>")
		return
	}
	value, err := strconv.ParseFloat(fields[2], 32)
	if err != nil {
		out.WriteLine(fmt.Sprintf("invalid value: %s", fields[2]))
		return
	}
	v := float32(value)

	switch fields[1] {
	case "heater":
		s.engine.Submit(protocol.MsgManualCmd, protocol.EncodeManualCmd(protocol.ManualCmd{
			Flags: protocol.ManualFlagHeater, HeaterPct: v,
		}), nowMs)
	case "valve":
		s.engine.Submit(protocol.MsgManualCmd, protocol.EncodeManualCmd(protocol.ManualCmd{
			Flags: protocol.ManualFlagValve, ValvePct: v,
		}), nowMs)
	case "T":
		s.engine.Submit(protocol.MsgSetpoints, protocol.EncodeSetpoints(protocol.Setpoints{
			T: v, EnableMask: protocol.SetpointEnableT,
		}), nowMs)
	case "P":
		s.engine.Submit(protocol.MsgSetpoints, protocol.EncodeSetpoints(protocol.Setpoints{
			P: v, EnableMask: protocol.SetpointEnableP,
		}), nowMs)
	case "valve_sp":
		s.engine.Submit(protocol.MsgSetpoints, protocol.EncodeSetpoints(protocol.Setpoints{
			ValveSP: v, EnableMask: protocol.SetpointEnableValve,
		}), nowMs)
	default:
		out.WriteLine(fmt.Sprintf("unknown set target: %s", fields[1]))
	}
}

func (s *Shell) execLora(fields []string, out LineSink) {
	if len(fields) < 2 {
		out.WriteLine("usage: lora stat|raw on|off|tx <text>|ping")
		return
	}
	switch fields[1] {
	case "stat":
		out.WriteLine(s.loraCtrl.Stat())
	case "raw":
		if len(fields) != 3 || (fields[2] != "on" && fields[2] != "off") {
			out.WriteLine("usage: lora raw on|off")
			return
		}
		s.loraCtrl.SetRawSniff(fields[2] == "on")
	case "tx":
		text := strings.Join(fields[2:], " ")
		if err := s.loraCtrl.SendRaw(text); err != nil {
			out.WriteLine(fmt.Sprintf("lora tx failed: %v", err))
		}
	case "ping":
		if err := s.loraCtrl.Ping(); err != nil {
			out.WriteLine(fmt.Sprintf("lora ping failed: %v", err))
		}
	default:
		out.WriteLine(fmt.Sprintf("unknown lora subcommand: %s", fields[1]))
	}
}

// FormatTelemetryLine renders a decoded Telemetry message in the host
// shell's required format (§6).
func FormatTelemetryLine(t protocol.Telemetry) string {
	return fmt.Sprintf("[TELEM] t=%d T0=%.2f T1=%.2f P(Pa)=%.1f heater=%%=%.1f valve=%%=%.1f",
		t.TimestampMs, t.TempC[0], t.TempC[1], t.PressurePa, t.HeaterPct, t.ValvePct)
}

// FormatAckLine renders a decoded Ack message in the host shell's required
// format (§6).
func FormatAckLine(a protocol.Ack) string {
	return fmt.Sprintf("[ACK] for=0x%02x status=%d", a.AckedMsgType, a.Status)
}
