// Package groundrelay implements the ground-side gateway: the reliable
// downlink engine (submit, retry, ACK match), the RX watchdog that
// self-heals the radio, and the USB line shell grammar (§4.6, §6).
package groundrelay

import (
	"encoding/hex"
	"fmt"

	"github.com/buaawifi/uav-h2-supply-control/internal/protocol"
)

// ackExpecting is the set of msg_types whose submission installs a
// PendingCommand awaiting an Ack (§4.6).
var ackExpecting = map[byte]bool{
	protocol.MsgModeSwitch: true,
	protocol.MsgManualCmd:  true,
	protocol.MsgSetpoints:  true,
}

// PendingCommand tracks one in-flight reliable downlink command until it is
// ACKed or exhausts its retry budget. There is at most one active at a
// time, owned by the ground relay's loop.
type PendingCommand struct {
	Active  bool
	MsgType byte
	Seq     byte
	Frame   []byte

	Retry      int
	LastSendMs uint32
	SentOnce   bool

	haveBusySince   bool
	BusySinceMs     uint32
	haveLastBusy    bool
	LastBusyWarnMs  uint32
}

// Line is the USB shell's byte-exact output contract (§6). Engine writes
// exactly these formats so the host can parse them.
type Line = string

func ackReceivedLine(msgType, seq, status byte) Line {
	return fmt.Sprintf("[CMD] ACK received for msg=0x%02x seq=%d status=%d", msgType, seq, status)
}

func retryLine(retry int, msgType, seq byte) Line {
	return fmt.Sprintf("[CMD] RETRY #%d msg=0x%02x seq=%d", retry, msgType, seq)
}

func failLine(msgType, seq byte) Line {
	return fmt.Sprintf("[CMD] FAIL: no ACK for msg=0x%02x seq=%d", msgType, seq)
}

const busyWarningLine Line = "[CMD] WARNING: LoRa TX busy > 3s (busy does not count retry)"

func rawPacketLine(packet []byte) Line {
	return fmt.Sprintf("[RAW] len=%d %s", len(packet), hex.EncodeToString(packet))
}
