package protocol

import (
	"encoding/binary"
	"fmt"

	"github.com/buaawifi/uav-h2-supply-control/internal/crc"
)

const (
	sync1 = 0x55
	sync2 = 0xAA

	// MaxPayload is the largest payload a single frame may carry.
	MaxPayload = 220

	minLength = 4
	maxLength = MaxPayload + 4
)

// Frame is one decoded wire message.
type Frame struct {
	MsgType byte
	Seq     byte
	Payload []byte
}

// Encode packs msgType/seq/payload into a complete wire frame, computing
// and appending the Modbus CRC-16.
func Encode(msgType, seq byte, payload []byte) ([]byte, error) {
	if len(payload) > MaxPayload {
		return nil, fmt.Errorf("protocol: payload too large: %d bytes (max %d)", len(payload), MaxPayload)
	}

	length := len(payload) + 4
	frame := make([]byte, 3+length)
	frame[0] = sync1
	frame[1] = sync2
	frame[2] = byte(length)
	frame[3] = msgType
	frame[4] = seq
	copy(frame[5:], payload)

	crcStart := 1 + length
	sum := crc.Modbus(frame[2:crcStart])
	binary.LittleEndian.PutUint16(frame[crcStart:], sum)

	return frame, nil
}

type parserState int

const (
	waitSync1 parserState = iota
	waitSync2
	waitLen
	waitBody
)

// Parser is a resumable, byte-at-a-time decoder for the wire frame format.
// Feed octets one at a time, in order, as they arrive from the transport;
// it tolerates arbitrarily fragmented input (one byte per call is fine) and
// silently resynchronises on any malformed frame — bad length byte, bad
// CRC, truncated stream interrupted by noise — rather than returning an
// error. There is nothing to configure and no buffering requirement on the
// caller: the parser owns all of its internal state between calls.
//
// The Frame returned by Feed owns its Payload slice; it is safe to retain
// across subsequent Feed calls.
type Parser struct {
	state  parserState
	length int
	need   int
	buf    [maxLength]byte
}

// NewParser returns a Parser ready to receive the start of a frame.
func NewParser() *Parser {
	return &Parser{state: waitSync1}
}

// Feed processes one input octet. ok is true iff a complete, CRC-valid
// frame was just emitted in frame.
func (p *Parser) Feed(b byte) (frame Frame, ok bool) {
	switch p.state {
	case waitSync1:
		if b == sync1 {
			p.state = waitSync2
		}

	case waitSync2:
		switch {
		case b == sync2:
			p.state = waitLen
		case b == sync1:
			// This octet could itself be the start of the next frame;
			// stay put rather than dropping back to waitSync1.
		default:
			p.state = waitSync1
		}

	case waitLen:
		if b < minLength || b > maxLength {
			p.reset()
			return Frame{}, false
		}
		p.length = int(b)
		p.need = int(b)
		p.state = waitBody

	case waitBody:
		p.buf[p.length-p.need] = b
		p.need--
		if p.need == 0 {
			frame, ok = p.finish()
			p.reset()
			return frame, ok
		}
	}

	return Frame{}, false
}

func (p *Parser) finish() (Frame, bool) {
	body := p.buf[:p.length]
	recv := binary.LittleEndian.Uint16(body[p.length-2:])

	var content [1 + maxLength]byte
	content[0] = byte(p.length)
	n := copy(content[1:], body[:p.length-2])

	if crc.Modbus(content[:1+n]) != recv {
		return Frame{}, false
	}

	payload := make([]byte, p.length-4)
	copy(payload, body[2:p.length-2])

	return Frame{
		MsgType: body[0],
		Seq:     body[1],
		Payload: payload,
	}, true
}

func (p *Parser) reset() {
	p.state = waitSync1
	p.length = 0
	p.need = 0
}
