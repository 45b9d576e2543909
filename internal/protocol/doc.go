// Package protocol implements the self-synchronising binary frame format
// shared by all three link nodes (fuel controller, air relay, ground relay)
// and the message catalogue carried inside it.
//
// # Frame format
//
// Every frame on the wire has this layout:
//
//	+--------+--------+--------+----------+-----+----------------+---------+
//	| sync1  | sync2  | length | msg_type | seq |    payload     |   crc   |
//	| 0x55   | 0xAA   | 1B     |    1B    | 1B  |  0..220 bytes  | 2B  LE  |
//	+--------+--------+--------+----------+-----+----------------+---------+
//
// length counts msg_type + seq + payload + crc, so it ranges 4..224. The
// CRC is a Modbus CRC-16 (see internal/crc) computed over length through
// payload inclusive, and is placed on the wire little-endian.
//
// Encode builds a complete frame from a message type, sequence number, and
// payload. Parser decodes the stream back into Frames one octet at a time;
// it is resumable across calls and silently resynchronises on any malformed
// input rather than returning an error — see Parser's doc comment.
//
// The message catalogue (Telemetry, ModeSwitch, Setpoints, ManualCmd, Ack,
// Heartbeat) is encoded as fixed-layout little-endian payloads; see
// catalogue.go for the per-message Encode/Decode pairs and
// ExpectedPayloadLen for the whitelist of known message types and lengths.
package protocol
