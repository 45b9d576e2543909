package protocol

import "testing"

func TestEncodeRoundTrip(t *testing.T) {
	tests := []struct {
		name    string
		msgType byte
		seq     byte
		payload []byte
	}{
		{"empty payload", MsgHeartbeat, 0, nil},
		{"mode switch", MsgModeSwitch, 7, []byte{0x01}},
		{"max payload", 0x7F, 200, make([]byte, MaxPayload)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			encoded, err := Encode(tt.msgType, tt.seq, tt.payload)
			if err != nil {
				t.Fatalf("Encode() error = %v", err)
			}

			p := NewParser()
			var got Frame
			var ok bool
			for _, b := range encoded {
				got, ok = p.Feed(b)
			}
			if !ok {
				t.Fatalf("Feed() did not emit a frame for %v", encoded)
			}
			if got.MsgType != tt.msgType || got.Seq != tt.seq {
				t.Errorf("got msgType=%#x seq=%d, want msgType=%#x seq=%d", got.MsgType, got.Seq, tt.msgType, tt.seq)
			}
			if len(got.Payload) != len(tt.payload) {
				t.Fatalf("got payload len %d, want %d", len(got.Payload), len(tt.payload))
			}
			for i := range tt.payload {
				if got.Payload[i] != tt.payload[i] {
					t.Errorf("payload[%d] = %#x, want %#x", i, got.Payload[i], tt.payload[i])
				}
			}
		})
	}
}

func TestEncodeRejectsOversizePayload(t *testing.T) {
	_, err := Encode(MsgTelemetry, 0, make([]byte, MaxPayload+1))
	if err == nil {
		t.Fatal("Encode() with oversize payload should have returned an error")
	}
}

func TestEncodeKnownBytes(t *testing.T) {
	encoded, err := Encode(MsgModeSwitch, 7, []byte{0x01})
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	want := []byte{0x55, 0xAA, 0x05, 0x10, 0x07, 0x01}
	if len(encoded) != len(want)+2 {
		t.Fatalf("encoded length = %d, want %d", len(encoded), len(want)+2)
	}
	for i, b := range want {
		if encoded[i] != b {
			t.Errorf("encoded[%d] = %#x, want %#x", i, encoded[i], b)
		}
	}
}

func TestFeedResyncsAfterBitFlip(t *testing.T) {
	encoded, err := Encode(MsgHeartbeat, 3, nil)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	// Flip a bit in the final (high) CRC byte; the frame must not
	// decode, but the parser must still be usable afterward.
	corrupt := append([]byte(nil), encoded...)
	corrupt[len(corrupt)-1] ^= 0x01

	p := NewParser()
	for _, b := range corrupt {
		if _, ok := p.Feed(b); ok {
			t.Fatal("Feed() emitted a frame from corrupted bytes")
		}
	}

	// The parser should resynchronise and decode a subsequent good frame.
	var ok bool
	for _, b := range encoded {
		_, ok = p.Feed(b)
	}
	if !ok {
		t.Fatal("parser failed to decode a valid frame after a corrupted one")
	}
}
