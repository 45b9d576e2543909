package crc

import "testing"

func TestModbusKnownVectors(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want uint16
	}{
		{"empty", nil, 0xFFFF},
		{"single zero byte", []byte{0x00}, 0x40BF},
		{"modbus request example", []byte{0x02, 0x07}, 0x1241},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Modbus(tt.data); got != tt.want {
				t.Errorf("Modbus(%v) = 0x%04X, want 0x%04X", tt.data, got, tt.want)
			}
		})
	}
}

func TestModbusIsDeterministic(t *testing.T) {
	data := []byte{0x55, 0xAA, 0x09, 0x01, 0x02, 0x03, 0x04, 0x05}
	first := Modbus(data)
	second := Modbus(data)
	if first != second {
		t.Errorf("Modbus is not deterministic: %04X vs %04X", first, second)
	}
}
