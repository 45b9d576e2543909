package transport

import "testing"

func newTestPort(size int) *Port {
	return &Port{ring: make([]byte, size)}
}

func TestRingBufferFIFO(t *testing.T) {
	p := newTestPort(8)
	p.enqueue([]byte{1, 2, 3})

	for _, want := range []byte{1, 2, 3} {
		got, ok := p.ReadByte()
		if !ok || got != want {
			t.Fatalf("ReadByte() = (%d, %v), want (%d, true)", got, ok, want)
		}
	}
	if _, ok := p.ReadByte(); ok {
		t.Error("ReadByte() on empty ring should report ok=false")
	}
}

func TestRingBufferDropsOldestWhenFull(t *testing.T) {
	p := newTestPort(4)
	p.enqueue([]byte{1, 2, 3, 4})
	p.enqueue([]byte{5, 6})

	var got []byte
	for {
		b, ok := p.ReadByte()
		if !ok {
			break
		}
		got = append(got, b)
	}
	want := []byte{3, 4, 5, 6}
	if len(got) != len(want) {
		t.Fatalf("drained %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("drained %v, want %v", got, want)
		}
	}
}

func TestWriteAvailableTracksOccupancy(t *testing.T) {
	p := newTestPort(8)
	if got := p.WriteAvailable(); got != 8 {
		t.Fatalf("WriteAvailable() = %d, want 8 when empty", got)
	}
	p.enqueue([]byte{1, 2, 3})
	if got := p.WriteAvailable(); got != 5 {
		t.Fatalf("WriteAvailable() = %d, want 5 with 3 buffered", got)
	}
	p.ReadByte()
	if got := p.WriteAvailable(); got != 6 {
		t.Fatalf("WriteAvailable() = %d, want 6 after one read", got)
	}
}

func TestRingBufferWrapAround(t *testing.T) {
	p := newTestPort(4)
	// Cycle enough bytes through to wrap head/tail several times.
	next := byte(0)
	for round := 0; round < 5; round++ {
		p.enqueue([]byte{next, next + 1})
		for i := 0; i < 2; i++ {
			got, ok := p.ReadByte()
			if !ok || got != next {
				t.Fatalf("round %d: ReadByte() = (%d, %v), want (%d, true)", round, got, ok, next)
			}
			next++
		}
	}
}
