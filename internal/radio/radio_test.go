package radio

import "testing"

func TestLoopbackRoundTrip(t *testing.T) {
	r := NewLoopback()
	r.GuardWindow = 0
	if got := r.Transmit([]byte{1, 2, 3}); got != OK {
		t.Fatalf("Transmit() = %v, want OK", got)
	}
	packet, ok := r.Receive()
	if !ok {
		t.Fatal("Receive() ok = false")
	}
	if len(packet) != 3 {
		t.Errorf("got packet %v", packet)
	}
}

func TestLoopbackGuardWindowReturnsBusy(t *testing.T) {
	r := NewLoopback()
	if got := r.Transmit([]byte{1}); got != OK {
		t.Fatalf("first Transmit = %v, want OK", got)
	}
	if got := r.Transmit([]byte{2}); got != Busy {
		t.Errorf("immediate second Transmit = %v, want Busy", got)
	}
}

func TestLoopbackForceResult(t *testing.T) {
	r := NewLoopback()
	fail := Fail
	r.ForceResult(&fail)
	if got := r.Transmit([]byte{1}); got != Fail {
		t.Errorf("Transmit() = %v, want forced Fail", got)
	}
	r.ForceResult(nil)
}

func TestLoopbackResetClearsPending(t *testing.T) {
	r := NewLoopback()
	r.GuardWindow = 0
	r.Transmit([]byte{1})
	if err := r.Reset(); err != nil {
		t.Fatalf("Reset() error = %v", err)
	}
	if _, ok := r.Receive(); ok {
		t.Error("Receive() after Reset should be empty")
	}
	if r.ResetCount() != 1 {
		t.Errorf("ResetCount() = %d, want 1", r.ResetCount())
	}
}
