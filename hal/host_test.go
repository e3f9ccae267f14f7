//go:build !baremetal

package hal

import (
	"testing"
	"time"
)

func TestHostCPUDefersDeliveryWhileMasked(t *testing.T) {
	c := newHostCPU()
	var got []Vector
	c.Handle(VectorTimer, func() {
		if c.Flags()&flagIF != 0 {
			t.Errorf("handler ran with interrupts enabled")
		}
		got = append(got, VectorTimer)
	})

	c.Raise(VectorTimer)
	if len(got) != 0 {
		t.Fatalf("delivered while masked: %v", got)
	}

	c.Restore(true)
	if len(got) != 1 {
		t.Fatalf("deliveries = %d, want 1", len(got))
	}
	if c.Flags()&flagIF == 0 {
		t.Fatalf("IF clear after delivery, want set")
	}
}

func TestHostCPUDeliversHighestVectorFirst(t *testing.T) {
	c := newHostCPU()
	var got []Vector
	for _, v := range []Vector{VectorXHCI, VectorTimer, VectorKeyboard} {
		v := v
		c.Handle(v, func() { got = append(got, v) })
	}

	c.Raise(VectorXHCI)
	c.Raise(VectorKeyboard)
	c.Raise(VectorTimer)
	c.Raise(VectorTimer)
	c.EnableInterrupts()

	want := []Vector{VectorKeyboard, VectorTimer, VectorXHCI}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestHostCPUNestedSaveRestore(t *testing.T) {
	c := newHostCPU()
	c.EnableInterrupts()

	outer := c.SaveAndDisable()
	inner := c.SaveAndDisable()
	c.Restore(inner)
	if c.Flags()&flagIF != 0 {
		t.Fatalf("inner restore unmasked interrupts")
	}
	c.Restore(outer)
	if c.Flags()&flagIF == 0 {
		t.Fatalf("outer restore left interrupts masked")
	}
}

func TestHostCPUHaltWakesOnRaise(t *testing.T) {
	c := newHostCPU()
	fired := make(chan struct{}, 1)
	c.Handle(VectorTimer, func() { fired <- struct{}{} })
	c.EnableInterrupts()

	go func() {
		time.Sleep(5 * time.Millisecond)
		c.Raise(VectorTimer)
	}()

	deadline := time.After(2 * time.Second)
	for {
		c.Halt()
		select {
		case <-fired:
			return
		case <-deadline:
			t.Fatalf("Halt never delivered the timer interrupt")
		default:
		}
	}
}

func TestHostTimerStopsAtLimit(t *testing.T) {
	c := newHostCPU()
	tm := newHostTimer(c)
	tm.limit = 3

	if err := tm.Start(1000); err != nil {
		t.Fatalf("Start() = %v", err)
	}
	defer tm.Stop()
	if err := tm.Start(1000); err == nil {
		t.Fatalf("second Start() = nil, want error")
	}

	select {
	case <-tm.Done():
	case <-time.After(2 * time.Second):
		t.Fatalf("Done() not closed after %d ticks", tm.limit)
	}
	if n := tm.fired.Load(); n < 3 {
		t.Fatalf("fired = %d, want at least 3", n)
	}
}

func TestHostTimerRejectsBadRate(t *testing.T) {
	tm := newHostTimer(newHostCPU())
	if err := tm.Start(0); err == nil {
		t.Fatalf("Start(0) = nil, want error")
	}
}

func TestHostKeyboardRaisesVector(t *testing.T) {
	c := newHostCPU()
	k := newHostKeyboard(c)
	raised := 0
	c.Handle(VectorKeyboard, func() { raised++ })

	k.pushRune('\r')
	k.pushRune('x')
	c.EnableInterrupts()

	if raised != 1 {
		t.Fatalf("keyboard interrupts = %d, want 1 (coalesced)", raised)
	}
	if ev := <-k.Events(); ev.Code != KeyEnter || !ev.Press {
		t.Fatalf("first event = %+v, want enter press", ev)
	}
	if ev := <-k.Events(); ev.Rune != 'x' {
		t.Fatalf("second event = %+v, want rune x", ev)
	}
}

func TestHostFramebufferPresent(t *testing.T) {
	fb := newHostFramebuffer(4, 2)
	fb.ClearRGB(0xff, 0, 0)

	snap := make([]byte, len(fb.back))
	fb.snapshotRGB565(snap)
	if snap[0] != 0 || snap[1] != 0 {
		t.Fatalf("front changed before Present")
	}

	if err := fb.Present(); err != nil {
		t.Fatalf("Present() = %v", err)
	}
	fb.snapshotRGB565(snap)
	px := uint16(snap[0]) | uint16(snap[1])<<8
	if px != rgb565(0xff, 0, 0) {
		t.Fatalf("pixel = %#04x, want %#04x", px, rgb565(0xff, 0, 0))
	}
	if fb.presents != 1 {
		t.Fatalf("presents = %d, want 1", fb.presents)
	}
}
