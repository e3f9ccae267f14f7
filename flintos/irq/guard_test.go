package irq

import "testing"

type fakeCPU struct {
	enabled  bool
	enables  int
	disables int
}

func (c *fakeCPU) SaveAndDisable() bool {
	prev := c.enabled
	if prev {
		c.disables++
	}
	c.enabled = false
	return prev
}

func (c *fakeCPU) Restore(enabled bool) {
	if !enabled {
		return
	}
	c.enables++
	c.enabled = true
}

func TestGuardMasksAndRestores(t *testing.T) {
	cpu := &fakeCPU{enabled: true}

	g := Acquire(cpu)
	if cpu.enabled {
		t.Fatalf("enabled = true inside guard, want false")
	}
	g.Release()
	if !cpu.enabled {
		t.Fatalf("enabled = false after Release, want true")
	}
}

func TestGuardNestedDoesNotUnmaskEarly(t *testing.T) {
	cpu := &fakeCPU{enabled: true}

	outer := Acquire(cpu)
	inner := Acquire(cpu)
	inner.Release()
	if cpu.enabled {
		t.Fatalf("enabled = true after inner Release, want false")
	}
	outer.Release()
	if !cpu.enabled {
		t.Fatalf("enabled = false after outer Release, want true")
	}
	if cpu.enables != 1 || cpu.disables != 1 {
		t.Fatalf("enables/disables = %d/%d, want 1/1", cpu.enables, cpu.disables)
	}
}

func TestGuardDoubleReleaseIsNoop(t *testing.T) {
	cpu := &fakeCPU{enabled: true}

	outer := Acquire(cpu)
	inner := Acquire(cpu)
	inner.Release()
	inner.Release()
	if cpu.enabled {
		t.Fatalf("enabled = true after double inner Release, want false")
	}
	if inner.Held() {
		t.Fatalf("Held() = true after Release, want false")
	}
	outer.Release()
	outer.Release()
	if cpu.enables != 1 {
		t.Fatalf("enables = %d, want 1", cpu.enables)
	}
}

func TestGuardAcquiredWhileMasked(t *testing.T) {
	cpu := &fakeCPU{enabled: false}

	Do(cpu, func() {})
	if cpu.enabled {
		t.Fatalf("enabled = true after guard taken while masked, want false")
	}
}

func TestDoReleasesOnPanic(t *testing.T) {
	cpu := &fakeCPU{enabled: true}

	func() {
		defer func() { _ = recover() }()
		Do(cpu, func() { panic("boom") })
	}()
	if !cpu.enabled {
		t.Fatalf("enabled = false after panic inside Do, want true")
	}
}

func TestCellWith(t *testing.T) {
	cpu := &fakeCPU{enabled: true}
	c := NewCell(cpu, 0)

	c.With(func(v *int) {
		if cpu.enabled {
			t.Fatalf("enabled = true inside With, want false")
		}
		*v = 7
	})
	if got := *c.Unguarded(); got != 7 {
		t.Fatalf("value = %d, want 7", got)
	}
	if !cpu.enabled {
		t.Fatalf("enabled = false after With, want true")
	}
}
