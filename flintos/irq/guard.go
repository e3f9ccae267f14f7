// Package irq provides the kernel's only mutual-exclusion primitive: a
// critical section that masks maskable interrupts on the current core.
//
// On a single core with no other threads, code running with interrupts
// masked cannot be preempted, so holding a Guard gives exclusive access to
// any state shared with interrupt handlers.
package irq

// Controller is the part of the CPU a critical section needs.
type Controller interface {
	// SaveAndDisable masks maskable interrupts and reports whether they
	// were enabled beforehand.
	SaveAndDisable() bool
	// Restore unmasks interrupts when enabled is true and does nothing
	// otherwise.
	Restore(enabled bool)
}

// Guard is a held critical section.
//
// A Guard restores the interrupt state it observed on acquisition, so
// nested guards released in reverse order never unmask interrupts that an
// outer guard still needs. Release is idempotent.
type Guard struct {
	c       Controller
	enabled bool
	held    bool
}

// Acquire masks interrupts and returns a guard that restores the previous
// state on Release.
func Acquire(c Controller) Guard {
	return Guard{c: c, enabled: c.SaveAndDisable(), held: true}
}

// Release ends the critical section. Releasing twice is a no-op.
func (g *Guard) Release() {
	if !g.held {
		return
	}
	g.held = false
	g.c.Restore(g.enabled)
}

// Held reports whether the guard has not been released yet.
func (g *Guard) Held() bool { return g.held }

// Do runs fn inside a critical section.
func Do(c Controller, fn func()) {
	g := Acquire(c)
	defer g.Release()
	fn()
}

// Cell owns a value that may only be touched inside a critical section.
type Cell[T any] struct {
	c Controller
	v T
}

// NewCell wraps v so that every access masks interrupts through c.
func NewCell[T any](c Controller, v T) *Cell[T] {
	return &Cell[T]{c: c, v: v}
}

// With runs fn with exclusive access to the wrapped value.
func (c *Cell[T]) With(fn func(v *T)) {
	g := Acquire(c.c)
	defer g.Release()
	fn(&c.v)
}

// Unguarded returns the wrapped value without masking interrupts.
//
// It is only correct from interrupt handlers, which already run masked.
func (c *Cell[T]) Unguarded() *T { return &c.v }
