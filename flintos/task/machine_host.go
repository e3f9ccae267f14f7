//go:build !baremetal

package task

import (
	"reflect"
	"sync"
)

// hostMachine emulates context switching with one goroutine per task.
// Exactly one of them runs at a time: Switch hands a baton to the next
// task's goroutine and parks the caller until its own baton comes back.
type hostMachine struct {
	regs Registers

	mu      sync.Mutex
	threads map[*Context]*hostThread
}

type hostThread struct {
	resume  chan struct{}
	entry   func()
	started bool
}

// NewMachine returns the Machine for the host build.
func NewMachine(regs Registers) Machine {
	return &hostMachine{regs: regs, threads: make(map[*Context]*hostThread)}
}

func (m *hostMachine) thread(ctx *Context) *hostThread {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.threads[ctx]
	if !ok {
		t = &hostThread{resume: make(chan struct{})}
		m.threads[ctx] = t
	}
	return t
}

func (m *hostMachine) Prepare(ctx *Context, entry func(), stackTop uintptr) {
	ctx.RIP = uint64(reflect.ValueOf(entry).Pointer())
	ctx.RBX = uint64(funcval(entry))
	ctx.RSP = uint64(stackTop&^15) - 8
	ctx.RFLAGS = InitialRFLAGS
	ctx.CS = KernelCodeSegment
	ctx.SS = KernelStackSegment
	ctx.CR3 = m.regs.AddressSpaceRoot()

	m.thread(ctx).entry = entry
}

func (m *hostMachine) Switch(next, current *Context) {
	cur, nxt := m.thread(current), m.thread(next)

	current.RFLAGS = m.regs.Flags()
	current.CR3 = m.regs.AddressSpaceRoot()
	m.regs.SetFlags(next.RFLAGS)

	m.mu.Lock()
	cur.started = true
	start := !nxt.started
	nxt.started = true
	m.mu.Unlock()

	if start {
		go nxt.run()
	}
	nxt.resume <- struct{}{}
	<-cur.resume
}

func (t *hostThread) run() {
	<-t.resume
	if t.entry != nil {
		t.entry()
	}
	// A task entry never returns; park the goroutine if one does.
	select {}
}
