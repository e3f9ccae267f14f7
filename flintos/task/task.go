// Package task implements the kernel's cooperative round-robin scheduler:
// tasks with their own stacks, the pool that orders them, and the machine
// layer that saves one task's CPU state and resumes another's.
package task

import "unsafe"

// StackWords is the size of every task stack in 64-bit words.
const StackWords = 1024

// Registers is the CPU state a Machine reads and writes around a switch.
type Registers interface {
	Flags() uint64
	SetFlags(flags uint64)
	AddressSpaceRoot() uint64
}

// Machine is the architecture-specific half of task switching.
type Machine interface {
	// Prepare initialises ctx so that the first switch into it starts
	// entry on the stack ending at stackTop, with interrupts enabled.
	// RBX carries entry's closure pointer; the caller keeps entry alive.
	Prepare(ctx *Context, entry func(), stackTop uintptr)
	// Switch saves the running state into current and resumes next. It
	// returns when some later Switch resumes current.
	Switch(next, current *Context)
}

// Kind says how a task came to exist.
type Kind uint8

const (
	// KindMain is the boot context that was already running.
	KindMain Kind = iota
	// KindSpawned starts at an entry function on its own stack.
	KindSpawned
)

func (k Kind) String() string {
	if k == KindMain {
		return "main"
	}
	return "spawned"
}

// State is a task's scheduling state. There is no terminal state.
type State uint8

const (
	StateCreated State = iota
	StateRunnable
	StateRunning
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateRunnable:
		return "runnable"
	case StateRunning:
		return "running"
	default:
		return "unknown"
	}
}

// Task is an independently stacked execution context.
type Task struct {
	id    int
	name  string
	kind  Kind
	state State

	stack []uint64
	ctx   *Context
	// entry keeps the closure the Context points at alive.
	entry func()

	runs uint64
}

// NewMain returns the task that represents the running boot context. Its
// Context is filled in by the first switch away from it.
func NewMain() *Task {
	return &Task{
		name:  "main",
		kind:  KindMain,
		state: StateRunning,
		stack: make([]uint64, StackWords),
		ctx:   newContext(),
		runs:  1,
	}
}

// Spawn returns a runnable task that will start executing entry the first
// time it is switched to. entry must never return.
func Spawn(name string, entry func(), m Machine) *Task {
	t := &Task{
		name:  name,
		kind:  KindSpawned,
		state: StateCreated,
		stack: make([]uint64, StackWords),
		ctx:   newContext(),
		entry: entry,
	}
	m.Prepare(t.ctx, entry, t.StackTop())
	t.state = StateRunnable
	return t
}

// ID returns the task's index in its pool.
func (t *Task) ID() int { return t.id }

func (t *Task) Name() string      { return t.name }
func (t *Task) Kind() Kind        { return t.kind }
func (t *Task) State() State      { return t.state }
func (t *Task) Context() *Context { return t.ctx }

// Runs returns how many times the task has been switched in.
func (t *Task) Runs() uint64 { return t.runs }

// funcval returns the closure pointer behind fn, which is what the
// entry trampoline calls through.
func funcval(fn func()) uintptr {
	return *(*uintptr)(unsafe.Pointer(&fn))
}

// StackTop returns the address one past the end of the task's stack.
func (t *Task) StackTop() uintptr {
	return uintptr(unsafe.Pointer(&t.stack[0])) + uintptr(len(t.stack))*8
}

// StackBase returns the lowest address of the task's stack.
func (t *Task) StackBase() uintptr {
	return uintptr(unsafe.Pointer(&t.stack[0]))
}
