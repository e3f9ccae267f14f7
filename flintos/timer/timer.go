// Package timer keeps the kernel's deadline-ordered timers and the tick
// counter advanced by the periodic timer interrupt.
package timer

import (
	"container/heap"
	"math"
	"sync/atomic"

	"flint/flintos/event"
	"flint/flintos/klog"
)

const (
	// TaskTimeoutMessage is the payload reserved for the task-switch timer.
	TaskTimeoutMessage int64 = math.MaxInt64

	// TaskTimeoutInterval is the default number of ticks between task
	// switch requests.
	TaskTimeoutInterval uint64 = 10
)

// Timer fires once its deadline tick is reached.
type Timer struct {
	Deadline uint64
	Payload  int64

	seq uint64
}

// New returns a timer firing at deadline with payload.
func New(deadline uint64, payload int64) Timer {
	return Timer{Deadline: deadline, Payload: payload}
}

// IsTaskTimeout reports whether t is the task-switch timer.
func (t Timer) IsTaskTimeout() bool { return t.Payload == TaskTimeoutMessage }

// timerHeap is a min-heap on (Deadline, seq): equal deadlines fire in
// the order they were added.
type timerHeap []Timer

func (h timerHeap) Len() int { return len(h) }
func (h timerHeap) Less(i, j int) bool {
	if h[i].Deadline != h[j].Deadline {
		return h[i].Deadline < h[j].Deadline
	}
	return h[i].seq < h[j].seq
}
func (h timerHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *timerHeap) Push(x any)   { *h = append(*h, x.(Timer)) }
func (h *timerHeap) Pop() any {
	old := *h
	n := len(old)
	t := old[n-1]
	*h = old[:n-1]
	return t
}

// Manager owns the tick counter and the pending timers.
//
// Tick runs in the timer interrupt handler. Every other method except Now
// must be called with interrupts masked.
type Manager struct {
	tick     atomic.Uint64
	timers   timerHeap
	seq      uint64
	interval uint64

	taskTimeout atomic.Bool

	events  *event.Queue
	log     *klog.Logger
	fired   atomic.Uint64
	dropped atomic.Uint64
}

// Option configures a Manager.
type Option func(*Manager)

// WithInterval sets the task-switch interval in ticks.
func WithInterval(ticks uint64) Option {
	return func(m *Manager) {
		if ticks > 0 {
			m.interval = ticks
		}
	}
}

// WithLogger sets the logger used for overflow warnings.
func WithLogger(log *klog.Logger) Option {
	return func(m *Manager) { m.log = log }
}

// NewManager returns a manager that posts timeout events to events.
func NewManager(events *event.Queue, opts ...Option) *Manager {
	m := &Manager{events: events, interval: TaskTimeoutInterval}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Add schedules t.
func (m *Manager) Add(t Timer) {
	m.seq++
	t.seq = m.seq
	heap.Push(&m.timers, t)
}

// ArmTaskTimeout schedules the task-switch timer one interval after tick.
func (m *Manager) ArmTaskTimeout(tick uint64) {
	m.Add(New(tick+m.interval, TaskTimeoutMessage))
}

// Tick advances the counter by one and dispatches every timer whose
// deadline has been reached.
func (m *Manager) Tick() {
	now := m.tick.Add(1)
	for len(m.timers) > 0 {
		if m.timers[0].Deadline > now {
			return
		}
		t := heap.Pop(&m.timers).(Timer)

		if t.IsTaskTimeout() {
			m.taskTimeout.Store(true)
			m.ArmTaskTimeout(now)
			continue
		}

		m.fired.Add(1)
		if rejected, ok := m.events.Push(event.Timeout(t.Deadline, t.Payload)); !ok {
			m.dropped.Add(1)
			m.log.Warnf("event queue full, dropped %s", rejected)
		}
	}
}

// Now returns the current tick without locking.
func (m *Manager) Now() uint64 { return m.tick.Load() }

// CheckTaskTimeout reports whether the task-switch timer fired since the
// last reset.
func (m *Manager) CheckTaskTimeout() bool { return m.taskTimeout.Load() }

// ResetTaskTimeout clears the task-switch flag.
func (m *Manager) ResetTaskTimeout() { m.taskTimeout.Store(false) }

// Interval returns the task-switch interval in ticks.
func (m *Manager) Interval() uint64 { return m.interval }

// Len returns the number of pending timers, the task-switch timer
// included.
func (m *Manager) Len() int { return len(m.timers) }

// Next returns the earliest pending timer.
func (m *Manager) Next() (Timer, bool) {
	if len(m.timers) == 0 {
		return Timer{}, false
	}
	return m.timers[0], true
}

// Fired returns how many user timers have expired.
func (m *Manager) Fired() uint64 { return m.fired.Load() }

// Dropped returns how many timeout events were lost to a full queue.
func (m *Manager) Dropped() uint64 { return m.dropped.Load() }
