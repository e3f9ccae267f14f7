package task

import (
	"errors"
	"sync/atomic"

	"flint/flintos/irq"
	"flint/flintos/klog"
	"flint/flintos/timer"
)

// ErrNotInitialized is returned when the scheduler is used before
// Initialize. The kernel treats it as fatal.
var ErrNotInitialized = errors.New("task: scheduler not initialized")

// ErrNotSpawned is returned by AddTask for a task that has no prepared
// entry point, such as a second main task.
var ErrNotSpawned = errors.New("task: only spawned tasks can be added")

// Pool is the ordered set of tasks and the index of the running one.
// Tasks are never removed.
type Pool struct {
	tasks   []*Task
	current int
}

// NewPool returns a pool holding only the main task, which is running.
func NewPool() *Pool {
	return &Pool{tasks: []*Task{NewMain()}}
}

// Add appends t to the rotation.
func (p *Pool) Add(t *Task) {
	t.id = len(p.tasks)
	p.tasks = append(p.tasks, t)
}

func (p *Pool) Len() int { return len(p.tasks) }

// Current returns the running task.
func (p *Pool) Current() *Task { return p.tasks[p.current] }

// Tasks returns the tasks in rotation order.
func (p *Pool) Tasks() []*Task {
	out := make([]*Task, len(p.tasks))
	copy(out, p.tasks)
	return out
}

// advance moves the running index to the next task and returns the
// outgoing and incoming tasks. With fewer than two tasks there is nothing
// to switch to and ok is false.
func (p *Pool) advance() (from, to *Task, ok bool) {
	if len(p.tasks) < 2 {
		return nil, nil, false
	}
	next := (p.current + 1) % len(p.tasks)
	from, to = p.tasks[p.current], p.tasks[next]
	p.current = next

	from.state = StateRunnable
	to.state = StateRunning
	to.runs++
	return from, to, true
}

// Scheduler rotates the pool on request. All pool access happens with
// interrupts masked.
type Scheduler struct {
	cpu    irq.Controller
	timers *timer.Manager
	m      Machine
	log    *klog.Logger

	pool     *Pool
	switches atomic.Uint64
}

// NewScheduler returns an uninitialized scheduler.
func NewScheduler(cpu irq.Controller, timers *timer.Manager, m Machine, log *klog.Logger) *Scheduler {
	return &Scheduler{cpu: cpu, timers: timers, m: m, log: log.With("task")}
}

// Initialize creates the pool with the main task and arms the first
// task-switch timer. It must run before any other method; later calls
// leave the pool and the timer alone and report false.
func (s *Scheduler) Initialize() bool {
	first := false
	irq.Do(s.cpu, func() {
		if s.pool != nil {
			return
		}
		s.pool = NewPool()
		s.timers.ArmTaskTimeout(s.timers.Now())
		first = true
	})
	if !first {
		s.log.Warnf("scheduler already initialized")
		return false
	}
	s.log.Debugf("scheduler ready, switch every %d ticks", s.timers.Interval())
	return true
}

// Spawn creates a task running entry and adds it to the rotation.
func (s *Scheduler) Spawn(name string, entry func()) (*Task, error) {
	t := Spawn(name, entry, s.m)
	if err := s.AddTask(t); err != nil {
		return nil, err
	}
	return t, nil
}

// AddTask appends t to the rotation. t must come from Spawn.
func (s *Scheduler) AddTask(t *Task) error {
	if t == nil || t.kind != KindSpawned {
		return ErrNotSpawned
	}
	var err error
	irq.Do(s.cpu, func() {
		if s.pool == nil {
			err = ErrNotInitialized
			return
		}
		s.pool.Add(t)
	})
	if err == nil {
		s.log.Debugf("added task %d %q", t.id, t.name)
	}
	return err
}

// SwitchTask suspends the running task and resumes the next one in
// rotation. It returns once the caller's task is switched back in. With a
// single task it returns immediately.
func (s *Scheduler) SwitchTask() error {
	g := irq.Acquire(s.cpu)
	defer g.Release()

	if s.pool == nil {
		return ErrNotInitialized
	}
	from, to, ok := s.pool.advance()
	if !ok {
		return nil
	}
	s.switches.Add(1)
	s.m.Switch(to.ctx, from.ctx)
	return nil
}

// Current returns the running task, or nil before Initialize.
func (s *Scheduler) Current() *Task {
	var t *Task
	irq.Do(s.cpu, func() {
		if s.pool != nil {
			t = s.pool.Current()
		}
	})
	return t
}

// Tasks returns a snapshot of the rotation.
func (s *Scheduler) Tasks() []*Task {
	var ts []*Task
	irq.Do(s.cpu, func() {
		if s.pool != nil {
			ts = s.pool.Tasks()
		}
	})
	return ts
}

// Switches returns how many context switches have happened.
func (s *Scheduler) Switches() uint64 { return s.switches.Load() }
