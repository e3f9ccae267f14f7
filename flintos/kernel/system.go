// Package kernel ties the event queue, the timer manager and the task
// scheduler into the one state handle that interrupt handlers and the main
// loop share.
package kernel

import (
	"context"
	"fmt"
	"sync/atomic"

	"flint/flintos/event"
	"flint/flintos/irq"
	"flint/flintos/klog"
	"flint/flintos/task"
	"flint/flintos/timer"
)

// CPU is what the kernel needs from the processor.
type CPU interface {
	irq.Controller
	task.Registers

	// Halt enables interrupts and waits for the next one.
	Halt()
	// Wake ends a Halt early where the platform allows it.
	Wake()
}

// Driver services a device after its interrupt has been queued.
type Driver interface {
	// ProcessEvent handles one unit of pending work and reports whether
	// more is pending.
	ProcessEvent() (more bool, err error)
}

// DriverFunc adapts a function to Driver.
type DriverFunc func() (bool, error)

func (f DriverFunc) ProcessEvent() (bool, error) { return f() }

// TimeoutHandler receives expired user timers in the main loop.
type TimeoutHandler func(ev event.Event)

// Config holds the kernel's tunables.
type Config struct {
	// TaskTimeoutInterval is the number of ticks between task switches.
	TaskTimeoutInterval uint64
}

// Stats is a snapshot of the kernel counters.
type Stats struct {
	Ticks     uint64
	Switches  uint64
	Delivered uint64
	Dropped   uint64
	Timeouts  uint64
	Queued    int
	Timers    int
	Tasks     int
}

// System is the kernel state handle. It is created once at boot.
type System struct {
	cpu CPU
	log *klog.Logger

	events *irq.Cell[event.Queue]
	timers *timer.Manager
	sched  *task.Scheduler

	drivers     map[event.Device]Driver
	onTimeout   TimeoutHandler
	initialized bool

	taskErr atomic.Pointer[FatalError]

	delivered     atomic.Uint64
	deviceDropped atomic.Uint64
	timeouts      atomic.Uint64
}

// New returns a kernel that switches tasks with m. Nothing runs until
// Initialize.
func New(cfg Config, cpu CPU, m task.Machine, log *klog.Logger) *System {
	s := &System{
		cpu:     cpu,
		log:     log.With("kernel"),
		events:  irq.NewCell(cpu, event.Queue{}),
		drivers: make(map[event.Device]Driver),
	}
	s.timers = timer.NewManager(s.events.Unguarded(),
		timer.WithInterval(cfg.TaskTimeoutInterval),
		timer.WithLogger(log.With("timer")),
	)
	s.sched = task.NewScheduler(cpu, s.timers, m, log)
	return s
}

// Initialize creates the main task and arms the task-switch timer. Only
// the first call has any effect.
func (s *System) Initialize() {
	if s.sched.Initialize() {
		s.initialized = true
	}
}

// Now returns the current tick.
func (s *System) Now() uint64 { return s.timers.Now() }

// Spawn starts entry as a new task. A panic inside entry is reported
// through the panic handler and fails the main loop; the dead task then
// hands the CPU on whenever it is resumed.
func (s *System) Spawn(name string, entry func()) (*task.Task, error) {
	if !s.initialized {
		return nil, ErrNotInitialized
	}
	return s.sched.Spawn(name, func() {
		defer func() {
			if r := recover(); r != nil {
				fe := &FatalError{Op: "task " + name, Err: fmt.Errorf("panic: %v", r)}
				s.taskErr.CompareAndSwap(nil, fe)
				s.log.Errorf("%v", fe)
				triggerPanic(PanicInfo{Task: name, Value: r})
				for {
					_ = s.sched.SwitchTask()
				}
			}
		}()
		entry()
	})
}

// AddTask adds an already constructed task to the rotation.
func (s *System) AddTask(t *task.Task) error {
	return s.sched.AddTask(t)
}

// AddTimer schedules a Timeout event for tick deadline. The payload
// timer.TaskTimeoutMessage belongs to the task-switch timer and is
// rejected.
func (s *System) AddTimer(deadline uint64, payload int64) error {
	if payload == timer.TaskTimeoutMessage {
		return fmt.Errorf("%w: %d", ErrReservedPayload, payload)
	}
	irq.Do(s.cpu, func() {
		s.timers.Add(timer.New(deadline, payload))
	})
	return nil
}

// RegisterDriver routes DeviceInterrupt events for dev to d.
func (s *System) RegisterDriver(dev event.Device, d Driver) {
	s.drivers[dev] = d
}

// HandleTimeouts installs the handler for expired user timers.
func (s *System) HandleTimeouts(fn TimeoutHandler) {
	s.onTimeout = fn
}

// OnTimerInterrupt is the timer vector's handler.
func (s *System) OnTimerInterrupt() {
	s.timers.Tick()
}

// OnDeviceInterrupt is a device vector's handler. When the queue is full
// the event is dropped and counted.
func (s *System) OnDeviceInterrupt(dev event.Device) {
	q := s.events.Unguarded()
	if rejected, ok := q.Push(event.DeviceInterrupt(dev)); !ok {
		s.deviceDropped.Add(1)
		s.log.Warnf("event queue full, dropped %s", rejected)
	}
}

// Yield switches to the next task if the task-switch timer has fired.
// Long-running tasks call it from their loops; it also briefly masks and
// restores interrupts, so pending ones are taken here.
func (s *System) Yield() error {
	due := false
	irq.Do(s.cpu, func() {
		if s.timers.CheckTaskTimeout() {
			s.timers.ResetTaskTimeout()
			due = true
		}
	})
	if !due {
		return nil
	}
	if err := s.sched.SwitchTask(); err != nil {
		return s.fatal("switch task", err)
	}
	return nil
}

// Step runs one main-loop iteration without halting: a due task switch,
// else at most one event. It reports whether there was anything to do.
func (s *System) Step() (bool, error) {
	return s.step(false)
}

// Run is the kernel main loop. It halts the CPU while there is nothing to
// do and returns ctx's error once ctx is done, or a *FatalError.
func (s *System) Run(ctx context.Context) (err error) {
	stop := context.AfterFunc(ctx, s.cpu.Wake)
	defer stop()
	defer func() {
		if r := recover(); r != nil {
			err = s.fatalPanic(r)
		}
	}()

	s.log.Infof("main loop running, %d tasks", len(s.sched.Tasks()))
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := s.step(true); err != nil {
			return err
		}
	}
}

func (s *System) step(halt bool) (bool, error) {
	if !s.initialized {
		return false, s.fatal("main loop", ErrNotInitialized)
	}
	if fe := s.taskErr.Load(); fe != nil {
		return false, fe
	}
	if s.timers.CheckTaskTimeout() {
		return true, s.Yield()
	}

	g := irq.Acquire(s.cpu)
	ev, ok := s.events.Unguarded().Pop()
	if !ok {
		if halt {
			s.cpu.Halt()
		}
		g.Release()
		return false, nil
	}
	g.Release()

	return true, s.dispatch(ev)
}

func (s *System) dispatch(ev event.Event) error {
	switch ev.Kind {
	case event.KindTimeout:
		s.timeouts.Add(1)
		if s.onTimeout != nil {
			s.onTimeout(ev)
		} else {
			s.log.Infof("timer expired: deadline %d, payload %d", ev.Deadline, ev.Payload)
		}

	case event.KindDeviceInterrupt:
		d, ok := s.drivers[ev.Device]
		if !ok {
			return s.fatal("dispatch "+ev.String(), ErrNoDriver)
		}
		for {
			more, err := d.ProcessEvent()
			if err != nil {
				s.log.Errorf("%s driver: %v", ev.Device, err)
				break
			}
			if !more {
				break
			}
		}

	default:
		return s.fatal("dispatch", fmt.Errorf("%w: %s", ErrInvalidEvent, ev))
	}
	s.delivered.Add(1)
	return nil
}

func (s *System) fatal(op string, err error) error {
	fe := &FatalError{Op: op, Err: err}
	s.log.Errorf("%v", fe)
	triggerPanic(PanicInfo{Task: s.currentTask(), Err: fe})
	return fe
}

func (s *System) fatalPanic(v any) error {
	fe := &FatalError{Op: "main loop", Err: fmt.Errorf("panic: %v", v)}
	s.log.Errorf("%v", fe)
	triggerPanic(PanicInfo{Task: s.currentTask(), Value: v})
	return fe
}

func (s *System) currentTask() string {
	if t := s.sched.Current(); t != nil {
		return t.Name()
	}
	return ""
}

// Tasks returns a snapshot of the task rotation.
func (s *System) Tasks() []*task.Task { return s.sched.Tasks() }

// Stats returns the kernel counters.
func (s *System) Stats() Stats {
	st := Stats{
		Ticks:     s.timers.Now(),
		Switches:  s.sched.Switches(),
		Delivered: s.delivered.Load(),
		Timeouts:  s.timeouts.Load(),
		Tasks:     len(s.sched.Tasks()),
	}
	irq.Do(s.cpu, func() {
		st.Dropped = s.deviceDropped.Load() + s.timers.Dropped()
		st.Queued = s.events.Unguarded().Len()
		st.Timers = s.timers.Len()
	})
	return st
}
