// Package app boots the kernel on a HAL: it builds the logger and console,
// spawns the configured tasks, arms the configured timers, routes the
// interrupt vectors and runs the main loop.
package app

import (
	"context"
	"fmt"

	"flint/flintos/console"
	"flint/flintos/drivers/keyboard"
	"flint/flintos/event"
	"flint/flintos/kernel"
	"flint/flintos/klog"
	"flint/flintos/task"
	"flint/flintos/tasks/counter"
	"flint/hal"
	"flint/internal/buildinfo"
	"flint/internal/config"
)

// System is a booted kernel and the pieces wired around it.
type System struct {
	h   hal.HAL
	cfg config.Config

	Kernel   *kernel.System
	Log      *klog.Logger
	Console  *console.Console
	Keyboard *keyboard.Driver
	Counters []*counter.Task

	periods map[int64]uint64
}

// New wires a kernel onto h as cfg describes. Interrupts stay masked and
// the tick source stopped until Start.
func New(h hal.HAL, cfg config.Config) (*System, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log := klog.New(cfg.Level(), h.Logger())
	cpu := h.CPU()
	log.SetGuard(cpu)
	k := kernel.New(kernel.Config{TaskTimeoutInterval: cfg.Kernel.TaskTimeoutInterval}, cpu, task.NewMachine(cpu), log)
	log.SetClock(k.Now)

	s := &System{
		h:       h,
		cfg:     cfg,
		Kernel:  k,
		Log:     log.With("boot"),
		periods: make(map[int64]uint64),
	}
	if cfg.Console.Enabled {
		s.attachConsole(log)
	}
	installPanicHandler(s)

	k.Initialize()
	for _, tc := range cfg.Tasks {
		c := counter.New(tc.Name, tc.ReportEvery, k.Yield, log)
		if _, err := k.Spawn(tc.Name, c.Run); err != nil {
			return nil, fmt.Errorf("spawn %s: %w", tc.Name, err)
		}
		s.Counters = append(s.Counters, c)
	}

	var kbd hal.Keyboard
	if in := h.Input(); in != nil {
		kbd = in.Keyboard()
	}
	s.Keyboard = keyboard.New(kbd, log, s.echoKey)
	k.RegisterDriver(event.DeviceKeyboard, s.Keyboard)

	k.HandleTimeouts(s.onTimeout)
	for _, tc := range cfg.Timers {
		if tc.Period > 0 {
			s.periods[tc.Payload] = tc.Period
		}
		if err := k.AddTimer(tc.Deadline, tc.Payload); err != nil {
			return nil, fmt.Errorf("arm timer %d: %w", tc.Payload, err)
		}
	}

	irqs := h.Interrupts()
	irqs.Handle(hal.VectorTimer, k.OnTimerInterrupt)
	irqs.Handle(hal.VectorKeyboard, func() { k.OnDeviceInterrupt(event.DeviceKeyboard) })
	return s, nil
}

func (s *System) attachConsole(log *klog.Logger) {
	d := s.h.Display()
	if d == nil {
		return
	}
	con, err := console.New(d.Framebuffer())
	if err != nil {
		s.Log.Warnf("console disabled: %v", err)
		return
	}
	log.AddSink(con)
	s.Console = con
}

// Start starts the tick source and enables interrupts.
func (s *System) Start() error {
	if err := s.h.Timer().Start(s.cfg.Kernel.TickHz); err != nil {
		return fmt.Errorf("start timer: %w", err)
	}
	s.Log.Infof("flint %s: %d Hz, switch every %d ticks, %d tasks",
		buildinfo.Short(), s.cfg.Kernel.TickHz, s.cfg.Kernel.TaskTimeoutInterval, len(s.Kernel.Tasks()))
	s.h.CPU().EnableInterrupts()
	return nil
}

// Stop stops the tick source and logs the kernel counters.
func (s *System) Stop() {
	s.h.Timer().Stop()
	st := s.Kernel.Stats()
	s.Log.Infof("stopped: ticks=%d switches=%d delivered=%d dropped=%d timeouts=%d",
		st.Ticks, st.Switches, st.Delivered, st.Dropped, st.Timeouts)
}

func (s *System) onTimeout(ev event.Event) {
	s.Log.Infof("timer %d expired at %d", ev.Payload, ev.Deadline)
	if p, ok := s.periods[ev.Payload]; ok {
		if err := s.Kernel.AddTimer(ev.Deadline+p, ev.Payload); err != nil {
			s.Log.Warnf("re-arm timer %d: %v", ev.Payload, err)
		}
	}
}

func (s *System) echoKey(ev hal.KeyEvent) {
	if s.Console == nil || ev.Rune == 0 {
		return
	}
	_, _ = s.Console.Write([]byte(string(ev.Rune)))
}

// Run boots cfg on h and runs the main loop until ctx is done or the
// kernel hits a fatal error.
func Run(ctx context.Context, h hal.HAL, cfg config.Config) error {
	s, err := New(h, cfg)
	if err != nil {
		return err
	}
	if err := s.Start(); err != nil {
		return err
	}
	defer s.Stop()
	return s.Kernel.Run(ctx)
}
