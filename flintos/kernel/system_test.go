package kernel

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flint/flintos/event"
	"flint/flintos/klog"
	"flint/flintos/task"
	"flint/flintos/timer"
)

const flagIF = 1 << 9

type fakeCPU struct {
	flags  uint64
	halts  int
	onHalt func()
}

func (c *fakeCPU) SaveAndDisable() bool {
	was := c.flags&flagIF != 0
	c.flags &^= flagIF
	return was
}

func (c *fakeCPU) Restore(enabled bool) {
	if enabled {
		c.flags |= flagIF
	}
}

func (c *fakeCPU) Flags() uint64            { return c.flags }
func (c *fakeCPU) SetFlags(f uint64)        { c.flags = f }
func (c *fakeCPU) AddressSpaceRoot() uint64 { return 0 }
func (c *fakeCPU) Wake()                    {}

func (c *fakeCPU) Halt() {
	c.flags |= flagIF
	c.halts++
	if c.onHalt != nil {
		c.onHalt()
	}
}

type fakeMachine struct {
	switches int
}

func (m *fakeMachine) Prepare(ctx *task.Context, entry func(), stackTop uintptr) {}
func (m *fakeMachine) Switch(next, current *task.Context) { m.switches++ }

type lines []string

func (l *lines) WriteLineString(s string) { *l = append(*l, s) }

func resetPanicState() {
	panicOnce = sync.Once{}
	panicActive.Store(false)
	SetPanicHandler(nil)
}

func newTestSystem(t *testing.T, interval uint64) (*System, *fakeCPU, *fakeMachine, *lines) {
	t.Helper()
	resetPanicState()
	t.Cleanup(resetPanicState)

	cpu := &fakeCPU{flags: task.InitialRFLAGS}
	m := &fakeMachine{}
	out := &lines{}
	s := New(Config{TaskTimeoutInterval: interval}, cpu, m, klog.New(klog.LevelDebug, out))
	s.Initialize()
	return s, cpu, m, out
}

func TestDeviceInterruptRunsDriverUntilDone(t *testing.T) {
	s, _, _, _ := newTestSystem(t, 10)

	calls := 0
	s.RegisterDriver(event.DeviceKeyboard, DriverFunc(func() (bool, error) {
		calls++
		return calls < 3, nil
	}))

	s.OnDeviceInterrupt(event.DeviceKeyboard)
	did, err := s.Step()
	require.NoError(t, err)
	assert.True(t, did)
	assert.Equal(t, 3, calls)

	did, err = s.Step()
	require.NoError(t, err)
	assert.False(t, did, "queue should be empty")
	assert.Equal(t, uint64(1), s.Stats().Delivered)
}

func TestDriverErrorIsLoggedAndLoopContinues(t *testing.T) {
	s, _, _, out := newTestSystem(t, 10)
	s.RegisterDriver(event.DeviceXHCI, DriverFunc(func() (bool, error) {
		return true, errors.New("controller halted")
	}))

	s.OnDeviceInterrupt(event.DeviceXHCI)
	_, err := s.Step()
	require.NoError(t, err)
	assert.Contains(t, strings.Join(*out, "\n"), "xhci driver: controller halted")
}

func TestMissingDriverIsFatal(t *testing.T) {
	s, _, _, _ := newTestSystem(t, 10)

	var got []PanicInfo
	SetPanicHandler(func(info PanicInfo) { got = append(got, info) })

	s.OnDeviceInterrupt(event.DeviceXHCI)
	s.OnDeviceInterrupt(event.DeviceXHCI)

	_, err := s.Step()
	var fe *FatalError
	require.ErrorAs(t, err, &fe)
	assert.ErrorIs(t, err, ErrNoDriver)

	_, err = s.Step()
	require.Error(t, err)

	require.Len(t, got, 1, "panic handler runs once")
	assert.Equal(t, "main", got[0].Task)
	assert.Contains(t, got[0].Reason(), "no driver")
	assert.True(t, InPanicMode())
}

func TestInvalidEventIsFatal(t *testing.T) {
	s, _, _, _ := newTestSystem(t, 10)

	_, ok := s.events.Unguarded().Push(event.Event{})
	require.True(t, ok)

	_, err := s.Step()
	assert.ErrorIs(t, err, ErrInvalidEvent)
}

func TestDeviceInterruptDropsWhenFull(t *testing.T) {
	s, _, _, out := newTestSystem(t, 10)

	for i := 0; i < event.Capacity+1; i++ {
		s.OnDeviceInterrupt(event.DeviceKeyboard)
	}

	st := s.Stats()
	assert.Equal(t, event.Capacity, st.Queued)
	assert.Equal(t, uint64(1), st.Dropped)
	require.NotEmpty(t, *out)
	assert.Contains(t, (*out)[len(*out)-1], "dropped device(keyboard)")
}

func TestTimerTimeoutReachesHandler(t *testing.T) {
	s, _, _, _ := newTestSystem(t, 100)

	var got []event.Event
	s.HandleTimeouts(func(ev event.Event) { got = append(got, ev) })
	require.NoError(t, s.AddTimer(3, 7))

	for i := 0; i < 3; i++ {
		s.OnTimerInterrupt()
	}
	_, err := s.Step()
	require.NoError(t, err)

	assert.Equal(t, []event.Event{event.Timeout(3, 7)}, got)
	st := s.Stats()
	assert.Equal(t, uint64(3), st.Ticks)
	assert.Equal(t, uint64(1), st.Timeouts)
	assert.Equal(t, 1, st.Timers, "only the task-switch timer is left")
}

func TestTaskTimeoutSwitchesBeforeEvents(t *testing.T) {
	s, _, m, _ := newTestSystem(t, 2)
	_, err := s.Spawn("worker", func() {})
	require.NoError(t, err)
	s.RegisterDriver(event.DeviceKeyboard, DriverFunc(func() (bool, error) { return false, nil }))

	s.OnDeviceInterrupt(event.DeviceKeyboard)
	s.OnTimerInterrupt()
	s.OnTimerInterrupt()

	did, err := s.Step()
	require.NoError(t, err)
	assert.True(t, did)
	assert.Equal(t, 1, m.switches)
	assert.Equal(t, uint64(0), s.Stats().Delivered, "switch is taken before the queued event")

	_, err = s.Step()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), s.Stats().Delivered)
	assert.Equal(t, uint64(1), s.Stats().Switches)
}

func TestYieldWithoutTimeoutStays(t *testing.T) {
	s, _, m, _ := newTestSystem(t, 5)
	_, err := s.Spawn("worker", func() {})
	require.NoError(t, err)

	require.NoError(t, s.Yield())
	assert.Zero(t, m.switches)
}

func TestUseBeforeInitialize(t *testing.T) {
	resetPanicState()
	t.Cleanup(resetPanicState)

	s := New(Config{}, &fakeCPU{}, &fakeMachine{}, nil)
	_, err := s.Spawn("early", func() {})
	assert.ErrorIs(t, err, ErrNotInitialized)

	_, err = s.Step()
	var fe *FatalError
	require.ErrorAs(t, err, &fe)
	assert.ErrorIs(t, err, ErrNotInitialized)
}

func TestRunHaltsWhenIdleAndStopsOnCancel(t *testing.T) {
	s, cpu, _, _ := newTestSystem(t, 10)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	cpu.onHalt = func() {
		if cpu.halts == 3 {
			cancel()
		}
	}

	err := s.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 3, cpu.halts)
	assert.NotZero(t, cpu.flags&flagIF)
}

func TestRunRecoversDriverPanic(t *testing.T) {
	s, _, _, _ := newTestSystem(t, 10)

	var got PanicInfo
	SetPanicHandler(func(info PanicInfo) { got = info })
	s.RegisterDriver(event.DeviceKeyboard, DriverFunc(func() (bool, error) {
		panic("bad scancode")
	}))
	s.OnDeviceInterrupt(event.DeviceKeyboard)

	err := s.Run(context.Background())
	var fe *FatalError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "bad scancode", got.Value)
	assert.Equal(t, "bad scancode", got.Reason())
	assert.NotEmpty(t, got.Stack)
}

func TestTaskPanicFailsMainLoop(t *testing.T) {
	resetPanicState()
	t.Cleanup(resetPanicState)

	cpu := &fakeCPU{flags: task.InitialRFLAGS}
	s := New(Config{TaskTimeoutInterval: 2}, cpu, task.NewMachine(cpu), nil)
	s.Initialize()

	var got PanicInfo
	SetPanicHandler(func(info PanicInfo) { got = info })
	_, err := s.Spawn("crasher", func() { panic("stack smashed") })
	require.NoError(t, err)

	s.OnTimerInterrupt()
	s.OnTimerInterrupt()
	_, err = s.Step()
	require.NoError(t, err, "the switch itself succeeds")

	_, err = s.Step()
	var fe *FatalError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "task crasher", fe.Op)
	assert.Equal(t, "crasher", got.Task)
	assert.Equal(t, "stack smashed", got.Reason())
	assert.Equal(t, "main", s.sched.Current().Name(), "the dead task handed the CPU back")
}

func TestAddTimerRejectsReservedPayload(t *testing.T) {
	s, _, _, _ := newTestSystem(t, 100)

	var got []event.Event
	s.HandleTimeouts(func(ev event.Event) { got = append(got, ev) })
	err := s.AddTimer(3, timer.TaskTimeoutMessage)
	assert.ErrorIs(t, err, ErrReservedPayload)

	for i := 0; i < 3; i++ {
		s.OnTimerInterrupt()
	}
	_, err = s.Step()
	require.NoError(t, err)

	st := s.Stats()
	assert.Equal(t, 1, st.Timers, "only the task-switch timer is pending")
	assert.False(t, s.timers.CheckTaskTimeout())
	assert.Empty(t, got)
}

func TestInitializeTwiceKeepsTasks(t *testing.T) {
	s, _, _, out := newTestSystem(t, 10)
	_, err := s.Spawn("worker", func() {})
	require.NoError(t, err)

	s.Initialize()

	st := s.Stats()
	assert.Equal(t, 2, st.Tasks)
	assert.Equal(t, 1, st.Timers)
	assert.Contains(t, strings.Join(*out, "\n"), "already initialized")
}

func TestSpawnedTasksGetDistinctStartState(t *testing.T) {
	resetPanicState()
	t.Cleanup(resetPanicState)

	cpu := &fakeCPU{flags: task.InitialRFLAGS}
	s := New(Config{}, cpu, task.NewMachine(cpu), nil)
	s.Initialize()

	b, err := s.Spawn("task-b", func() {})
	require.NoError(t, err)
	c, err := s.Spawn("task-c", func() {})
	require.NoError(t, err)

	cb, cc := b.Context(), c.Context()
	assert.NotZero(t, cb.RBX)
	assert.NotZero(t, cc.RBX)
	assert.NotEqual(t, cb.RBX, cc.RBX, "each task starts its own closure")
	assert.NotEqual(t, cb.RSP, cc.RSP)
}
