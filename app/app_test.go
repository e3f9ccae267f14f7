//go:build !baremetal

package app

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flint/flintos/kernel"
	"flint/hal"
	"flint/internal/config"
)

func testConfig() config.Config {
	cfg := config.Default()
	cfg.Kernel.TickHz = 1000
	cfg.Kernel.TaskTimeoutInterval = 2
	cfg.Kernel.LogLevel = "warn"
	cfg.Tasks = []config.TaskConfig{
		{Name: "task-b", ReportEvery: 0},
		{Name: "task-c", ReportEvery: 0},
	}
	cfg.Timers = []config.TimerConfig{{Deadline: 5, Payload: 1, Period: 5}}
	cfg.Console.Enabled = false
	return cfg
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := testConfig()
	cfg.Kernel.TickHz = 0
	_, err := New(hal.New(), cfg)
	assert.ErrorIs(t, err, config.ErrInvalid)
}

func TestSystemRunsTasksAndTimers(t *testing.T) {
	s, err := New(hal.New(), testConfig())
	require.NoError(t, err)
	require.Len(t, s.Kernel.Tasks(), 3)

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()
	require.NoError(t, s.Start())
	err = s.Kernel.Run(ctx)
	s.Stop()
	require.True(t, errors.Is(err, context.DeadlineExceeded), "Run() = %v", err)

	st := s.Kernel.Stats()
	assert.Greater(t, st.Ticks, uint64(0))
	assert.Greater(t, st.Switches, uint64(0))
	assert.Greater(t, st.Timeouts, uint64(0))
	for _, c := range s.Counters {
		assert.Greater(t, c.Count(), uint64(0), "%s never ran", c.Name())
	}
	assert.Equal(t, 2, st.Timers, "periodic timer re-armed next to the task-switch timer")
}

func TestPanicLines(t *testing.T) {
	info := kernel.PanicInfo{
		Task:  "task-b",
		Err:   errors.New("kernel: fatal: dispatch: kernel: invalid event"),
		Stack: []byte("goroutine 1\n\nmain.main()\n"),
	}
	got := panicLines(info)
	want := []string{
		"flint panic:",
		"task: task-b",
		"reason: kernel: fatal: dispatch: kernel: invalid event",
		"stack:",
		"goroutine 1",
		"main.main()",
	}
	assert.Equal(t, want, got)

	info.Stack = nil
	got = panicLines(info)
	assert.True(t, strings.HasSuffix(got[len(got)-1], "unavailable"))
}
