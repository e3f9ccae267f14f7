// Package counter is a demo task: it counts loop iterations, reports every
// so often, and yields to the scheduler on each pass.
package counter

import (
	"sync/atomic"

	"flint/flintos/klog"
)

// Task is one counter. Run is its task entry.
type Task struct {
	name  string
	every uint64
	yield func() error
	log   *klog.Logger

	count atomic.Uint64
}

// New returns a counter that logs every reportEvery iterations (never when
// zero) and calls yield on each one.
func New(name string, reportEvery uint64, yield func() error, log *klog.Logger) *Task {
	return &Task{name: name, every: reportEvery, yield: yield, log: log.With(name)}
}

func (t *Task) Name() string { return t.name }

// Count returns the number of iterations so far.
func (t *Task) Count() uint64 { return t.count.Load() }

// Step runs one iteration.
func (t *Task) Step() error {
	n := t.count.Add(1)
	if t.every > 0 && n%t.every == 0 {
		t.log.Infof("count %d", n)
	}
	return t.yield()
}

// Run loops forever. A yield error is fatal for the kernel, so it panics
// and lets the task wrapper report it.
func (t *Task) Run() {
	for {
		if err := t.Step(); err != nil {
			panic(err)
		}
	}
}
