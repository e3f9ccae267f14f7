package kernel

import (
	"errors"

	"flint/flintos/task"
)

var (
	// ErrNotInitialized is returned when the kernel is used before
	// Initialize.
	ErrNotInitialized = task.ErrNotInitialized

	ErrInvalidEvent = errors.New("kernel: invalid event")
	ErrNoDriver     = errors.New("kernel: no driver for device")

	// ErrReservedPayload rejects user timers carrying the task-switch
	// timer's payload.
	ErrReservedPayload = errors.New("kernel: timer payload is reserved")
)

// FatalError is an integrity violation. The kernel cannot continue after
// returning one.
type FatalError struct {
	Op  string
	Err error
}

func (e *FatalError) Error() string {
	return "kernel: fatal: " + e.Op + ": " + e.Err.Error()
}

func (e *FatalError) Unwrap() error { return e.Err }
