// Package klog is the kernel's leveled line logger.
//
// Lines are formatted with fmt and fanned out to sinks that accept whole
// lines, such as the serial port and the framebuffer console. A nil *Logger
// discards everything, so components can be built without one in tests.
package klog

import (
	"fmt"
	"strings"

	"flint/flintos/irq"
)

// Sink receives formatted lines. hal.Logger satisfies it.
type Sink interface {
	WriteLineString(s string)
}

// Level orders log severities.
type Level uint8

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	default:
		return "level(" + fmt.Sprint(uint8(l)) + ")"
	}
}

// ParseLevel maps a level name to a Level.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "info", "":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}

type core struct {
	sinks []Sink
	level Level
	clock func() uint64
	guard irq.Controller
}

// Logger writes lines tagged with a component name.
type Logger struct {
	c         *core
	component string
}

// New returns a logger that writes lines at or above level to sinks.
func New(level Level, sinks ...Sink) *Logger {
	return &Logger{c: &core{sinks: sinks, level: level}}
}

// With returns a logger sharing l's sinks, tagged with component.
func (l *Logger) With(component string) *Logger {
	if l == nil {
		return nil
	}
	return &Logger{c: l.c, component: component}
}

// SetClock installs the tick source stamped on every line.
func (l *Logger) SetClock(clock func() uint64) {
	if l == nil {
		return
	}
	l.c.clock = clock
}

// SetGuard makes every line reach the sinks with interrupts masked through
// c. Sinks are shared between mainline code and interrupt handlers, and
// are not reentrant.
func (l *Logger) SetGuard(c irq.Controller) {
	if l == nil {
		return
	}
	l.c.guard = c
}

// AddSink appends a sink. It is meant for boot-time wiring only.
func (l *Logger) AddSink(s Sink) {
	if l == nil || s == nil {
		return
	}
	l.c.sinks = append(l.c.sinks, s)
}

// Enabled reports whether lines at level would be written.
func (l *Logger) Enabled(level Level) bool {
	return l != nil && level >= l.c.level
}

func (l *Logger) Debugf(format string, args ...any) { l.logf(LevelDebug, format, args...) }
func (l *Logger) Infof(format string, args ...any)  { l.logf(LevelInfo, format, args...) }
func (l *Logger) Warnf(format string, args ...any)  { l.logf(LevelWarn, format, args...) }
func (l *Logger) Errorf(format string, args ...any) { l.logf(LevelError, format, args...) }

func (l *Logger) logf(level Level, format string, args ...any) {
	if !l.Enabled(level) {
		return
	}

	var tick uint64
	if l.c.clock != nil {
		tick = l.c.clock()
	}

	var b strings.Builder
	fmt.Fprintf(&b, "[%8d] %-5s ", tick, level)
	if l.component != "" {
		b.WriteString(l.component)
		b.WriteString(": ")
	}
	fmt.Fprintf(&b, format, args...)

	line := b.String()
	if l.c.guard == nil {
		l.emit(line)
		return
	}
	irq.Do(l.c.guard, func() { l.emit(line) })
}

func (l *Logger) emit(line string) {
	for _, s := range l.c.sinks {
		s.WriteLineString(line)
	}
}
