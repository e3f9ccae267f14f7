// Package config holds the boot profile: kernel tunables, the demo tasks
// to spawn and the timers to arm.
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"flint/flintos/klog"
	"flint/flintos/timer"
)

var ErrInvalid = errors.New("invalid config")

type Config struct {
	Kernel  KernelConfig  `yaml:"kernel"`
	Tasks   []TaskConfig  `yaml:"tasks"`
	Timers  []TimerConfig `yaml:"timers"`
	Console ConsoleConfig `yaml:"console"`
}

type KernelConfig struct {
	TickHz              int    `yaml:"tick_hz"`
	TaskTimeoutInterval uint64 `yaml:"task_timeout_interval"`
	LogLevel            string `yaml:"log_level"`
}

type TaskConfig struct {
	Name        string `yaml:"name"`
	ReportEvery uint64 `yaml:"report_every"`
}

// TimerConfig arms a timer at Deadline. A non-zero Period re-arms it that
// many ticks after each expiry.
type TimerConfig struct {
	Deadline uint64 `yaml:"deadline"`
	Payload  int64  `yaml:"payload"`
	Period   uint64 `yaml:"period"`
}

type ConsoleConfig struct {
	Enabled bool `yaml:"enabled"`
}

// Default returns the profile the kernel boots with when none is given:
// two counter tasks and one periodic timer.
func Default() Config {
	return Config{
		Kernel: KernelConfig{
			TickHz:              100,
			TaskTimeoutInterval: timer.TaskTimeoutInterval,
			LogLevel:            "info",
		},
		Tasks: []TaskConfig{
			{Name: "task-b", ReportEvery: 1_000_000},
			{Name: "task-c", ReportEvery: 1_000_000},
		},
		Timers: []TimerConfig{
			{Deadline: 200, Payload: 2, Period: 200},
			{Deadline: 600, Payload: -1},
		},
		Console: ConsoleConfig{Enabled: true},
	}
}

// Parse reads a YAML profile on top of Default and validates it.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Load reads and parses the profile at path.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Validate reports the first problem with c, wrapping ErrInvalid.
func (c Config) Validate() error {
	if c.Kernel.TickHz <= 0 || c.Kernel.TickHz > 10_000 {
		return fmt.Errorf("%w: kernel.tick_hz %d out of range 1..10000", ErrInvalid, c.Kernel.TickHz)
	}
	if c.Kernel.TaskTimeoutInterval == 0 {
		return fmt.Errorf("%w: kernel.task_timeout_interval must be positive", ErrInvalid)
	}
	if _, err := klog.ParseLevel(c.Kernel.LogLevel); err != nil {
		return fmt.Errorf("%w: kernel.log_level: %v", ErrInvalid, err)
	}

	seen := make(map[string]bool, len(c.Tasks))
	for i, t := range c.Tasks {
		if t.Name == "" || t.Name == "main" {
			return fmt.Errorf("%w: tasks[%d]: name %q not allowed", ErrInvalid, i, t.Name)
		}
		if seen[t.Name] {
			return fmt.Errorf("%w: tasks[%d]: duplicate name %q", ErrInvalid, i, t.Name)
		}
		seen[t.Name] = true
	}
	for i, t := range c.Timers {
		if t.Payload == timer.TaskTimeoutMessage {
			return fmt.Errorf("%w: timers[%d]: payload %d is reserved", ErrInvalid, i, t.Payload)
		}
		if t.Deadline == 0 {
			return fmt.Errorf("%w: timers[%d]: deadline must be positive", ErrInvalid, i)
		}
	}
	return nil
}

// Level returns the parsed log level. It assumes c has been validated.
func (c Config) Level() klog.Level {
	l, _ := klog.ParseLevel(c.Kernel.LogLevel)
	return l
}
