package klog

import "testing"

type lines []string

func (l *lines) WriteLineString(s string) { *l = append(*l, s) }

func TestLoggerFormat(t *testing.T) {
	var out lines
	log := New(LevelInfo, &out)
	log.SetClock(func() uint64 { return 42 })

	log.With("event").Warnf("queue full, dropped %s", "device(keyboard)")

	if len(out) != 1 {
		t.Fatalf("lines = %d, want 1", len(out))
	}
	want := "[      42] warn  event: queue full, dropped device(keyboard)"
	if out[0] != want {
		t.Fatalf("line = %q, want %q", out[0], want)
	}
}

func TestLoggerLevelFilter(t *testing.T) {
	var out lines
	log := New(LevelWarn, &out)

	log.Debugf("d")
	log.Infof("i")
	log.Warnf("w")
	log.Errorf("e")

	if len(out) != 2 {
		t.Fatalf("lines = %d, want 2: %q", len(out), out)
	}
}

type fakeController struct {
	enabled bool
	masks   int
}

func (c *fakeController) SaveAndDisable() bool {
	was := c.enabled
	c.enabled = false
	c.masks++
	return was
}

func (c *fakeController) Restore(enabled bool) {
	if enabled {
		c.enabled = true
	}
}

type maskedSink struct {
	c      *fakeController
	masked []bool
}

func (s *maskedSink) WriteLineString(string) { s.masked = append(s.masked, !s.c.enabled) }

func TestLoggerGuardsSinks(t *testing.T) {
	c := &fakeController{enabled: true}
	sink := &maskedSink{c: c}
	log := New(LevelInfo, sink)
	log.SetGuard(c)

	log.Infof("one")
	log.Debugf("filtered")
	log.With("timer").Warnf("two")

	if len(sink.masked) != 2 || !sink.masked[0] || !sink.masked[1] {
		t.Fatalf("masked = %v, want [true true]", sink.masked)
	}
	if c.masks != 2 {
		t.Fatalf("masks = %d, want 2", c.masks)
	}
	if !c.enabled {
		t.Fatalf("interrupts left masked after logging")
	}
}

func TestNilLoggerDiscards(t *testing.T) {
	var log *Logger

	log.With("x").Errorf("nothing %d", 1)
	log.SetClock(nil)
	if log.Enabled(LevelError) {
		t.Fatalf("Enabled() = true on nil logger, want false")
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{"debug", LevelDebug, false},
		{"", LevelInfo, false},
		{" WARN ", LevelWarn, false},
		{"error", LevelError, false},
		{"loud", LevelInfo, true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseLevel(%q) err = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
