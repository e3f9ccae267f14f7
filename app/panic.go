package app

import (
	"fmt"
	"strings"

	"flint/flintos/kernel"
)

func installPanicHandler(s *System) {
	kernel.SetPanicHandler(func(info kernel.PanicInfo) {
		lines := panicLines(info)
		if l := s.h.Logger(); l != nil {
			for _, line := range lines {
				l.WriteLineString(line)
			}
		}
		if s.Console != nil {
			s.Console.Panic(lines)
		}
	})
}

func panicLines(info kernel.PanicInfo) []string {
	lines := []string{
		"flint panic:",
		fmt.Sprintf("task: %s", info.Task),
		fmt.Sprintf("reason: %s", info.Reason()),
	}
	if len(info.Stack) == 0 {
		return append(lines, "stack: unavailable")
	}
	lines = append(lines, "stack:")
	for _, line := range strings.Split(string(info.Stack), "\n") {
		if line == "" {
			continue
		}
		lines = append(lines, line)
	}
	return lines
}
