// Package buildinfo carries the version stamped in with -ldflags, e.g.
//
//	go build -ldflags "-X flint/internal/buildinfo.Version=v0.3.0"
package buildinfo

import "runtime/debug"

var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// Short returns a compact build identifier for the boot banner and the
// window title.
func Short() string {
	if Version != "" && Version != "dev" {
		return Version
	}
	if c := commit(); c != "" {
		if len(c) > 12 {
			c = c[:12]
		}
		return c
	}
	return "dev"
}

// String returns version, commit and date on one line.
func String() string {
	c := commit()
	if c == "" {
		c = "unknown"
	}
	return Version + " " + c + " " + Date
}

// commit prefers the stamped commit and falls back to the VCS revision the
// go command records.
func commit() string {
	if Commit != "" && Commit != "unknown" {
		return Commit
	}
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}
	for _, s := range bi.Settings {
		if s.Key == "vcs.revision" {
			return s.Value
		}
	}
	return ""
}
