//go:build !baremetal

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"flint/app"
	"flint/hal"
	"flint/internal/buildinfo"
	"flint/internal/config"
)

func main() {
	var (
		hcfg     hal.HeadlessConfig
		path     string
		hz       int
		logLevel string
		version  bool
	)
	flag.StringVar(&path, "config", "", "Boot profile (YAML). Defaults apply when empty.")
	flag.BoolVar(&hcfg.Enabled, "headless", false, "Run without a window.")
	flag.IntVar(&hz, "hz", 0, "Override the tick rate.")
	flag.Uint64Var(&hcfg.Ticks, "ticks", 0, "Stop after N ticks in headless mode (0 = run forever).")
	flag.StringVar(&logLevel, "log-level", "", "Override the log level (debug, info, warn, error).")
	flag.BoolVar(&hcfg.TTY, "tty", false, "Read keys from the terminal in headless mode.")
	flag.BoolVar(&version, "version", false, "Print the build version and exit.")
	flag.Parse()

	if version {
		fmt.Println("flint", buildinfo.String())
		return
	}

	cfg := config.Default()
	if path != "" {
		var err error
		if cfg, err = config.Load(path); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}
	if hz > 0 {
		cfg.Kernel.TickHz = hz
	}
	if logLevel != "" {
		cfg.Kernel.LogLevel = logLevel
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	run := func(ctx context.Context, h hal.HAL) error {
		return app.Run(ctx, h, cfg)
	}

	var err error
	if hcfg.Enabled {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()
		err = hal.RunHeadless(ctx, run, hcfg)
	} else {
		err = hal.RunWindow(run)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
