//go:build !baremetal

package hal

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"
)

// HeadlessConfig controls the no-window host runner.
type HeadlessConfig struct {
	Enabled bool
	// Ticks stops the run after that many timer ticks (0 = run forever).
	Ticks uint64
	// TTY reads key presses from the controlling terminal.
	TTY bool
}

// RunFunc boots the kernel on h and runs it until ctx is done.
type RunFunc func(ctx context.Context, h HAL) error

// RunHeadless runs the kernel without opening a window. Reaching the tick
// limit or cancelling ctx is a clean exit.
func RunHeadless(ctx context.Context, run RunFunc, cfg HeadlessConfig) error {
	h := newHostHAL()
	h.timer.limit = cfg.Ticks

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer cancel()
		return run(gctx, h)
	})
	if cfg.Ticks > 0 {
		g.Go(func() error {
			select {
			case <-h.timer.Done():
				cancel()
			case <-gctx.Done():
			}
			return nil
		})
	}
	if cfg.TTY {
		// A blocked tty read does not always return on Close, so the
		// runner stops waiting for the pump once the run is over.
		g.Go(func() error {
			errc := make(chan error, 1)
			go func() { errc <- h.kbd.pumpTTY(gctx) }()
			select {
			case err := <-errc:
				return err
			case <-gctx.Done():
				return nil
			}
		})
	}

	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
