// Package keyboard is the kernel driver for the HAL keyboard. The keyboard
// interrupt only queues an event; ProcessEvent does the work in the main
// loop.
package keyboard

import (
	"errors"
	"fmt"

	"flint/flintos/klog"
	"flint/hal"
)

var ErrClosed = errors.New("keyboard: event stream closed")

// Driver drains key events one per ProcessEvent call.
type Driver struct {
	kbd  hal.Keyboard
	log  *klog.Logger
	echo func(ev hal.KeyEvent)

	keys uint64
}

// New returns a driver for kbd. echo, if not nil, sees every key press.
func New(kbd hal.Keyboard, log *klog.Logger, echo func(ev hal.KeyEvent)) *Driver {
	return &Driver{kbd: kbd, log: log.With("keyboard"), echo: echo}
}

// ProcessEvent handles one key event and reports whether more are queued.
func (d *Driver) ProcessEvent() (bool, error) {
	if d.kbd == nil {
		return false, nil
	}
	ch := d.kbd.Events()
	select {
	case ev, ok := <-ch:
		if !ok {
			return false, ErrClosed
		}
		d.handle(ev)
		return len(ch) > 0, nil
	default:
		return false, nil
	}
}

// Keys returns the number of key presses handled.
func (d *Driver) Keys() uint64 { return d.keys }

func (d *Driver) handle(ev hal.KeyEvent) {
	if !ev.Press {
		return
	}
	d.keys++
	d.log.Infof("key %s", Describe(ev))
	if d.echo != nil {
		d.echo(ev)
	}
}

// Describe returns a short printable name for ev.
func Describe(ev hal.KeyEvent) string {
	if ev.Code != hal.KeyUnknown {
		return ev.Code.String()
	}
	if ev.Rune < 0x20 {
		return fmt.Sprintf("^%c", ev.Rune+'@')
	}
	return fmt.Sprintf("%q", ev.Rune)
}
