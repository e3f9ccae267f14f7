//go:build !baremetal

package hal

import (
	"context"
	"fmt"

	"github.com/mattn/go-tty"
)

// pumpTTY feeds raw terminal input to the keyboard until ctx is done.
func (k *hostKeyboard) pumpTTY(ctx context.Context) error {
	t, err := tty.Open()
	if err != nil {
		return fmt.Errorf("open tty: %w", err)
	}
	stop := context.AfterFunc(ctx, func() { t.Close() })
	defer func() {
		if stop() {
			t.Close()
		}
	}()

	for {
		r, err := t.ReadRune()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("read tty: %w", err)
		}
		k.pushRune(r)
	}
}
