//go:build baremetal && amd64

package main

import (
	"context"

	"flint/app"
	"flint/hal"
	"flint/internal/config"
)

func main() {
	h := hal.New()
	if err := app.Run(context.Background(), h, config.Default()); err != nil {
		h.Logger().WriteLineString("flint: " + err.Error())
	}
	for {
		h.CPU().Halt()
	}
}
