//go:build !baremetal

package hal

// hostKeyboard queues key events and raises the keyboard vector for each
// one accepted. Events are dropped when the queue is full, as a device
// FIFO would.
type hostKeyboard struct {
	ch  chan KeyEvent
	cpu *hostCPU
}

func newHostKeyboard(cpu *hostCPU) *hostKeyboard {
	return &hostKeyboard{ch: make(chan KeyEvent, 64), cpu: cpu}
}

func (k *hostKeyboard) Events() <-chan KeyEvent { return k.ch }

func (k *hostKeyboard) push(ev KeyEvent) bool {
	select {
	case k.ch <- ev:
		k.cpu.Raise(VectorKeyboard)
		return true
	default:
		return false
	}
}

// pushRune maps a terminal byte sequence character to a key event.
func (k *hostKeyboard) pushRune(r rune) bool {
	switch r {
	case '\r', '\n':
		return k.push(KeyEvent{Code: KeyEnter, Press: true})
	case 0x1b:
		return k.push(KeyEvent{Code: KeyEscape, Press: true})
	case 0x7f, 0x08:
		return k.push(KeyEvent{Code: KeyBackspace, Press: true})
	case '\t':
		return k.push(KeyEvent{Code: KeyTab, Press: true})
	default:
		return k.push(KeyEvent{Press: true, Rune: r})
	}
}
