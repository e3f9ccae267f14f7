//go:build baremetal

package kernel

// captureStack returns nil: the stack walker needs symbol tables the
// kernel image does not carry.
func captureStack() []byte {
	return nil
}
