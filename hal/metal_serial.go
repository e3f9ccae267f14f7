//go:build baremetal && amd64

package hal

const com1 = 0x3f8

// serialLogger writes lines to COM1 at 115200 8N1.
type serialLogger struct{}

func newSerialLogger() serialLogger {
	outb(com1+1, 0x00) // no interrupts
	outb(com1+3, 0x80) // DLAB
	outb(com1+0, 0x01) // divisor 1: 115200 baud
	outb(com1+1, 0x00)
	outb(com1+3, 0x03) // 8N1
	outb(com1+2, 0xc7) // FIFO on, cleared
	return serialLogger{}
}

func (serialLogger) putc(b byte) {
	for inb(com1+5)&0x20 == 0 {
	}
	outb(com1, b)
}

func (l serialLogger) WriteLineString(s string) {
	for i := 0; i < len(s); i++ {
		l.putc(s[i])
	}
	l.putc('\r')
	l.putc('\n')
}

func (l serialLogger) WriteLineBytes(b []byte) {
	for _, c := range b {
		l.putc(c)
	}
	l.putc('\r')
	l.putc('\n')
}
