// Package serial drives the 16550 UART on COM1 (port 0x3F8), the
// kernel's only output device; there is no framebuffer console.
// Grounded on original_source/kernel/src/serial.rs's init byte
// sequence.
package serial

const (
	comBase = 0x3F8

	dataReg = comBase + 0
	interruptReg = comBase + 1
	fifoCtrlReg = comBase + 2
	lineCtrlReg = comBase + 3
	modemCtrlReg = comBase + 4
	lineStatusReg = comBase + 5

	lineStatusTHRE = 1 << 5 // transmitter holding register empty
)

// PortWriter/PortReader are the same injection shape as pic.PortWriter,
// kept local so this package doesn't import ioport directly — boot
// glue is the only place that ties the two together.
type PortWriter func(port uint16, value byte)
type PortReader func(port uint16) byte

// Port drives one UART. Zero value is unusable; build one with Init.
type Port struct {
	out PortWriter
	in PortReader
}

// Init programs COM1 the way original_source/kernel/src/serial.rs
// does: disable interrupts, set the baud-rate divisor to 3 (38400
// baud against the UART's 115200 base clock), 8N1 framing, enable and
// clear the FIFO, then mark the line ready.
func Init(out PortWriter, in PortReader) *Port {
	out(interruptReg, 0x00)
	out(lineCtrlReg, 0x80) // enable DLAB to set the baud divisor
	out(dataReg, 0x03) // divisor low byte: 3 -> 38400 baud
	out(interruptReg, 0x00) // divisor high byte
	out(lineCtrlReg, 0x03) // 8 bits, no parity, one stop bit; DLAB off
	out(fifoCtrlReg, 0xC7) // enable FIFO, clear it, 14-byte threshold
	out(modemCtrlReg, 0x0B) // DTR/RTS set, OUT2 enables IRQs (unused, harmless)
	return &Port{out: out, in: in}
}

func (p *Port) transmitEmpty() bool {
	return p.in(lineStatusReg)&lineStatusTHRE != 0
}

// WriteByte blocks until the transmitter is ready, then sends b.
func (p *Port) WriteByte(b byte) {
	for !p.transmitEmpty() {
	}
	p.out(dataReg, b)
}

// WriteString sends every byte of s, translating a bare '\n' to the
// "\r\n" a terminal expects, matching the established console
// writers' line-ending handling.
func (p *Port) WriteString(s string) {
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			p.WriteByte('\r')
		}
		p.WriteByte(s[i])
	}
}

// Write implements io.Writer so klog can format directly onto the
// port with the standard library's formatting helpers.
func (p *Port) Write(b []byte) (int, error) {
	p.WriteString(string(b))
	return len(b), nil
}
