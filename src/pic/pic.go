// Package pic remaps the legacy 8259 programmable interrupt
// controllers off their BIOS-default vectors (which collide with CPU
// exceptions) and onto the vector range the idt package reserves for
// hardware IRQs, grounded on
// original_source/kernel/src/interrupts.rs's PIC initialization.
package pic

// Offset1 and Offset2 are the vector numbers IRQ0 and IRQ8
// respectively land on after remapping: 0x20-0x2F, just past the
// CPU's 32 reserved exception vectors.
const (
	Offset1 = 0x20
	Offset2 = 0x28

	port1Command = 0x20
	port1Data = 0x21
	port2Command = 0xA0
	port2Data = 0xA1

	icw1Init = 0x11
	icw4_8086 = 0x01

	eoi = 0x20
)

// PortWriter is the single hardware hook this package needs: a byte
// write to an I/O port. Boot glue supplies the real outb; tests supply
// a recording fake, the same injection shape as mem.SetCR3Writer.
type PortWriter func(port uint16, value byte)

// Remap reprograms both PICs so IRQ0-7 land at Offset1..Offset1+7 and
// IRQ8-15 land at Offset2..Offset2+7, masking nothing: the timer and
// keyboard lines stay enabled by default.
func Remap(out PortWriter) {
	out(port1Command, icw1Init)
	out(port2Command, icw1Init)
	out(port1Data, Offset1)
	out(port2Data, Offset2)
	out(port1Data, 4) // tell master PIC1 a slave sits at IRQ2
	out(port2Data, 2) // tell slave PIC2 its cascade identity
	out(port1Data, icw4_8086)
	out(port2Data, icw4_8086)
	out(port1Data, 0) // unmask all lines
	out(port2Data, 0)
}

// EndOfInterrupt acknowledges a hardware interrupt on vector
// Offset1+irq (or Offset2+irq for the slave), which must happen
// before the CPU will deliver another interrupt on that line. Vectors
// from the slave PIC require acknowledging both controllers.
func EndOfInterrupt(out PortWriter, irq uint8) {
	if irq >= 8 {
		out(port2Command, eoi)
	}
	out(port1Command, eoi)
}
