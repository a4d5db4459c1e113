// Package ioport declares the kernel's lowest-level hardware
// primitives: port-mapped I/O and model-specific register access.
// Neither instruction is expressible in portable Go, so both are
// implemented in a small amount of Go assembly (ioport_amd64.s) and
// declared here as ordinary Go functions with no body, the standard
// shape for a freestanding kernel's hardware boundary.
package ioport

// Outb writes a byte to an I/O port (the x86 OUT instruction).
func Outb(port uint16, value byte)

// Inb reads a byte from an I/O port (the x86 IN instruction).
func Inb(port uint16) byte

// Rdmsr reads a 64-bit model-specific register.
func Rdmsr(msr uint32) uint64

// Wrmsr writes a 64-bit model-specific register.
func Wrmsr(msr uint32, value uint64)

// ReadCR3 returns the physical frame address currently loaded as the
// active PML4 root.
func ReadCR3() uint64

// WriteCR3 loads a new PML4 root, implicitly flushing the TLB.
func WriteCR3(value uint64)

// Halt executes HLT, parking the CPU until the next interrupt.
func Halt()

// Cli executes CLI, masking maskable interrupts until the next STI.
// The panic handler runs this once before parking forever so a
// spurious interrupt can't divert a CPU that has already decided to
// stop.
func Cli()
