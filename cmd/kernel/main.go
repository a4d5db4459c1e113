// Command kernel is the freestanding entry point: it wires the real
// hardware primitives from ioport/serial/gdt into boot.Run, the Go
// analogue of original_source/kernel/src/main.rs's kernel_main. A true
// freestanding build additionally needs a linked assembly trampoline
// (GDT/IDT load, the SYSCALL entry stub, the initial stack switch)
// that this package cannot express in portable Go and does not
// attempt to; see gdt.Table.Entries() and idt's package doc for what is
// deliberately left to that trampoline.
package main

import (
	"bootcfg"
	"boot"
	"gdt"
	"ioport"
	"klog"
	"mem"
	"serial"
)

func main() {
	port := serial.Init(ioport.Outb, ioport.Inb)
	ticks := uint64(0)
	log := klog.New(port, klog.Debug, func() (uint64, uint64) {
		ticks++
		return ticks / 1_000_000, ticks % 1_000_000
	})

	table := gdt.New(bootcfg.DoubleFaultStackSize)

	hw := boot.Hardware{
		PortOut: ioport.Outb,
		Wrmsr: ioport.Wrmsr,
		ReadCR3: ioport.ReadCR3,
		WriteCR3: ioport.WriteCR3,
		Halt: ioport.Halt,
		Breakpoint: func() {}, // the real int3 trap is serviced by the linked IDT trampoline
		CPUID: cpuidStub,
		DisableInterrupts: ioport.Cli,
	}

	cfg := boot.Config{
		// BootInfo is normally filled in by the bootloader handoff this
		// kernel treats as an external collaborator; a real build
		// receives it as an argument to this function instead of the
		// zero value.
		BootInfo: mem.BootInfo{},
		PhysOffset: mem.PhysOffset(bootcfg.PhysOffset),
		Selectors: table.Selectors,
		EntryStub: 0, // address of the linked SYSCALL entry stub
		InitialEFER: ioport.Rdmsr(0xC0000080),
	}

	boot.Run(hw, cfg, log)
}

// cpuidStub is a placeholder for the real CPUID instruction, which
// (like outb/inb) requires a tiny amount of Go assembly this package
// would link in a real freestanding build.
func cpuidStub(leaf, subleaf uint32) (eax, ebx, ecx, edx uint32) {
	return 0, 0, 0, 0
}
