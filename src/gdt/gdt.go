// Package gdt builds the kernel's Global Descriptor Table and Task
// State Segment: the ring0/ring3 code and data selectors SYSCALL and
// SYSRET expect to find packed together, plus the TSS
// double-fault stack and ring-0 stack pointer the CPU consults on
// every privilege-level change. This mirrors the established own
// approach of building hardware descriptor tables as plain Go structs
// and only reaching for inline assembly at the point of loading them
// (see the established syscall.go, which builds MSR values the same
// way), grounded on original_source/kernel/src/gdt.rs for descriptor
// order and field layout.
package gdt

// DescriptorFlags are the access-byte and flag bits of a GDT entry.
// Values match the x86-64 GDT encoding directly so SYSCALL/SYSRET's
// implicit selector arithmetic (STAR) lines up with the
// table built here.
type DescriptorFlags uint16

const (
	accessPresent DescriptorFlags = 1 << 7
	accessUser DescriptorFlags = 1 << 4
	accessExecutable DescriptorFlags = 1 << 3
	accessRW DescriptorFlags = 1 << 1 // readable (code) / writable (data)
	flagLong DescriptorFlags = 1 << 9 // long-mode code segment (L bit)
	flagSize DescriptorFlags = 1 << 10 // 32-bit default operand size (D/B bit)
	flagGranularity DescriptorFlags = 1 << 11

	dplShift = 5
)

func dpl(ring uint8) DescriptorFlags { return DescriptorFlags(ring&0x3) << dplShift }

// KernelCode, KernelData, UserCode32Unused, UserData, and UserCode are
// the five descriptors SYSCALL/SYSRET's fixed selector arithmetic
// requires to sit in exactly this order: STAR packs "kernel CS" and
// "user CS" bases from which SYSCALL/SYSRET derive all four segment
// selectors by fixed offsets (+0/+8 for kernel, +0/+8/+16 for the
// user triple), so original_source/kernel/src/gdt.rs lays out an
// otherwise-unused 32-bit user code descriptor purely to keep that
// arithmetic correct; this kernel carries it for the same reason.
const (
	KernelCode DescriptorFlags = accessPresent | accessUser | accessExecutable | accessRW | flagLong
	KernelData DescriptorFlags = accessPresent | accessUser | accessRW
	UserCode32 DescriptorFlags = accessPresent | accessUser | accessExecutable | accessRW | flagSize | dpl(3)
	UserData DescriptorFlags = accessPresent | accessUser | accessRW | dpl(3)
	UserCode DescriptorFlags = accessPresent | accessUser | accessExecutable | accessRW | flagLong | dpl(3)
)

// DoubleFaultStackSize is the size of the dedicated stack the TSS's
// IST slot 0 points the CPU at on a double fault, so a stack overflow
// that caused the fault doesn't also corrupt the fault handler's own
// stack (grounded on original_source/kernel/src/gdt.rs's
// DOUBLE_FAULT_IST_INDEX stack).
const DoubleFaultStackSize = 20 * 1024

// TaskStateSegment is the subset of the x86-64 TSS this kernel
// populates: the ring-0 stack pointer loaded on every ring3->ring0
// transition via SYSCALL, and the interrupt-stack-table slot used by
// the double-fault handler.
type TaskStateSegment struct {
	RSP0 uint64
	InterruptStack1 uint64 // IST index 1 (1-based in hardware; slot 0 is reserved)
}

// Selectors names the GDT offsets the rest of the kernel needs: the
// kernel code/data pair loaded on boot, and the user code/data pair
// SYSRET installs via STAR.
type Selectors struct {
	KernelCode uint16
	KernelData uint16
	UserCode32 uint16
	UserData uint16
	UserCode uint16
	TSS uint16
}

// Table is the constructed descriptor table plus the selectors that
// index it and the TSS it points at. Entry 0 is always the mandatory
// null descriptor.
type Table struct {
	entries []DescriptorFlags
	tss *TaskStateSegment
	Selectors Selectors
}

// New lays out the GDT in the fixed order SYSCALL/SYSRET's selector
// arithmetic requires — kernel code, kernel data, an unused 32-bit
// user code descriptor, user data, user code — followed by the TSS
// descriptor, and wires tss into a fresh double-fault stack of
// DoubleFaultStackSize bytes at dfStackTop (the caller owns that
// memory; mem.InitHeap or an equivalent static reservation supplies
// it).
func New(dfStackTop uint64) *Table {
	tss := &TaskStateSegment{InterruptStack1: dfStackTop}
	t := &Table{
		entries: []DescriptorFlags{0, KernelCode, KernelData, UserCode32, UserData, UserCode},
		tss: tss,
	}
	t.Selectors = Selectors{
		KernelCode: 1 * 8,
		KernelData: 2 * 8,
		UserCode32: 3 * 8,
		UserData: 4 * 8,
		UserCode: 5 * 8,
		TSS: 6 * 8,
	}
	return t
}

// TSS returns the table's backing task state segment so boot glue can
// update RSP0 once the kernel stack for ring0 entry is known.
func (t *Table) TSS() *TaskStateSegment { return t.tss }

// Entries exposes the raw descriptor list for the assembly loader
// (LGDT expects a flat table plus a 16-byte TSS descriptor appended
// by the loader, which needs the base address of tss — not
// representable in this pure Go structure, so New deliberately stops
// short of emitting bytes and leaves final encoding to the freestanding
// boot glue).
func (t *Table) Entries() []DescriptorFlags { return t.entries }
