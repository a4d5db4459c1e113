// Package idt defines the kernel's interrupt vector layout and the
// pure decode/dispatch logic behind each exception and IRQ handler
//. As with gdt, the actual LIDT/interrupt-stub assembly
// lives in the freestanding boot glue; this package holds everything
// about vector numbers and handler behavior that can be expressed and
// tested as ordinary Go, grounded on
// original_source/kernel/src/{idt.rs,interrupt_idx.rs}.
package idt

// Vector numbers for the CPU exceptions this kernel installs handlers
// for, matching original_source/kernel/src/idt.rs's IDT entries.
const (
	VecDivideByZero = 0x00
	VecDebug = 0x01
	VecBreakpoint = 0x03
	VecInvalidOpcode = 0x06
	VecDoubleFault = 0x08
	VecInvalidTSS = 0x0A
	VecSegmentNotPresent = 0x0B
	VecStackSegment = 0x0C
	VecGeneralProtection = 0x0D
	VecPageFault = 0x0E
	VecControlProtection = 0x15
)

// Vector numbers for the two remapped hardware IRQ lines this kernel
// handles (original_source/kernel/src/interrupt_idx.rs).
const (
	VecTimer = 0x20 // PIC1 offset + IRQ0
	VecKeyboard = 0x21 // PIC1 offset + IRQ1
)

// PageFaultError decodes the CPU's page-fault error code (pushed onto
// the stack alongside the faulting CR2 value), bit for bit per the
// x86-64 architecture manual.
type PageFaultError uint64

const (
	PFPresent PageFaultError = 1 << 0
	PFWrite PageFaultError = 1 << 1
	PFUser PageFaultError = 1 << 2
)

func (e PageFaultError) Present() bool { return e&PFPresent != 0 }
func (e PageFaultError) Write() bool { return e&PFWrite != 0 }
func (e PageFaultError) User() bool { return e&PFUser != 0 }

// PageFaultInfo is everything the page-fault handler logs before
// halting: this kernel has no demand paging or copy-on-write, so
// every page fault is fatal.
type PageFaultInfo struct {
	FaultingAddress uint64
	Error PageFaultError
}

// Logger receives a formatted line from a handler; boot glue supplies
// klog, tests supply a recording fake.
type Logger func(format string, args...any)

// Halt stops the processor; boot glue supplies "hlt in a loop", tests
// supply a fake that records the call without actually stopping.
type Halt func()

// HandlePageFault logs the fault and halts, matching
// original_source/kernel/src/idt.rs's page_fault_handler, which never
// returns.
func HandlePageFault(log Logger, halt Halt, info PageFaultInfo) {
	log("page fault: addr=%#x present=%v write=%v user=%v",
		info.FaultingAddress, info.Error.Present(), info.Error.Write(), info.Error.User())
	halt()
}

// HandleDoubleFault logs the double fault and halts unconditionally;
// a double fault means the first-chance handler itself faulted, so
// nothing past logging can be trusted.
func HandleDoubleFault(log Logger, halt Halt, errorCode uint64) {
	log("double fault: error_code=%#x", errorCode)
	halt()
}

// HandleBreakpoint logs and returns: int3 is the one exception this
// kernel resumes after, matching original_source/kernel/src/idt.rs's
// breakpoint_handler.
func HandleBreakpoint(log Logger, instructionPointer uint64) {
	log("breakpoint at %#x", instructionPointer)
}

// HandleGeneralProtectionFault logs the faulting selector/error code
// and halts: this kernel treats #GP as unrecoverable.
func HandleGeneralProtectionFault(log Logger, halt Halt, errorCode uint64) {
	log("general protection fault: error_code=%#x", errorCode)
	halt()
}

// HandleControlProtectionFault logs the faulting error code and halts:
// like #GP, this kernel treats a CET control-flow violation (#CP) as
// unrecoverable.
func HandleControlProtectionFault(log Logger, halt Halt, errorCode uint64) {
	log("control protection fault: error_code=%#x", errorCode)
	halt()
}

// TimerTick is invoked on every VecTimer interrupt; it increments the
// pit package's tick counter and must acknowledge the interrupt via
// pic.EndOfInterrupt before returning so the PIC delivers the next
// tick (wired up by boot glue, not this package, to avoid an import
// cycle between idt and pit).
type TimerTick func()
