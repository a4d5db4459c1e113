// Package panicking implements the kernel's single panic policy: log
// the message and halt forever with interrupts disabled, never
// attempting recovery, grounded on
// original_source/kernel/src/panic.rs.
package panicking

// Logger is the minimal surface panicking needs from klog.
type Logger interface {
	Fatalf(format string, args...any)
}

// InterruptDisabler and Halt are the two hardware actions the panic
// handler performs before parking forever; boot glue wires these to
// the real CLI/HLT instructions via ioport, tests supply recording
// fakes.
type InterruptDisabler func()
type Halt func()

// Handler is the installed panic path: log, disable interrupts, halt
// in a loop. boot.Run builds one at the start of boot, before any
// other subsystem is initialized, and routes every fatal condition
// through it.
type Handler struct {
	log Logger
	cli InterruptDisabler
	halt Halt
}

// New builds a Handler. halt is expected to actually stop the CPU
// (HLT); Panic still loops calling it in case of a spurious wakeup,
// matching original_source/kernel/src/panic.rs's `loop { hlt }`.
func New(log Logger, cli InterruptDisabler, halt Halt) *Handler {
	return &Handler{log: log, cli: cli, halt: halt}
}

// Panic logs format/args at fatal level, disables interrupts, and
// halts forever. It never returns.
func (h *Handler) Panic(format string, args...any) {
	h.log.Fatalf(format, args...)
	if h.cli != nil {
		h.cli()
	}
	for {
		h.halt()
	}
}
