// Package userspace bootstraps the single initial user task: mapping
// its code and stack pages and building the synthetic interrupt frame
// an iretq uses to drop to ring 3, grounded on
// original_source/kernel/src/userspace.rs's test_userspace_routine
// bootstrap sequence.
package userspace

import (
	"bootcfg"
	"mem"
)

// InterruptFrame is the register state iretq consumes to cross from
// ring 0 to ring 3: instruction pointer, code selector, flags, stack
// pointer, and stack selector, in the order the CPU expects them
// popped.
type InterruptFrame struct {
	Rip uint64
	Cs uint64
	Rflags uint64
	Rsp uint64
	Ss uint64
}

// StackGuardSize is the gap left between the mapped stack
// page's top and the initial stack pointer ("stack top - 2 KiB"),
// giving the very first few pushes headroom without touching an
// unmapped guard page.
const StackGuardSize = 2 * 1024

// Bootstrap maps one user-accessible code page at bootcfg.UserCodeStart
// and one user-accessible, no-execute stack page at
// bootcfg.UserStackStart, copies image into the code page, and returns
// the InterruptFrame a caller should iretq with. NX stays off for the
// code region (NX stays off by default).
func Bootstrap(pml4 *mem.PageTable, phys mem.PhysOffset, fa *mem.FrameAllocator, userCS, userSS uint16, image []byte) (InterruptFrame, bool) {
	codeFrame, ok := mem.MapUserPage(pml4, phys, fa, mem.Va_t(bootcfg.UserCodeStart), mem.MapFlags{Writable: true})
	if !ok {
		return InterruptFrame{}, false
	}
	if _, ok := mem.MapUserPage(pml4, phys, fa, mem.Va_t(bootcfg.UserStackStart), mem.MapFlags{Writable: true, NoExec: true}); !ok {
		return InterruptFrame{}, false
	}

	mem.WritePhys(phys, codeFrame, image)

	return InterruptFrame{
		Rip: bootcfg.UserCodeStart,
		Cs: uint64(userCS) | ring3RPL,
		Rflags: rflagsIF,
		Rsp: bootcfg.UserStackStart + mem.PGSIZE - StackGuardSize,
		Ss: uint64(userSS) | ring3RPL,
	}, true
}

const rflagsIF = 1 << 9

// ring3RPL is OR'd into the Cs/Ss selectors iretq pops: the requested
// privilege level must be 3 or the CPU raises #GP on the privilege
// transition instead of dropping to ring 3.
const ring3RPL = 3
