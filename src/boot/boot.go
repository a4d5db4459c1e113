// Package boot orders every other package's initialization into the
// single boot sequence boot needs, and seeds the initial task
// (the "Boot/init glue"). The literal step ordering here is
// original_source/kernel/src/main.rs's kernel_main: serial, cpuid, NX
// check, PIT, TSS, GDT, IDT, PIC, an int3 self-test, paging, heap,
// then jump to userspace.
package boot

import (
	"bootcfg"
	"bootinit"
	"cpu"
	"defs"
	"fs"
	"gdt"
	"klog"
	"mem"
	"panicking"
	"pic"
	"pit"
	"ramfs"
	"stats"
	"syscalls"
	"task"
	"userspace"
)

// Hardware is the full set of injected hardware hooks boot.Run needs,
// gathered in one struct so call sites don't thread a dozen function
// values through every helper individually.
type Hardware struct {
	PortOut func(port uint16, value byte)
	Wrmsr syscalls.MsrWriter
	ReadCR3 func() uint64
	WriteCR3 func(uint64)
	Halt func()
	Breakpoint func() // executes int3, for the self-test step
	CPUID func(leaf, subleaf uint32) (eax, ebx, ecx, edx uint32)
	DisableInterrupts func() // CLI, run once before a fatal halt
}

// Config bundles the boot-time inputs that are not plain hardware
// access: the memory map from the bootloader, the selectors the
// loaded GDT assigned, and the entry-stub address MSR setup points
// LSTAR at.
type Config struct {
	BootInfo mem.BootInfo
	PhysOffset mem.PhysOffset
	Selectors gdt.Selectors
	EntryStub uint64
	InitialEFER uint64
	InitImage []byte
}

// eferNXE is EFER's no-execute-enable bit, which the NX check in Run
// requires to be set.
const eferNXE = 1 << 11

// Kernel holds every subsystem handle boot.Run wires together, handed
// back to the caller (ordinarily cmd/kernel's entry point) so it can
// drive the syscall dispatch loop once userspace has been entered.
type Kernel struct {
	Log *klog.Logger
	VFS *fs.VFS
	Tasks *task.Table
	Dispatcher *syscalls.Dispatcher
	FrameAlloc *mem.FrameAllocator
	Heap *mem.BumpAllocator
	PML4 *mem.PageTable
	EntryFrame userspace.InterruptFrame
}

// Run executes the mandatory boot sequence and returns the assembled
// Kernel, or hands off to the panic handler on any unrecoverable
// condition: missing PhysOffset, unsupported CPU, NX disabled in the
// initial EFER value, a failed ramfs
// mount, or exhausted frame allocator while mapping the heap, the user
// page table, or userspace.
func Run(hw Hardware, cfg Config, log *klog.Logger) *Kernel {
	// 1. Serial is already initialized by the caller (log depends on
	// it); confirm we can log before doing anything else.
	log.Infof("boot: serial console ready")

	// The panic handler is built first: every fatal condition below
	// routes through it rather than calling hw.Halt directly, so a
	// panic anywhere past this point always disables interrupts first.
	ph := panicking.New(log, hw.DisableInterrupts, hw.Halt)

	// 2. CPU feature probe + NX check.
	features := cpu.Probe(hw.CPUID)
	log.Debugf("boot: cpu vendor=%q name=%q sse4.2=%v popcnt=%v threads/core=%d (advisory)",
		features.VendorString, features.ProcessorName, features.HasSSE42, features.HasPOPCNT, features.ThreadsPerCore)
	if !cpu.Supported(features) {
		ph.Panic("boot: unsupported CPU, missing SSE4.2/POPCNT")
		return nil
	}
	if cfg.InitialEFER&eferNXE == 0 {
		ph.Panic("boot: NX is disabled (EFER.NXE clear)")
		return nil
	}

	// 3. PIT timebase.
	pit.Configure(hw.PortOut, 0)
	log.Infof("boot: PIT configured")

	// 4/5. GDT + TSS are constructed by the caller (loading a GDT
	// requires an LGDT this package cannot itself emit); boot.Run only
	// records the selectors it was handed.
	log.Infof("boot: GDT selectors kernelCS=%#x userCS=%#x", cfg.Selectors.KernelCode, cfg.Selectors.UserCode)

	// 6. IDT + PIC.
	pic.Remap(hw.PortOut)
	log.Infof("boot: PIC remapped to %#x/%#x", pic.Offset1, pic.Offset2)

	// 7. int3 self-test: if the IDT's breakpoint handler is wired
	// correctly this returns; if not, the kernel never gets past this
	// line (matching the original's own self-test).
	if hw.Breakpoint != nil {
		hw.Breakpoint()
	}
	log.Infof("boot: breakpoint self-test passed")

	// 8. Paging.
	if cfg.BootInfo.PhysOffset == nil {
		ph.Panic("boot: bootloader did not provide a physical-memory offset")
		return nil
	}
	fa := mem.NewFrameAllocator(cfg.BootInfo.Regions)
	kernelPML4 := mem.ActivePML4(mem.Pa_t(hw.ReadCR3()), cfg.PhysOffset)

	// 9. Heap.
	if !mem.InitHeap(kernelPML4, cfg.PhysOffset, fa, mem.Va_t(bootcfg.HeapStart), bootcfg.HeapSize) {
		ph.Panic("boot: frame allocator exhausted while mapping the heap")
		return nil
	}
	heap := mem.NewBumpAllocator(uintptr(bootcfg.HeapStart), bootcfg.HeapSize)
	log.Infof("boot: heap mapped, %s", log.FormatBytes(bootcfg.HeapSize))

	// VFS + ramfs, task table.
	vfs := fs.New()
	ramfs.Register(vfs)
	if _, err := vfs.Mount("ramfs", defs.D_RAMFS, "/"); err != 0 {
		ph.Panic("boot: ramfs mount failed: %d", err)
		return nil
	}

	tasks := task.NewTable()
	mem.SetCR3Writer(func(p mem.Pa_t) { hw.WriteCR3(uint64(p)) })
	userPML4Frame, userPML4, ok := mem.CreateUserPageTable(fa, kernelPML4, cfg.PhysOffset)
	if !ok {
		ph.Panic("boot: frame allocator exhausted while creating the user page table")
		return nil
	}
	pid := tasks.Create(0, userPML4Frame)
	tasks.SetCurrent(pid)

	// 10. Syscall MSR setup.
	syscalls.Setup(hw.Wrmsr, cfg.Selectors.KernelCode, cfg.Selectors.UserCode32, cfg.EntryStub, cfg.InitialEFER)
	log.Infof("boot: SYSCALL/SYSRET MSRs programmed")

	disp := &syscalls.Dispatcher{
		Tasks: tasks,
		VFS: vfs,
		Mem: mem.UserMemory{PML4: userPML4, Phys: cfg.PhysOffset},
		Log: log,
		Exit: func(pid defs.Pid_t, code int64) {
			log.Infof("boot: task %d exited with code %d", pid, code)
			tasks.Remove(pid)
			hw.Halt()
		},
	}

	root := vfs.Root()
	if root != nil {
		if err := bootinit.Seed(vfs, root); err != 0 {
			log.Warnf("boot: /bin/init seeding failed: %d", err)
		}
	}

	entryFrame, ok := userspace.Bootstrap(userPML4, cfg.PhysOffset, fa, cfg.Selectors.UserCode, cfg.Selectors.UserData, cfg.InitImage)
	if !ok {
		ph.Panic("boot: frame allocator exhausted while bootstrapping userspace")
		return nil
	}

	mem.SwitchTo(userPML4Frame)
	log.Infof("boot: entering userspace at %#x", entryFrame.Rip)

	return &Kernel{
		Log: log,
		VFS: vfs,
		Tasks: tasks,
		Dispatcher: disp,
		FrameAlloc: fa,
		Heap: heap,
		PML4: userPML4,
		EntryFrame: entryFrame,
	}
}

// Snapshot reports the counters cmd/kstat renders as a pprof profile.
func (k *Kernel) Snapshot() stats.Snapshot {
	return stats.Snapshot{
		TaskCount: k.Tasks.Count(),
		InodeCount: k.VFS.InodeCount(),
		DentryCount: k.VFS.DentryCount(),
		FramesAllocated: k.FrameAlloc.Allocated(),
		HeapBytesAllocated: k.Heap.Allocated(),
	}
}

