// Package bootcfg centralizes the fixed virtual-address and hardware
// constants every other package needs to agree on, the way
// the established mem package centralizes PGSIZE and friends in one
// place instead of scattering magic numbers across the tree.
package bootcfg

// PhysOffset is the virtual address at which the bootloader maps all
// physical memory contiguously. The value itself is bootloader policy;
// this constant is what the kernel and the bootloader must agree on.
const PhysOffset uint64 = 0xFFFF_8000_0000_0000

// HeapStart and HeapSize bound the kernel's bump heap : an
// implementation-chosen upper-half address and a 1 MiB initial size.
// HeapSize is a named constant rather than a literal so a later
// implementation can size it as a fraction of usable memory without
// touching call sites (the heap-sizing Open Question).
const (
	HeapStart uint64 = 0xFFFF_9000_0000_0000
	HeapSize uint64 = 1 << 20
)

// Userspace code/stack placement (fixed by convention).
const (
	UserCodeStart uint64 = 0x1000
	UserStackStart uint64 = 0x7FFF_FFFF_F000
	UserStackSize uint64 = 1 << 20
)

// PITBaseFrequency and PITDefaultReload describe the same PIT settings
// as pit.BaseFrequency and pit.DefaultReload, which pit defines
// independently. PITDefaultReload is the 16-bit register value 0,
// which the PIT treats as pit.DefaultReload (65536).
const (
	PITBaseFrequency uint32 = 1193182
	PITDefaultReload uint16 = 0 // 0 means the PIT's own "max divisor" wraparound
)

// DoubleFaultStackSize mirrors gdt.DoubleFaultStackSize; kept here too
// so boot glue's static stack reservations can reference bootcfg alone.
const DoubleFaultStackSize = 20 * 1024

// KernelStackSize is the size of the dedicated ring-0 stack TSS.RSP0
// points at, used on every ring3->ring0 transition.
const KernelStackSize = 16 * 1024
