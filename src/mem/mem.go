// Package mem implements the kernel's memory layer: the physical
// frame allocator, the kernel bump heap, and the 4-level paging code.
// Types and constants here mirror the established mem package (Pa_t,
// PGSIZE, PTE_* bits, Physmem_t) adapted to a single-CPU, no-paging-out
// kernel: there is no refcounted Physmem_t free list here because this
// kernel never frees a frame once handed out.
package mem

// PGSHIFT is the base-2 exponent of the page size.
const PGSHIFT uint = 12

// PGSIZE is the size in bytes of a single page/frame.
const PGSIZE uint64 = 1 << PGSHIFT

// PGOFFSET masks the in-page offset bits of an address.
const PGOFFSET uint64 = PGSIZE - 1

// PGMASK masks the frame-aligned bits of an address.
const PGMASK uint64 = ^PGOFFSET

// Pa_t is a physical address, named after the established Pa_t.
type Pa_t uint64

// Va_t is a virtual address.
type Va_t uint64

// PTE is a single page-table entry: a frame address plus flag bits,
// matching the "Page-table hierarchy" data model.
type PTE uint64

// Page-table entry flags. Bit positions match real x86-64 hardware
// (NX is the top bit of a 64-bit entry) so that a later hardware
// backend can store these values directly into CR3-resident tables.
const (
	PTE_P PTE = 1 << 0 // present
	PTE_W PTE = 1 << 1 // writable
	PTE_U PTE = 1 << 2 // user-accessible
	PTE_PS PTE = 1 << 7 // huge page (2MiB at PD, 1GiB at PDPT)
	PTE_NX PTE = 1 << 63
)

// PTE_ADDR extracts the frame address bits of a PTE, discarding flags.
const PTE_ADDR PTE = PTE(PGMASK) &^ PTE_NX

// Addr returns the frame address encoded in the PTE.
func (e PTE) Addr() Pa_t { return Pa_t(e & PTE_ADDR) }

// Present reports whether the entry's present bit is set.
func (e PTE) Present() bool { return e&PTE_P != 0 }

// UserAccessible reports whether the entry's user bit is set.
func (e PTE) UserAccessible() bool { return e&PTE_U != 0 }

// Huge reports whether the entry maps a large page at this level.
func (e PTE) Huge() bool { return e&PTE_PS != 0 }

// PageTable is one level of the 4-level hierarchy (PML4, PDPT, PD, or
// PT): 512 eight-byte entries, exactly mem.Pmap_t in it.
type PageTable [512]PTE

// entriesOf splits a virtual address into its four page-table indices
// (PML4, PDPT, PD, PT), the Go equivalent of x86_64::VirtAddr's
// p4_index/p3_index/p2_index/p1_index accessors used by
// original_source/kernel/src/memory.rs's translate_addr_inner.
func entriesOf(va Va_t) (p4, p3, p2, p1 uint) {
	v := uint64(va)
	p4 = uint(v>>39) & 0x1ff
	p3 = uint(v>>30) & 0x1ff
	p2 = uint(v>>21) & 0x1ff
	p1 = uint(v>>12) & 0x1ff
	return
}

// RegionKind classifies a memory region reported by the bootloader.
type RegionKind int

const (
	RegionUsable RegionKind = iota
	RegionReserved
)

// MemoryRegion is one entry of the bootloader handoff's memory map
// : a half-open physical address range and its kind.
type MemoryRegion struct {
	Start uint64
	End uint64
	Kind RegionKind
}

// BootInfo is the contract the bootloader hands the kernel at entry
// : the memory map plus the physical-memory direct-map
// offset. A nil PhysOffset is fatal : the bootloader must
// have installed the mapping described by bootcfg.PhysOffset.
type BootInfo struct {
	Regions []MemoryRegion
	PhysOffset *uint64
}
