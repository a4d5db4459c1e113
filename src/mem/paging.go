package mem

import (
	"unsafe"

	"freestanding"
)

// PhysOffset is the fixed virtual address at which the bootloader
// maps all physical memory contiguously (the "PhysOffset"),
// reducing every page-table walk in this kernel to pointer
// arithmetic, exactly as the established Dmap does for its own direct
// map (mem/dmap.go's Vdirect).
type PhysOffset uintptr

// tableAt returns the PageTable resident at physical frame f, viewed
// through the direct map at this PhysOffset.
func (po PhysOffset) tableAt(f Pa_t) *PageTable {
	va := uintptr(po) + uintptr(f)
	return (*PageTable)(unsafe.Pointer(va))
}

// cr3Writer is installed by the boot glue with SetCR3Writer, mirroring
// the established pattern of injecting a hardware callback into a
// package-level function variable (vm/as.go's Cpumap, which records
// "a helper that converts CPU IDs to APIC IDs" the same way). Keeping
// the actual MOV CR3 instruction behind an injected function keeps
// this package testable on a host without real page tables.
var cr3Writer func(Pa_t)

// SetCR3Writer installs the hardware callback SwitchTo uses to load a
// new PML4 into CR3 and flush the TLB in the process (x86-64 reloads
// the TLB implicitly on every CR3 write).
func SetCR3Writer(f func(Pa_t)) { cr3Writer = f }

// ActivePML4 returns the PageTable for the PML4 frame currently loaded
// in the CPU's page-table base register. cr3 is supplied by the
// caller (ordinarily the value just read from CR3 by the ioport
// package) rather than read here, so this function — and everything
// built on it — stays a pure, host-testable function of its inputs.
func ActivePML4(cr3 Pa_t, phys PhysOffset) *PageTable {
	return phys.tableAt(cr3 & Pa_t(PGMASK))
}

// CreateUserPageTable allocates a zeroed frame for a new PML4 and
// copies every entry from the current kernel PML4 for which the entry
// is present *and* the user-accessible bit is clear. This
// gives the new address space every kernel mapping but none of the
// (nonexistent, in this single-task kernel) old user mappings — the
// exact filter the established dmap.go applies when building Kents, the
// list of kernel PML4 entries copied into every new address space.
func CreateUserPageTable(fa *FrameAllocator, kernelPML4 *PageTable, phys PhysOffset) (Pa_t, *PageTable, bool) {
	frame, ok := fa.AllocateFrame()
	if !ok {
		return 0, nil, false
	}
	table := phys.tableAt(frame)
	*table = PageTable{}
	for i, e := range kernelPML4 {
		if e.Present() && !e.UserAccessible() {
			table[i] = e
		}
	}
	return frame, table, true
}

// SwitchTo loads pml4Frame into CR3 via the installed hardware
// callback, flushing the TLB as a side effect of the CR3 write.
func SwitchTo(pml4Frame Pa_t) {
	if cr3Writer == nil {
		panic("mem: SwitchTo called before SetCR3Writer")
	}
	cr3Writer(pml4Frame)
}

// MapFlags selects the permission bits installed for a freshly mapped
// page. Present is always implied by Map/InitHeap/MapUserPage.
type MapFlags struct {
	Writable bool
	User bool
	NoExec bool
}

func (f MapFlags) pte() PTE {
	e := PTE_P
	if f.Writable {
		e |= PTE_W
	}
	if f.User {
		e |= PTE_U
	}
	if f.NoExec {
		e |= PTE_NX
	}
	return e
}

// walkCreate walks the 4-level hierarchy for va, allocating any
// missing PDPT/PD/PT frame along the way (always present+writable;
// user-accessible only when the final mapping will be, so that an
// intermediate table shared only by kernel mappings never grants user
// access a level early), and returns a pointer to the leaf PT entry.
func walkCreate(pml4 *PageTable, phys PhysOffset, fa *FrameAllocator, va Va_t, userVisible bool) (*PTE, bool) {
	p4i, p3i, p2i, p1i := entriesOf(va)
	levels := [3]uint{p4i, p3i, p2i}
	table := pml4
	for _, idx := range levels {
		e := table[idx]
		var next *PageTable
		if e.Present() {
			if e.Huge() {
				// Huge entries must be honoured by any translation
				// walk the kernel performs, but this kernel never
				// creates one itself, so a huge entry here means the
				// caller asked to map over hardware state it doesn't
				// own.
				return nil, false
			}
			next = phys.tableAt(e.Addr())
		} else {
			frame, ok := fa.AllocateFrame()
			if !ok {
				return nil, false
			}
			next = phys.tableAt(frame)
			*next = PageTable{}
			flags := PTE_P | PTE_W
			if userVisible {
				flags |= PTE_U
			}
			table[idx] = PTE(frame) | flags
		}
		table = next
	}
	return &table[p1i], true
}

// Map installs a single frame->va mapping with the given flags,
// allocating any missing intermediate table along the way. It is the
// shared engine behind InitHeap and MapUserPage.
func Map(pml4 *PageTable, phys PhysOffset, fa *FrameAllocator, va Va_t, frame Pa_t, flags MapFlags) bool {
	pte, ok := walkCreate(pml4, phys, fa, va, flags.User)
	if !ok {
		return false
	}
	*pte = PTE(frame) | flags.pte()
	return true
}

// InitHeap maps the kernel heap region [start, start+size) one page
// at a time, each page freshly allocated and mapped
// writable+present+no-execute (the init_heap). It returns
// false if the frame allocator is exhausted partway through; the
// caller treats that as the fatal "no paging info"-class boot error
//.
func InitHeap(pml4 *PageTable, phys PhysOffset, fa *FrameAllocator, start Va_t, size uint64) bool {
	flags := MapFlags{Writable: true, NoExec: true}
	for off := uint64(0); off < size; off += PGSIZE {
		frame, ok := fa.AllocateFrame()
		if !ok {
			return false
		}
		if !Map(pml4, phys, fa, start+Va_t(off), frame, flags) {
			return false
		}
	}
	return true
}

// MapUserPage allocates a frame and installs a single user-accessible
// mapping at addr with the given flags (the map_user_page).
// The caller is responsible for NX (e.g. stacks ask for NoExec: true;
// the code page does not, per the note that NX stays off for
// the code region by default).
func MapUserPage(pml4 *PageTable, phys PhysOffset, fa *FrameAllocator, addr Va_t, flags MapFlags) (Pa_t, bool) {
	frame, ok := fa.AllocateFrame()
	if !ok {
		return 0, false
	}
	flags.User = true
	if !Map(pml4, phys, fa, addr, frame, flags) {
		return 0, false
	}
	return frame, true
}

// WritePhys copies data into the frame at physical address frame,
// viewed through the direct map. Used by boot glue to materialize an
// initial program image into a freshly mapped user code page without
// needing a separate "write through the new page table" path; the
// direct map already covers every physical frame.
func WritePhys(phys PhysOffset, frame Pa_t, data []byte) {
	dst := unsafe.Pointer(uintptr(phys) + uintptr(frame))
	src := unsafe.Pointer(unsafe.SliceData(data))
	freestanding.Memcpy(dst, src, uintptr(len(data)))
}

// TranslateUserAddr behaves like TranslateAddr but additionally
// requires every level of the walk to be user-accessible, and (when
// wantWrite is set) the leaf entry to be writable, rejecting the walk
// instead of resolving an address that points into kernel-only
// memory. UserMemory builds its copies on this rather than on
// TranslateAddr directly.
func TranslateUserAddr(pml4 *PageTable, phys PhysOffset, va Va_t, wantWrite bool) (Pa_t, bool) {
	p4i, p3i, p2i, p1i := entriesOf(va)
	offset := uint64(va) & PGOFFSET

	e := pml4[p4i]
	if !e.Present() || !e.UserAccessible() {
		return 0, false
	}
	p3 := phys.tableAt(e.Addr())

	e = p3[p3i]
	if !e.Present() || !e.UserAccessible() {
		return 0, false
	}
	if e.Huge() {
		if wantWrite && e&PTE_W == 0 {
			return 0, false
		}
		return e.Addr() + Pa_t(uint64(va)&(1<<30-1)), true
	}
	p2 := phys.tableAt(e.Addr())

	e = p2[p2i]
	if !e.Present() || !e.UserAccessible() {
		return 0, false
	}
	if e.Huge() {
		if wantWrite && e&PTE_W == 0 {
			return 0, false
		}
		return e.Addr() + Pa_t(uint64(va)&(1<<21-1)), true
	}
	p1 := phys.tableAt(e.Addr())

	e = p1[p1i]
	if !e.Present() || !e.UserAccessible() {
		return 0, false
	}
	if wantWrite && e&PTE_W == 0 {
		return 0, false
	}
	return e.Addr() + Pa_t(offset), true
}

// TranslateAddr walks the page tables rooted at pml4 to resolve va to
// a physical address, honouring huge (2 MiB / 1 GiB) entries at the
// P2/P3 levels along the way. It returns ok=false if any
// level is not present.
func TranslateAddr(pml4 *PageTable, phys PhysOffset, va Va_t) (Pa_t, bool) {
	p4i, p3i, p2i, p1i := entriesOf(va)
	offset := uint64(va) & PGOFFSET

	e := pml4[p4i]
	if !e.Present() {
		return 0, false
	}
	p3 := phys.tableAt(e.Addr())

	e = p3[p3i]
	if !e.Present() {
		return 0, false
	}
	if e.Huge() {
		// 1 GiB page: low 30 bits are the in-page offset.
		return e.Addr() + Pa_t(uint64(va)&(1<<30-1)), true
	}
	p2 := phys.tableAt(e.Addr())

	e = p2[p2i]
	if !e.Present() {
		return 0, false
	}
	if e.Huge() {
		// 2 MiB page: low 21 bits are the in-page offset.
		return e.Addr() + Pa_t(uint64(va)&(1<<21-1)), true
	}
	p1 := phys.tableAt(e.Addr())

	e = p1[p1i]
	if !e.Present() {
		return 0, false
	}
	return e.Addr() + Pa_t(offset), true
}
