package mem

// BumpAllocator is a monotonic allocator over a single pre-mapped
// kernel-virtual heap region. It is the kernel's
// #[global_allocator] equivalent: every kernel alloc walks through
// here, and nothing is ever freed, matching the established own
// HeapAllocator (original_source/kernel/src/allocator.rs) line for
// line in spirit.
type BumpAllocator struct {
	start uintptr
	end uintptr
	current uintptr
}

// NewBumpAllocator builds an allocator over [start, start+size). The
// region must already be mapped writable+present+no-execute before
// any Alloc call; InitHeap is responsible for that.
func NewBumpAllocator(start uintptr, size uint64) *BumpAllocator {
	return &BumpAllocator{start: start, end: start + uintptr(size), current: start}
}

// Alloc reserves size bytes aligned to align, returning the address
// and true, or false if the region is exhausted.
func (b *BumpAllocator) Alloc(size uintptr, align uintptr) (uintptr, bool) {
	if align == 0 {
		align = 1
	}
	aligned := alignUp(b.current, align)
	if aligned+size > b.end {
		return 0, false
	}
	b.current = aligned + size
	return aligned, true
}

// Free is a no-op: the bump allocator never reclaims memory.
func (b *BumpAllocator) Free(uintptr, uintptr) {}

// Allocated returns the number of bytes handed out so far.
func (b *BumpAllocator) Allocated() uint64 { return uint64(b.current - b.start) }

func alignUp(addr, align uintptr) uintptr {
	return (addr + align - 1) &^ (align - 1)
}
