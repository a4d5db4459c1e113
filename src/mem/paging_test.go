package mem

import (
	"testing"
	"unsafe"
)

// fakeSpace gives tests a flat byte arena to stand in for "all of physical
// memory, viewed through the direct map": the arena's own base address
// becomes PhysOffset, so a frame address of 0 lands at the arena's first
// byte, matching how the established mem tests build small in-memory
// page tables without real hardware.
func fakeSpace(t *testing.T, frames int) (PhysOffset, *FrameAllocator) {
	t.Helper()
	arena := make([]byte, uint64(frames)*PGSIZE)
	phys := PhysOffset(uintptr(unsafe.Pointer(&arena[0])))
	// arena's address escapes as a bare uintptr; keep the slice itself
	// reachable for the life of the test so the GC cannot reclaim it.
	t.Cleanup(func() { _ = arena[0] })
	fa := NewFrameAllocator([]MemoryRegion{{Start: 0, End: uint64(frames) * PGSIZE, Kind: RegionUsable}})
	return phys, fa
}

func TestCreateUserPageTablePreservesKernelHalf(t *testing.T) {
	phys, fa := fakeSpace(t, 8)

	kernelFrame, ok := fa.AllocateFrame()
	if !ok {
		t.Fatal("allocate kernel pml4 frame")
	}
	kernelPML4 := phys.tableAt(kernelFrame)
	*kernelPML4 = PageTable{}
	kernelPML4[300] = PTE(0x1000) | PTE_P // kernel-half, not user-accessible
	kernelPML4[5] = PTE(0x2000) | PTE_P | PTE_U // user-accessible, must not be copied

	_, userPML4, ok := CreateUserPageTable(fa, kernelPML4, phys)
	if !ok {
		t.Fatal("CreateUserPageTable failed")
	}

	if userPML4[300] != kernelPML4[300] {
		t.Errorf("kernel-half entry not preserved: got %#x want %#x", userPML4[300], kernelPML4[300])
	}
	if userPML4[5] != 0 {
		t.Errorf("user-accessible entry leaked into new table: %#x", userPML4[5])
	}
}

func TestMapAndTranslateAddr(t *testing.T) {
	phys, fa := fakeSpace(t, 16)
	pml4Frame, _ := fa.AllocateFrame()
	pml4 := phys.tableAt(pml4Frame)
	*pml4 = PageTable{}

	va := Va_t(0x400000)
	frame, ok := fa.AllocateFrame()
	if !ok {
		t.Fatal("allocate frame")
	}
	if !Map(pml4, phys, fa, va, frame, MapFlags{Writable: true}) {
		t.Fatal("Map failed")
	}

	got, ok := TranslateAddr(pml4, phys, va+0x123)
	if !ok {
		t.Fatal("TranslateAddr failed")
	}
	want := frame + Pa_t(0x123)
	if got != want {
		t.Errorf("TranslateAddr = %#x, want %#x", got, want)
	}
}

func TestInitHeapExhaustion(t *testing.T) {
	phys, fa := fakeSpace(t, 2) // only 2 frames total, far fewer than a heap needs
	pml4Frame, _ := fa.AllocateFrame()
	pml4 := phys.tableAt(pml4Frame)
	*pml4 = PageTable{}

	if InitHeap(pml4, phys, fa, Va_t(0xFFFF900000000000), 64*PGSIZE) {
		t.Fatal("InitHeap should fail when the frame allocator is exhausted")
	}
}
