package mem

import "testing"

func userSpace(t *testing.T, frames int) (PhysOffset, *FrameAllocator, *PageTable) {
	t.Helper()
	phys, fa := fakeSpace(t, frames)
	pml4Frame, ok := fa.AllocateFrame()
	if !ok {
		t.Fatal("allocate pml4 frame")
	}
	pml4 := phys.tableAt(pml4Frame)
	*pml4 = PageTable{}
	return phys, fa, pml4
}

func TestUserMemoryReadWriteRoundTrip(t *testing.T) {
	phys, fa, pml4 := userSpace(t, 16)
	base := Va_t(0x500000)

	for _, va := range []Va_t{base, base + Va_t(PGSIZE)} {
		frame, ok := fa.AllocateFrame()
		if !ok {
			t.Fatal("allocate frame")
		}
		if !Map(pml4, phys, fa, va, frame, MapFlags{Writable: true, User: true}) {
			t.Fatal("Map failed")
		}
	}

	um := UserMemory{PML4: pml4, Phys: phys}
	want := make([]byte, PGSIZE) // crosses the page boundary, fits within the two mapped pages
	for i := range want {
		want[i] = byte(i)
	}
	addr := uint64(base) + PGSIZE - 8
	if !um.WriteBytes(addr, want) {
		t.Fatal("WriteBytes failed")
	}

	got := make([]byte, len(want))
	if !um.ReadBytes(addr, got) {
		t.Fatal("ReadBytes failed")
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("byte %d = %#x, want %#x", i, got[i], want[i])
		}
	}
}

func TestUserMemoryRejectsKernelOnlyPage(t *testing.T) {
	phys, fa, pml4 := userSpace(t, 8)
	va := Va_t(0x600000)
	frame, _ := fa.AllocateFrame()
	if !Map(pml4, phys, fa, va, frame, MapFlags{Writable: true}) { // no User flag
		t.Fatal("Map failed")
	}

	um := UserMemory{PML4: pml4, Phys: phys}
	buf := make([]byte, 4)
	if um.ReadBytes(uint64(va), buf) {
		t.Error("ReadBytes succeeded through a kernel-only mapping")
	}
	if um.WriteBytes(uint64(va), buf) {
		t.Error("WriteBytes succeeded through a kernel-only mapping")
	}
}

func TestUserMemoryWriteRejectsReadOnlyPage(t *testing.T) {
	phys, fa, pml4 := userSpace(t, 8)
	va := Va_t(0x700000)
	frame, _ := fa.AllocateFrame()
	if !Map(pml4, phys, fa, va, frame, MapFlags{User: true}) { // Writable left false
		t.Fatal("Map failed")
	}

	um := UserMemory{PML4: pml4, Phys: phys}
	if um.WriteBytes(uint64(va), []byte("x")) {
		t.Error("WriteBytes succeeded against a read-only user page")
	}
	buf := make([]byte, 1)
	if !um.ReadBytes(uint64(va), buf) {
		t.Error("ReadBytes failed against a readable user page")
	}
}

func TestUserMemoryReadCString(t *testing.T) {
	phys, fa, pml4 := userSpace(t, 16)
	base := Va_t(0x800000)
	for _, va := range []Va_t{base, base + Va_t(PGSIZE)} {
		frame, _ := fa.AllocateFrame()
		if !Map(pml4, phys, fa, va, frame, MapFlags{Writable: true, User: true}) {
			t.Fatal("Map failed")
		}
	}

	um := UserMemory{PML4: pml4, Phys: phys}
	path := "/bin/init"
	withNul := append([]byte(path), 0)
	// Place the string so it straddles the page boundary.
	addr := uint64(base) + PGSIZE - 4
	if !um.WriteBytes(addr, withNul) {
		t.Fatal("WriteBytes failed")
	}

	got, ok := um.ReadCString(addr, 256)
	if !ok {
		t.Fatal("ReadCString failed")
	}
	if got != path {
		t.Errorf("ReadCString = %q, want %q", got, path)
	}

	if _, ok := um.ReadCString(addr, 3); ok {
		t.Error("ReadCString succeeded despite the terminator being past the cap")
	}
}
