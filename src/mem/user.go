package mem

import (
	"unsafe"

	"freestanding"
)

// UserMemory safely dereferences user-supplied pointers on behalf of
// the syscall dispatcher: every copy walks PML4 with TranslateUserAddr
// one page at a time rather than trusting the raw address, so a
// syscall argument pointing outside the task's mapped, user-accessible
// range fails cleanly instead of taking a kernel page fault.
type UserMemory struct {
	PML4 *PageTable
	Phys PhysOffset
}

// ReadBytes copies len(buf) bytes from addr in the user address space
// into buf, failing if any page touched along the way is not present
// and user-accessible.
func (u UserMemory) ReadBytes(addr uint64, buf []byte) bool {
	return u.copyPages(Va_t(addr), buf, false)
}

// WriteBytes copies buf into addr in the user address space, failing
// under the same conditions as ReadBytes plus a target page mapped
// read-only.
func (u UserMemory) WriteBytes(addr uint64, buf []byte) bool {
	return u.copyPages(Va_t(addr), buf, true)
}

// ReadCString reads at most max bytes starting at addr looking for a
// NUL terminator, walking page by page via TranslateUserAddr. It fails
// if no terminator is found within the cap or a page along the way is
// not user-readable, the 256-byte-capped path-read shape sys_open
// needs.
func (u UserMemory) ReadCString(addr uint64, max int) (string, bool) {
	out := make([]byte, 0, max)
	va := Va_t(addr)
	for len(out) < max {
		pa, ok := TranslateUserAddr(u.PML4, u.Phys, va, false)
		if !ok {
			return "", false
		}
		pageOff := uint64(va) & PGOFFSET
		n := PGSIZE - pageOff
		if remaining := uint64(max - len(out)); n > remaining {
			n = remaining
		}
		page := unsafe.Slice((*byte)(unsafe.Pointer(uintptr(u.Phys)+uintptr(pa))), n)
		for _, b := range page {
			if b == 0 {
				return string(out), true
			}
			out = append(out, b)
		}
		va += Va_t(n)
	}
	return "", false
}

func (u UserMemory) copyPages(va Va_t, buf []byte, write bool) bool {
	for len(buf) > 0 {
		pa, ok := TranslateUserAddr(u.PML4, u.Phys, va, write)
		if !ok {
			return false
		}
		pageOff := uint64(va) & PGOFFSET
		n := PGSIZE - pageOff
		if n > uint64(len(buf)) {
			n = uint64(len(buf))
		}
		userPtr := unsafe.Pointer(uintptr(u.Phys) + uintptr(pa))
		kernPtr := unsafe.Pointer(unsafe.SliceData(buf[:n]))
		if write {
			freestanding.Memcpy(userPtr, kernPtr, uintptr(n))
		} else {
			freestanding.Memcpy(kernPtr, userPtr, uintptr(n))
		}
		buf = buf[n:]
		va += Va_t(n)
	}
	return true
}
