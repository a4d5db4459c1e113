// Package freestanding provides the handful of low-level memory
// primitives a kernel needs below the level any higher package should
// reach for directly: raw byte fill/copy/compare over unsafe pointers.
// These mirror the extern "C" memcpy/memset/memcmp lang-item shims
// original_source/kernel/src/freestanding.rs supplies for its no_std
// build; a hosted Go runtime does not strictly require them. mem's
// WritePhys and UserMemory copies use Memcpy for their raw-pointer
// bulk copies; mem's other direct-map accesses use unsafe directly.
package freestanding

import "unsafe"

// Memset fills n bytes starting at ptr with value.
func Memset(ptr unsafe.Pointer, value byte, n uintptr) {
	dst := unsafe.Slice((*byte)(ptr), n)
	for i := range dst {
		dst[i] = value
	}
}

// Memcpy copies n bytes from src to dst. The regions must not overlap;
// callers that need overlap-safe behavior use Memmove.
func Memcpy(dst, src unsafe.Pointer, n uintptr) {
	d := unsafe.Slice((*byte)(dst), n)
	s := unsafe.Slice((*byte)(src), n)
	copy(d, s)
}

// Memmove copies n bytes from src to dst, correct even when the
// regions overlap.
func Memmove(dst, src unsafe.Pointer, n uintptr) {
	d := unsafe.Slice((*byte)(dst), n)
	s := unsafe.Slice((*byte)(src), n)
	copy(d, s) // Go's copy is already overlap-safe
}

// Memcmp compares n bytes at a and b, returning a negative, zero, or
// positive result the way C's memcmp does.
func Memcmp(a, b unsafe.Pointer, n uintptr) int {
	x := unsafe.Slice((*byte)(a), n)
	y := unsafe.Slice((*byte)(b), n)
	for i := uintptr(0); i < n; i++ {
		if x[i] != y[i] {
			return int(x[i]) - int(y[i])
		}
	}
	return 0
}
