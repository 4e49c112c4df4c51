//go:build palcgo
// +build palcgo

package pal

// #include <stdlib.h>
import "C"

import "unsafe"

// Valloc over-allocates bytes+alignment+word through the C allocator and
// hides the original C pointer in a word immediately preceding the
// aligned address it returns, the same hidden-pointer convention the
// cgo-backed pools in the retrieval pack use to round an opaque C.malloc
// result up to an alignment C doesn't let callers request directly.
func (s *System) Valloc(bytes, alignment int64) (unsafe.Pointer, bool) {
	bytes, alignment, ok := s.normalize(bytes, alignment)
	if !ok {
		return nil, false
	}

	word := int64(unsafe.Sizeof(uintptr(0)))
	total := bytes + alignment + word
	raw := C.malloc(C.size_t(total))
	if raw == nil {
		return nil, false
	}

	base := uintptr(raw)
	aligned := roundupPtr(base+uintptr(word), uintptr(alignment))
	hidden := (*uintptr)(unsafe.Pointer(aligned - uintptr(word)))
	*hidden = base

	clear(aligned, bytes)
	return unsafe.Pointer(aligned), true
}

// Vfree reads the hidden base pointer stored just before ptr and frees it.
func (s *System) Vfree(ptr unsafe.Pointer, bytes, alignment int64) {
	if ptr == nil {
		return
	}
	word := uintptr(unsafe.Sizeof(uintptr(0)))
	hidden := (*uintptr)(unsafe.Pointer(uintptr(ptr) - word))
	C.free(unsafe.Pointer(*hidden))
}

func roundupPtr(n, m uintptr) uintptr {
	return (n + m - 1) &^ (m - 1)
}

func clear(addr uintptr, n int64) {
	var dst []byte
	ptr := unsafe.Pointer(addr)
	dst = unsafe.Slice((*byte)(ptr), int(n))
	for i := range dst {
		dst[i] = 0
	}
}
