package pal

import "unsafe"

// PAL is the platform allocation layer contract consumed by the malloc
// package. A production PAL is backed by the OS; tests inject a Mock to
// force resource-exhaustion paths without touching real memory.
type PAL interface {
	// Valloc reserves and commits bytes rounded up to a page multiple,
	// returning a pointer whose address is a multiple of alignment.
	// Returned memory is zero-filled. Returns ok==false on failure; it
	// never panics for out-of-memory.
	Valloc(bytes, alignment int64) (ptr unsafe.Pointer, ok bool)

	// Vfree releases a region previously returned by Valloc. bytes and
	// alignment must match the original Valloc call exactly. Calling
	// Vfree twice on the same pointer, or on a pointer never returned by
	// Valloc, is undefined.
	Vfree(ptr unsafe.Pointer, bytes, alignment int64)

	// Pause hints the CPU that the caller is spinning. No observable
	// effect on program state.
	Pause()
}
