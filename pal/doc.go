// Package pal is the platform allocation layer: it obtains virtual-memory
// regions directly from the operating system, aligned to a caller-supplied
// power-of-two boundary, and returns them later. Nothing above this layer
// should call mmap, VirtualAlloc or malloc directly.
//
// PAL is deliberately thin. It does not track what it hands out; the caller
// (the malloc package) is responsible for remembering bytes/alignment pairs
// and presenting them back unchanged to Vfree.
package pal
