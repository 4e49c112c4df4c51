package malloc

import (
	"unsafe"

	"github.com/blocksmith/slabmem/bitmap"
)

// chunkHeader sits at byte 0 of every small-geometry chunk, so that
// masking a live pointer down to its CHUNK_SIZE-aligned chunk base and
// reinterpreting that address as *chunkHeader recovers the header with a
// single bitwise AND. Header recovery never consults the Allocator's
// chunks registry, which serves ownership checks only.
type chunkHeader struct {
	used  int64
	outer *Allocator
	next  *chunkHeader
	prev  *chunkHeader
}

var headerSize = int64(unsafe.Sizeof(chunkHeader{}))

// geometry captures the derived layout constants for one block size,
// computed once in New and cached on the Allocator. It follows the
// identity 8*(CHUNK_SIZE - sizeof(header)) = COUNT*(8*BLOCK + 1) + R:
// COUNT is the largest integer such that header + bitmap + padding +
// BLOCK*COUNT fits inside CHUNK_SIZE.
type geometry struct {
	block     int64 // BLOCK: requested size rounded up to word alignment
	chunkSize int64 // CHUNK_SIZE: power-of-two chunk extent (small only)
	count     int64 // COUNT: blocks per chunk (small only)
	offset    int64 // OFFSET: byte offset from chunk base to block 0
	whole     bool  // true when this size class uses the whole-chunk path
}

func computeGeometry(n, hugeThreshold, chunkAlignment int64) geometry {
	block := align(n, WordSize)
	if block >= hugeThreshold {
		return geometry{block: block, whole: true}
	}

	chunkSize := nextpow2(15 * block)
	if chunkSize < chunkAlignment {
		chunkSize = chunkAlignment
	}

	for {
		avail := chunkSize - headerSize
		count := (avail * 8) / (block*8 + 1)
		bitmapBytes := align(((count+63)/64)*8, WordSize)
		offset := align(headerSize+bitmapBytes, block)
		if count > 0 && offset+block*count <= chunkSize {
			return geometry{
				block:     block,
				chunkSize: chunkSize,
				count:     count,
				offset:    offset,
			}
		}
		chunkSize *= 2
	}
}

func align(n, a int64) int64 {
	return (n + a - 1) &^ (a - 1)
}

func nextpow2(n int64) int64 {
	p := int64(1)
	for p < n {
		p <<= 1
	}
	return p
}

// bitsOf returns a view over the occupancy bitmap embedded just after h's
// header, for the geometry g that created h.
func bitsOf(h *chunkHeader, g geometry) bitmap.Bitmap {
	base := unsafe.Add(unsafe.Pointer(h), headerSize)
	return bitmap.View(base, int(g.count))
}

// dataOf returns the address of block i inside the chunk headed by h.
func dataOf(h *chunkHeader, g geometry, i int64) unsafe.Pointer {
	base := uintptr(unsafe.Pointer(h)) + uintptr(g.offset) + uintptr(i*g.block)
	return unsafe.Pointer(base)
}

// headerOf recovers a chunk's header from a live pointer by masking down
// to the CHUNK_SIZE-aligned chunk base.
func headerOf(ptr unsafe.Pointer, g geometry) *chunkHeader {
	addr := uintptr(ptr) &^ uintptr(g.chunkSize-1)
	return (*chunkHeader)(unsafe.Pointer(addr))
}

// indexOf computes the block index of ptr inside its chunk.
func indexOf(ptr unsafe.Pointer, h *chunkHeader, g geometry) int64 {
	chunkBase := uintptr(unsafe.Pointer(h))
	off := (uintptr(ptr) - chunkBase - uintptr(g.offset)) & uintptr(g.chunkSize-1)
	return int64(off) / g.block
}

// depot is a doubly-linked chunk list: push onto the front, pop from the
// front, remove from anywhere. This mirrors the source allocator's Depot
// and, like it, stores no length counter on the hot path. count() exists
// only for tests and stats and is O(n).
type depot struct {
	head *chunkHeader
}

func (d *depot) push(h *chunkHeader) {
	h.prev = nil
	h.next = d.head
	if d.head != nil {
		d.head.prev = h
	}
	d.head = h
}

func (d *depot) pop() *chunkHeader {
	out := d.head
	if out != nil {
		d.head = out.next
		out.next = nil
		out.prev = nil
	}
	return out
}

func (d *depot) remove(h *chunkHeader) {
	prev, next := h.prev, h.next
	if prev != nil {
		prev.next = next
	}
	if next != nil {
		next.prev = prev
	}
	if d.head == h {
		d.head = next
	}
	h.next, h.prev = nil, nil
}

func (d *depot) empty() bool {
	return d.head == nil
}

func (d *depot) count() int {
	n := 0
	for h := d.head; h != nil; h = h.next {
		n++
	}
	return n
}
