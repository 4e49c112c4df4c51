package malloc

import (
	"unsafe"

	"github.com/blocksmith/slabmem/pal"
)

// Allocator is a fixed-block slab pool for one size class. It is not
// thread safe by contract. Callers that need cross-thread sharing wrap
// one instance behind their own spin-lock/mutex pair; neither Allocator
// nor Arena does any locking.
type Allocator struct {
	g   geometry
	p   pal.PAL
	full    depot // chunks whose used == 0 (no blocks handed out)
	empty   depot // chunks whose used == COUNT (every block handed out)
	partial depot // chunks with 0 < used < COUNT
	current *chunkHeader

	counter int64 // free blocks across every owned chunk and current

	// chunks records every small-geometry chunk base this Allocator owns,
	// so ownership can be checked (Arena.Slabsize) without dereferencing
	// memory that might belong to a different size class entirely.
	chunks map[uintptr]bool

	// whole-chunk bookkeeping: one block per chunk, no embedded header.
	wholeFree []unsafe.Pointer
	wholeOut  map[unsafe.Pointer]bool
}

// New constructs an Allocator for blocks of n bytes. hugeThreshold and
// chunkAlignment come from the owning Arena's configuration (or the
// package defaults when used standalone); p is the PAL to source chunks
// from.
func New(n, hugeThreshold, chunkAlignment int64, p pal.PAL) *Allocator {
	if p == nil {
		p = pal.New(0)
	}
	g := computeGeometry(n, hugeThreshold, chunkAlignment)
	a := &Allocator{g: g, p: p}
	if g.whole {
		a.wholeOut = make(map[unsafe.Pointer]bool)
	} else {
		a.chunks = make(map[uintptr]bool)
	}
	return a
}

// Block returns the rounded block size this Allocator services.
func (a *Allocator) Block() int64 {
	return a.g.block
}

// Usable returns counter: the number of free blocks across every chunk
// this Allocator owns, including current.
func (a *Allocator) Usable() int64 {
	return a.counter
}

// Acquire returns a pointer to Block() bytes of writable memory, or nil
// if PAL could not source a new chunk and no existing chunk has free
// capacity.
func (a *Allocator) Acquire() unsafe.Pointer {
	if a.g.whole {
		return a.acquireWhole()
	}
	return a.acquireSmall()
}

func (a *Allocator) acquireSmall() unsafe.Pointer {
	if a.current == nil {
		a.current = a.full.pop()
		if a.current == nil {
			a.current = a.partial.pop()
		}
		if a.current == nil {
			a.current = a.generate()
		}
		if a.current == nil {
			return nil
		}
	}

	bits := bitsOf(a.current, a.g)
	i := bits.FirstZero()
	if i < 0 {
		// Impossible while current is detached and not full; an
		// invariant breach, not resource exhaustion.
		fatal(ErrDoubleFree)
		return nil
	}
	bits.Set(i)
	out := dataOf(a.current, a.g, int64(i))

	a.current.used++
	if a.current.used == a.g.count {
		a.empty.push(a.current)
		a.current = nil
	}
	a.counter--
	return out
}

func (a *Allocator) acquireWhole() unsafe.Pointer {
	if n := len(a.wholeFree); n > 0 {
		ptr := a.wholeFree[n-1]
		a.wholeFree = a.wholeFree[:n-1]
		a.wholeOut[ptr] = true
		a.counter--
		return ptr
	}
	ptr, ok := a.p.Valloc(a.g.block, wholeChunkAlign)
	if !ok {
		return nil
	}
	a.wholeOut[ptr] = true
	return ptr
}

// wholeChunkAlign is the page alignment whole-geometry chunks are sourced
// with; large blocks don't need CHUNK_SIZE masking since the allocator
// tracks them by identity in wholeOut instead of header back-reference.
const wholeChunkAlign = int64(16 * 1024)

// Release returns ptr, previously produced by Acquire on this same
// Allocator, to the pool. Releasing a foreign pointer or double-freeing a
// block is a fatal contract violation.
func (a *Allocator) Release(ptr unsafe.Pointer) {
	if ptr == nil {
		return
	}
	if a.g.whole {
		a.releaseWhole(ptr)
		return
	}
	a.releaseSmall(ptr)
}

func (a *Allocator) releaseSmall(ptr unsafe.Pointer) {
	h := headerOf(ptr, a.g)
	if h.outer != a {
		fatal(ErrForeignChunk)
		return
	}
	i := indexOf(ptr, h, a.g)
	bits := bitsOf(h, a.g)
	if !bits.Test(int(i)) {
		fatal(ErrDoubleFree)
		return
	}
	bits.Clear(int(i))
	poisonblock(uintptr(ptr), a.g.block)

	if h != a.current {
		if h.used == a.g.count {
			a.empty.remove(h)
			a.partial.push(h)
		} else if h.used == 1 {
			a.partial.remove(h)
			a.full.push(h)
		}
	}
	h.used--
	a.counter++
}

func (a *Allocator) releaseWhole(ptr unsafe.Pointer) {
	if !a.wholeOut[ptr] {
		fatal(ErrForeignChunk)
		return
	}
	delete(a.wholeOut, ptr)
	poisonblock(uintptr(ptr), a.g.block)
	a.wholeFree = append(a.wholeFree, ptr)
	a.counter++
}

// Reserve ensures at least n blocks of free capacity, calling PAL as
// needed, and returns the number of blocks actually added. It rounds the
// missing block count up to a whole number of chunks before generating,
// stopping early only if PAL fails.
func (a *Allocator) Reserve(n int64) int64 {
	if n <= 0 || a.counter >= n {
		return 0
	}
	if a.g.whole {
		return a.reserveWhole(n)
	}

	need := n - a.counter
	chunks := (need + a.g.count - 1) / a.g.count

	var generated int64
	for i := int64(0); i < chunks; i++ {
		h := a.generate()
		if h == nil {
			return generated * a.g.count
		}
		a.full.push(h)
		generated++
	}
	return generated * a.g.count
}

func (a *Allocator) reserveWhole(n int64) int64 {
	var generated int64
	for a.counter < n {
		ptr, ok := a.p.Valloc(a.g.block, wholeChunkAlign)
		if !ok {
			return generated
		}
		a.wholeFree = append(a.wholeFree, ptr)
		a.counter++
		generated++
	}
	return generated
}

// Shrink returns every fully-free chunk (the full list) to the OS and
// reports how many chunks were destroyed. It never touches partial,
// empty, or current.
func (a *Allocator) Shrink() int64 {
	if a.g.whole {
		return a.shrinkWhole()
	}
	var n int64
	for h := a.full.pop(); h != nil; h = a.full.pop() {
		a.destroy(h)
		n++
	}
	return n
}

// shrinkWhole returns every cached whole-chunk block in wholeFree (this
// geometry's "full" list) back to PAL, the same chunks Close drains when
// the Allocator is torn down.
func (a *Allocator) shrinkWhole() int64 {
	n := int64(len(a.wholeFree))
	for _, ptr := range a.wholeFree {
		a.p.Vfree(ptr, a.g.block, wholeChunkAlign)
	}
	a.wholeFree = a.wholeFree[:0]
	a.counter -= n
	return n
}

// Close drains every chunk source (full, empty, partial, current) back to
// PAL. Closing an Allocator with blocks still outstanding anywhere is a
// fatal condition in debug builds; production builds release the memory
// regardless.
func (a *Allocator) Close() {
	if a.g.whole {
		if len(a.wholeOut) != 0 {
			assertEmptyOnClose(int64(len(a.wholeOut)))
		}
		for _, ptr := range a.wholeFree {
			a.p.Vfree(ptr, a.g.block, wholeChunkAlign)
		}
		a.wholeFree, a.wholeOut = nil, nil
		return
	}

	lists := []*depot{&a.full, &a.empty, &a.partial}
	for _, d := range lists {
		for h := d.pop(); h != nil; h = d.pop() {
			assertEmptyOnClose(h.used)
			a.destroy(h)
		}
	}
	if a.current != nil {
		assertEmptyOnClose(a.current.used)
		a.destroy(a.current)
		a.current = nil
	}
}

func (a *Allocator) generate() *chunkHeader {
	region, ok := a.p.Valloc(a.g.chunkSize, a.g.chunkSize)
	if !ok {
		return nil
	}
	h := (*chunkHeader)(region)
	*h = chunkHeader{outer: a}
	a.counter += a.g.count
	a.chunks[uintptr(region)] = true
	return h
}

func (a *Allocator) destroy(h *chunkHeader) {
	delete(a.chunks, uintptr(unsafe.Pointer(h)))
	a.p.Vfree(unsafe.Pointer(h), a.g.chunkSize, a.g.chunkSize)
	a.counter -= a.g.count
}

// Capacity returns the total number of blocks owned by this Allocator
// across every chunk it holds, including current.
func (a *Allocator) Capacity() int64 {
	if a.g.whole {
		return int64(len(a.wholeOut) + len(a.wholeFree))
	}
	chunks := int64(a.full.count() + a.empty.count() + a.partial.count())
	if a.current != nil {
		chunks++
	}
	return chunks * a.g.count
}

// owns reports whether ptr falls inside a chunk this Allocator owns,
// checked against the chunk registry rather than by dereferencing
// memory that might belong to an entirely different size class.
func (a *Allocator) owns(ptr unsafe.Pointer) bool {
	if a.g.whole {
		return a.wholeOut[ptr]
	}
	addr := uintptr(ptr) &^ uintptr(a.g.chunkSize-1)
	return a.chunks[addr]
}
