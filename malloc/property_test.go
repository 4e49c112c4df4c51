package malloc

import (
	"math/rand"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/require"

	"github.com/blocksmith/slabmem/pal"
)

// TestInterleavedAcquireReleaseInvariants drives a random sequence of
// Acquire/Release calls, never double-freeing or releasing a foreign
// pointer, and checks at every quiescent point that counter equals the
// sum of free blocks across every owned chunk, and that no two
// concurrently-live pointers are ever equal.
func TestInterleavedAcquireReleaseInvariants(t *testing.T) {
	mock := pal.NewMock()
	a := New(48, DefaultHugeThreshold, DefaultChunkAlignment, mock)
	rng := rand.New(rand.NewSource(7))

	live := make(map[unsafe.Pointer]bool)
	var liveList []unsafe.Pointer

	for step := 0; step < 20000; step++ {
		if len(liveList) == 0 || rng.Intn(2) == 0 {
			ptr := a.Acquire()
			require.NotNil(t, ptr)
			require.False(t, live[ptr], "pointer reused while still live")
			live[ptr] = true
			liveList = append(liveList, ptr)
		} else {
			i := rng.Intn(len(liveList))
			ptr := liveList[i]
			liveList[i] = liveList[len(liveList)-1]
			liveList = liveList[:len(liveList)-1]
			delete(live, ptr)
			a.Release(ptr)
		}
	}
	require.Equal(t, sumFreeBlocks(a), a.Usable())

	for _, ptr := range liveList {
		a.Release(ptr)
	}
	require.Equal(t, sumFreeBlocks(a), a.Usable())
}

func sumFreeBlocks(a *Allocator) int64 {
	total := int64(0)
	walk := func(d *depot) {
		for h := d.head; h != nil; h = h.next {
			total += a.g.count - h.used
		}
	}
	walk(&a.full)
	walk(&a.empty)
	walk(&a.partial)
	if a.current != nil {
		total += a.g.count - a.current.used
	}
	return total
}

// TestSmallGeometryBlockAlignment checks invariant #3: every live pointer
// sits at an exact BLOCK-sized offset from its chunk's data region.
func TestSmallGeometryBlockAlignment(t *testing.T) {
	mock := pal.NewMock()
	a := New(40, DefaultHugeThreshold, DefaultChunkAlignment, mock)

	for i := 0; i < int(a.g.count)*3; i++ {
		ptr := a.Acquire()
		require.NotNil(t, ptr)
		h := headerOf(ptr, a.g)
		off := (uintptr(ptr) - uintptr(unsafe.Pointer(h)) - uintptr(a.g.offset)) & uintptr(a.g.chunkSize-1)
		require.Equal(t, int64(0), int64(off)%a.g.block)
	}
}
