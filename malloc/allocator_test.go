package malloc

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/require"

	"github.com/blocksmith/slabmem/pal"
)

func TestSmallChunkFillDrain(t *testing.T) {
	mock := pal.NewMock()
	a := New(64, DefaultHugeThreshold, DefaultChunkAlignment, mock)

	seen := make(map[unsafe.Pointer]bool)
	var ptrs []unsafe.Pointer
	for i := int64(0); i < a.g.count; i++ {
		ptr := a.Acquire()
		require.NotNil(t, ptr)
		require.False(t, seen[ptr], "duplicate pointer returned")
		seen[ptr] = true
		ptrs = append(ptrs, ptr)
	}
	require.Equal(t, int(a.g.count), len(ptrs))
	require.Equal(t, 1, mock.Calls())

	// one more acquire must trigger a second PAL call.
	extra := a.Acquire()
	require.NotNil(t, extra)
	require.Equal(t, 2, mock.Calls())
	a.Release(extra)

	for _, ptr := range ptrs {
		a.Release(ptr)
	}
	require.Equal(t, 1, a.full.count())
	require.Equal(t, 0, a.empty.count())
	require.Equal(t, 0, a.partial.count())
}

func TestAlignmentRoundUp(t *testing.T) {
	mock := pal.NewMock()
	a := New(12, DefaultHugeThreshold, DefaultChunkAlignment, mock)
	require.Equal(t, int64(16), a.Block())

	p1 := a.Acquire()
	p2 := a.Acquire()
	require.NotNil(t, p1)
	require.NotNil(t, p2)
	require.Equal(t, int64(16), int64(uintptr(p2)-uintptr(p1)))
}

func TestWholeChunkPath(t *testing.T) {
	mock := pal.NewMock()
	a := New(4*1024*1024, DefaultHugeThreshold, DefaultChunkAlignment, mock)
	require.True(t, a.g.whole)

	p1 := a.Acquire()
	require.NotNil(t, p1)
	calls := mock.Calls()

	a.Release(p1)
	p2 := a.Acquire()
	require.Equal(t, p1, p2)
	require.Equal(t, calls, mock.Calls(), "reacquiring a freed whole chunk must not call PAL")
}

func TestStateMachineTriangulation(t *testing.T) {
	mock := pal.NewMock()
	// force a tiny geometry: hugeThreshold huge so this stays small-path,
	// but pick a block size that yields a small COUNT by using a large
	// chunkalignment relative to the block so COUNT lands near 4-ish is
	// impractical through the public constructor; instead drive the
	// state machine at whatever COUNT this geometry produces and verify
	// the same transitions the spec enumerates for COUNT==4.
	a := New(8192, DefaultHugeThreshold, DefaultChunkAlignment, mock)
	count := int(a.g.count)
	require.True(t, count >= 4)

	var ptrs []unsafe.Pointer
	for i := 0; i < count; i++ {
		ptrs = append(ptrs, a.Acquire())
	}
	require.Nil(t, a.current)
	require.Equal(t, 1, a.empty.count())
	require.Equal(t, 0, a.partial.count())

	a.Release(ptrs[0])
	require.Equal(t, 0, a.empty.count())
	require.Equal(t, 1, a.partial.count())

	for i := 1; i < count-1; i++ {
		a.Release(ptrs[i])
	}
	require.Equal(t, 1, a.partial.count())

	a.Release(ptrs[count-1])
	require.Equal(t, 0, a.partial.count())
	require.Equal(t, 1, a.full.count())
}

func TestPALFailureSurfacesCleanly(t *testing.T) {
	mock := pal.NewMock()
	mock.FailNext = 1
	a := New(64, DefaultHugeThreshold, DefaultChunkAlignment, mock)

	require.Nil(t, a.Acquire())
	mock.FailNext = 0
	require.NotNil(t, a.Acquire())
}

func TestReserveThenAcquireMakesNoPALCalls(t *testing.T) {
	mock := pal.NewMock()
	a := New(64, DefaultHugeThreshold, DefaultChunkAlignment, mock)

	added := a.Reserve(10)
	require.True(t, added >= 10)
	calls := mock.Calls()

	for i := int64(0); i < added; i++ {
		require.NotNil(t, a.Acquire())
	}
	require.Equal(t, calls, mock.Calls())
}

func TestShrinkFreesOnlyFullChunks(t *testing.T) {
	mock := pal.NewMock()
	a := New(64, DefaultHugeThreshold, DefaultChunkAlignment, mock)

	var ptrs []unsafe.Pointer
	for i := 0; i < int(a.g.count); i++ {
		ptrs = append(ptrs, a.Acquire())
	}
	for _, ptr := range ptrs {
		a.Release(ptr)
	}
	require.Equal(t, 1, a.full.count())

	n := a.Shrink()
	require.Equal(t, int64(1), n)
	require.Equal(t, 0, a.full.count())
	require.Equal(t, int64(0), a.Usable())
}

func TestShrinkFreesWholeChunks(t *testing.T) {
	mock := pal.NewMock()
	a := New(4*1024*1024, DefaultHugeThreshold, DefaultChunkAlignment, mock)
	require.True(t, a.g.whole)

	var ptrs []unsafe.Pointer
	for i := 0; i < 3; i++ {
		ptrs = append(ptrs, a.Acquire())
	}
	for _, ptr := range ptrs {
		a.Release(ptr)
	}
	require.Equal(t, 3, len(a.wholeFree))
	require.Equal(t, 3, mock.Live())

	n := a.Shrink()
	require.Equal(t, int64(3), n)
	require.Equal(t, 0, len(a.wholeFree))
	require.Equal(t, 0, mock.Live())
}

func TestCloseDrainsEmptyAllocator(t *testing.T) {
	mock := pal.NewMock()
	a := New(64, DefaultHugeThreshold, DefaultChunkAlignment, mock)
	ptr := a.Acquire()
	a.Release(ptr)
	a.Close()
	require.Equal(t, 0, mock.Live())
}
