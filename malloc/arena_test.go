package malloc

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestArenaRoutesToSizeClass(t *testing.T) {
	config := Defaultsettings(32, 4096)
	arena := NewArena(config)

	ptr := arena.Alloc(100)
	require.NotNil(t, ptr)

	size := arena.Slabsize(ptr)
	require.True(t, size >= 100)

	arena.Free(ptr)
	arena.Release()
}

func TestArenaAllocslabBypassesSearch(t *testing.T) {
	config := Defaultsettings(32, 4096)
	arena := NewArena(config)

	sizes := arena.Slabs()
	require.NotEmpty(t, sizes)

	ptr := arena.Allocslab(sizes[0])
	require.NotNil(t, ptr)
	arena.Free(ptr)
	arena.Release()
}

func TestArenaUtilizationReportsRatios(t *testing.T) {
	config := Defaultsettings(32, 4096)
	arena := NewArena(config)

	for i := 0; i < 10; i++ {
		arena.Alloc(100)
	}
	sizes, ratios := arena.Utilization()
	require.Equal(t, len(sizes), len(ratios))

	arena.Release()
}

func TestArenaReservePrewarmsEverySizeClass(t *testing.T) {
	config := Defaultsettings(32, 4096)
	arena := NewArena(config)
	defer arena.Release()

	arena.Reserve(4)
	for _, size := range arena.Slabs() {
		require.True(t, arena.allocatorFor(size).Usable() >= 4)
	}
}

func TestArenaAllocExceedingMaxblockPanics(t *testing.T) {
	config := Defaultsettings(32, 4096)
	arena := NewArena(config)
	defer func() {
		require.NotNil(t, recover())
	}()
	arena.Alloc(1 << 20)
}
