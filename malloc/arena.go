package malloc

import (
	"sort"
	"unsafe"

	sigar "github.com/cloudfoundry/gosigar"
	hm "github.com/dustin/go-humanize"
	s "github.com/prataprc/gosettings"

	"github.com/blocksmith/slabmem/api"
	"github.com/blocksmith/slabmem/lib"
	"github.com/blocksmith/slabmem/pal"
)

// Arena routes allocation requests of varying size to one Allocator per
// size class, the way the source's Arena fans a request out across many
// same-size pools. Unlike the pools it replaces, each Allocator here uses
// the bitmap+chunk-depot design rather than a hierarchical free-bits
// index.
type Arena struct {
	blocksizes []int64
	allocators map[int64]*Allocator
	pal        pal.PAL
	stats      map[int64]*lib.AverageInt64

	minblock       int64
	maxblock       int64
	chunkalignment int64
	hugethreshold  int64
	pagesize       int64
}

// NewArena builds an Arena spanning config's "minblock".."maxblock",
// using config's "chunkalignment", "hugethreshold" and "pagesize" to
// parameterize every Allocator it creates.
func NewArena(config s.Settings) *Arena {
	minblock, maxblock := config.Int64("minblock"), config.Int64("maxblock")
	arena := &Arena{
		blocksizes: Blocksizes(minblock, maxblock),
		allocators: make(map[int64]*Allocator),
		pal:        pal.New(config.Int64("pagesize")),
		stats:      make(map[int64]*lib.AverageInt64),

		minblock:       minblock,
		maxblock:       maxblock,
		chunkalignment: config.Int64("chunkalignment"),
		hugethreshold:  config.Int64("hugethreshold"),
		pagesize:       config.Int64("pagesize"),
	}
	if int64(len(arena.blocksizes)) > Maxpools {
		panicerr("number of size classes in arena exceeds %v", Maxpools)
	}
	for _, size := range arena.blocksizes {
		arena.stats[size] = &lib.AverageInt64{}
	}
	_, _, free := getsysmem()
	infof("arena: %v size classes spanning %v..%v, %v system memory free",
		len(arena.blocksizes), hm.Bytes(uint64(minblock)),
		hm.Bytes(uint64(maxblock)), hm.Bytes(free))
	return arena
}

// DefaultArenaSettings sizes an Arena's block-size span from minblock to
// maxblock and leaves capacity-sensitive decisions (how many chunks to
// reserve upfront) to the caller, informed by currently-free system
// memory the way llrb/config.go's getsysmem feeds its own capacity
// defaults.
func DefaultArenaSettings(minblock, maxblock int64) s.Settings {
	return Defaultsettings(minblock, maxblock)
}

// getsysmem reports host memory the way the source repo's config helpers
// do, via gosigar. NewArena only logs the free figure; it does not size
// anything from it.
func getsysmem() (total, used, free uint64) {
	mem := sigar.Mem{}
	mem.Get()
	return mem.Total, mem.Used, mem.Free
}

func (arena *Arena) allocatorFor(size int64) *Allocator {
	a, ok := arena.allocators[size]
	if !ok {
		a = New(size, arena.hugethreshold, arena.chunkalignment, arena.pal)
		arena.allocators[size] = a
	}
	return a
}

// Slabs implements api.Mallocer.
func (arena *Arena) Slabs() []int64 {
	return arena.blocksizes
}

// Alloc implements api.Mallocer. It routes n to the smallest size class
// that can hold it and tracks the request against that class's running
// average for StatsJSON reporting.
func (arena *Arena) Alloc(n int64) unsafe.Pointer {
	if largest := arena.blocksizes[len(arena.blocksizes)-1]; n > largest {
		panicerr("Alloc size %v exceeds maxblock %v", n, largest)
	}
	size := SuitableSize(arena.blocksizes, n)
	arena.stats[size].Add(n)
	ptr := arena.allocatorFor(size).Acquire()
	if ptr == nil {
		warnf("arena: out of memory for size class %v", size)
	}
	return ptr
}

// Allocslab implements api.Mallocer: allocate directly from a known slab
// size, skipping the SuitableSize search.
func (arena *Arena) Allocslab(slab int64) unsafe.Pointer {
	return arena.allocatorFor(slab).Acquire()
}

// Reserve pre-warms every size class with at least n free blocks each,
// the way a caller that knows its working set up front can avoid paying
// for PAL calls during the request path.
func (arena *Arena) Reserve(n int64) {
	for _, size := range arena.blocksizes {
		arena.allocatorFor(size).Reserve(n)
	}
}

// Slabsize implements api.Mallocer.
func (arena *Arena) Slabsize(ptr unsafe.Pointer) int64 {
	for size, a := range arena.allocators {
		if a.owns(ptr) {
			return size
		}
	}
	panicerr("Slabsize: pointer not owned by this arena")
	return 0
}

// Chunklen implements api.Mallocer.
func (arena *Arena) Chunklen(ptr unsafe.Pointer) int64 {
	return arena.Slabsize(ptr)
}

// Free implements api.Mallocer.
func (arena *Arena) Free(ptr unsafe.Pointer) {
	size := arena.Slabsize(ptr)
	arena.allocators[size].Release(ptr)
}

// Release implements api.Mallocer: close every size class's Allocator.
func (arena *Arena) Release() {
	for _, a := range arena.allocators {
		a.Close()
	}
	arena.allocators = nil
}

// Info implements api.Mallocer.
func (arena *Arena) Info() (capacity, heap, alloc, overhead int64) {
	for size, a := range arena.allocators {
		cap := a.Capacity()
		used := cap - a.Usable()
		heap += a.Usable() * size
		alloc += used * size
	}
	capacity = heap + alloc
	overhead = int64(len(arena.allocators)) * headerSize
	return
}

// Utilization implements api.Mallocer.
func (arena *Arena) Utilization() ([]int, []float64) {
	sizes := make([]int, 0, len(arena.blocksizes))
	for _, size := range arena.blocksizes {
		sizes = append(sizes, int(size))
	}
	sort.Ints(sizes)

	ratios := make([]float64, 0, len(sizes))
	for _, size := range sizes {
		a, ok := arena.allocators[int64(size)]
		if !ok {
			ratios = append(ratios, 0)
			continue
		}
		total := a.Capacity()
		if total == 0 {
			ratios = append(ratios, 0)
			continue
		}
		used := total - a.Usable()
		ratios = append(ratios, (float64(used)/float64(total))*100)
	}
	return sizes, ratios
}

// String renders a human-readable summary, the way tools/llrb/main.go and
// tools/pools/main.go format stats with go-humanize.
func (arena *Arena) String() string {
	capacity, heap, alloc, overhead := arena.Info()
	return "capacity=" + hm.Bytes(uint64(capacity)) +
		" heap=" + hm.Bytes(uint64(heap)) +
		" alloc=" + hm.Bytes(uint64(alloc)) +
		" overhead=" + hm.Bytes(uint64(overhead))
}

// StatsJSON renders the running request-size distribution and internal
// fragmentation per size class as JSON, the way tools/pools/main.go
// dumps lib.AverageInt64 samples for operators inspecting pool behavior.
func (arena *Arena) StatsJSON(pretty bool) string {
	out := make(map[string]interface{}, len(arena.stats))
	for size, av := range arena.stats {
		out[hm.Bytes(uint64(size))] = av.Stats(size)
	}
	return lib.Prettystats(out, pretty)
}

var _ api.Mallocer = (*Arena)(nil)
