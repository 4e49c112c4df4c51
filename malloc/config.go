package malloc

import (
	"unsafe"

	s "github.com/prataprc/gosettings"
)

// Alignment is the minimum byte alignment guaranteed for every block;
// minblock/maxblock passed to Arena must be multiples of it.
const Alignment = int64(8)

// WordSize is the pointer width of the target, used to round a requested
// block size up to machine-word alignment.
const WordSize = int64(unsafe.Sizeof(uintptr(0)))

// MEMUtilization is the target ratio between memory usefully handed to
// the application and memory actually sourced from the OS.
const MEMUtilization = float64(0.95)

// DefaultPageSize is the OS allocation granularity assumed when no PAL
// override is supplied.
const DefaultPageSize = int64(16 * 1024)

// DefaultChunkAlignment is the Windows VirtualAlloc2 granularity and the
// default alignment PAL is asked to honor for small-geometry chunks.
const DefaultChunkAlignment = int64(64 * 1024)

// DefaultHugeThreshold is the block size at or above which an Allocator
// switches to the whole-chunk (one block per chunk) geometry.
const DefaultHugeThreshold = int64(2 * 1024 * 1024)

// Maxarenasize is a nominal capacity figure for a single Arena; nothing
// in the package enforces it.
const Maxarenasize = int64(1024 * 1024 * 1024 * 1024) // 1 TiB

// Maxpools is the default maximum number of size classes allowed in an
// Arena.
const Maxpools = int64(512)

// Maxchunks is a nominal limit on chunks per Allocator; Reserve and
// Acquire do not consult it.
const Maxchunks = int64(65536)

// Defaultsettings returns the baseline Arena configuration covering block
// sizes from minblock through maxblock.
//
// "minblock" (int64)
//		Smallest block size the Arena will route to its own size class.
//
// "maxblock" (int64)
//		Largest block size the Arena will route to its own size class.
//
// "chunkalignment" (int64, default: 64KiB)
//		Alignment requested from PAL for small-geometry chunks.
//
// "hugethreshold" (int64, default: 2MiB)
//		Block size at which an Allocator switches to whole-chunk geometry.
//
// "pagesize" (int64, default: 16KiB)
//		OS allocation granularity passed down to PAL.
func Defaultsettings(minblock, maxblock int64) s.Settings {
	if minblock > maxblock {
		panicerr("minblock(%v) > maxblock(%v)", minblock, maxblock)
	}
	return s.Settings{
		"minblock":       minblock,
		"maxblock":       maxblock,
		"chunkalignment": DefaultChunkAlignment,
		"hugethreshold":  DefaultHugeThreshold,
		"pagesize":       DefaultPageSize,
	}
}
