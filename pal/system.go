package pal

import "runtime"

// DefaultPageSize is the OS page allocation granularity assumed when the
// caller's alignment request is smaller than a page.
const DefaultPageSize = int64(16 * 1024)

// System is the production PAL, backed by the host operating system.
// Construction is cheap; System carries no allocation-tracking state of
// its own, only the page size. The Windows backend's lazily-resolved
// function pointer is package-level state, not part of System.
type System struct {
	pagesize int64
}

// New returns a production PAL. pagesize overrides the platform's default
// allocation granularity; pass 0 to accept DefaultPageSize.
func New(pagesize int64) *System {
	if pagesize <= 0 {
		pagesize = DefaultPageSize
	}
	return &System{pagesize: pagesize}
}

// Pause yields the current goroutine's time-slice. Go schedules goroutines
// cooperatively, so this is the closest equivalent to a CPU PAUSE
// instruction available without assembly: it lets the runtime make
// progress on whatever the spinning goroutine is waiting for.
func (s *System) Pause() {
	runtime.Gosched()
}

// roundup rounds n up to the next multiple of m, where m is a power of
// two.
func roundup(n, m int64) int64 {
	return (n + m - 1) &^ (m - 1)
}

// overflows reports whether bytes+2*alignment would overflow a signed
// 64-bit accumulator, the overflow guard required before any backend
// attempts the over-allocate-then-trim dance.
func overflows(bytes, alignment int64) bool {
	const maxint64 = int64(1<<63 - 1)
	return bytes > maxint64-2*alignment
}

func (s *System) normalize(bytes, alignment int64) (int64, int64, bool) {
	if alignment <= 0 {
		alignment = s.pagesize
	}
	if alignment < s.pagesize {
		alignment = s.pagesize
	}
	if overflows(bytes, alignment) {
		return 0, 0, false
	}
	return roundup(bytes, s.pagesize), alignment, true
}
