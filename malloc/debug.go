// +build debug

package malloc

import (
	"runtime"
	"unsafe"

	"github.com/blocksmith/slabmem/lib"
)

// fatal on a debug build panics with a recoverable *FatalError instead of
// aborting the process, so tests can assert on the contract violation
// without killing the test binary.
func fatal(err error) {
	errorf("fatal: %v", err)
	buf := make([]byte, 4096)
	n := runtime.Stack(buf, false)
	panic(&FatalError{Err: err, Stack: lib.GetStacktrace(1, buf[:n])})
}

// assertEmptyOnClose enforces, in debug builds only, that a chunk being
// destroyed by Allocator.Close has no blocks still outstanding. Production
// builds skip this check entirely and just release the memory, per the
// destructor's documented release-build behavior.
func assertEmptyOnClose(used int64) {
	if used != 0 {
		fatal(ErrBusyDestroy)
	}
}

// poisonblock fills a released block with 0xff so a subsequent
// use-after-free shows up as garbage rather than silently-reused zeros.
func poisonblock(block uintptr, size int64) {
	dst := unsafe.Slice((*byte)(unsafe.Pointer(block)), int(size))
	for i := range dst {
		dst[i] = 0xff
	}
}
