package malloc

import "errors"

// ErrOutOfMemory is never returned directly. It documents the condition
// under which Acquire returns a nil pointer: PAL could not source a new
// chunk and no owned chunk has free capacity. Callers check for a nil
// pointer, not this error; nothing in the package returns or logs it.
var ErrOutOfMemory = errors.New("malloc: out of memory")

// ErrForeignChunk is the contract violation raised when Release is
// called with a pointer whose chunk belongs to a different Allocator.
var ErrForeignChunk = errors.New("malloc: release of foreign chunk")

// ErrDoubleFree is raised when Release targets a block whose occupancy
// bit is already clear. Acquire also raises it when current's bitmap has
// no clear bit left, an invariant breach.
var ErrDoubleFree = errors.New("malloc: double free")

// ErrBusyDestroy is raised when Close is called on an Allocator that
// still has live blocks outstanding.
var ErrBusyDestroy = errors.New("malloc: close of allocator with outstanding blocks")

// FatalError wraps a contract violation or invariant breach. In debug
// builds fatal() panics with one of these so tests can recover() and
// assert on Err; in production builds fatal() routes the same error
// through AbortHook instead.
type FatalError struct {
	Err   error
	Stack string
}

func (e *FatalError) Error() string {
	return e.Err.Error()
}

func (e *FatalError) Unwrap() error {
	return e.Err
}
