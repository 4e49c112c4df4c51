// +build !debug

package malloc

import "os"

// AbortHook is invoked by fatal() in production builds instead of
// panicking. The default logs the error at error level (only when
// logging is enabled through LogComponents) and exits with status 2;
// tests override it to observe a would-be abort without killing the test
// binary.
var AbortHook = func(err error) {
	errorf("fatal: %v", err)
	os.Exit(2)
}

func fatal(err error) {
	AbortHook(err)
}

// assertEmptyOnClose is a no-op in production builds: the destructor
// simply releases memory regardless of outstanding blocks, matching the
// documented release-build destructor behavior.
func assertEmptyOnClose(used int64) {}

// poisonblock is a no-op in production builds: there is no debugging
// value in scribbling over memory the caller is about to stop using.
func poisonblock(block uintptr, size int64) {}
