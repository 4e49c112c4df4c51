//go:build windows && !palcgo
// +build windows,!palcgo

package pal

import (
	"sync"
	"syscall"
	"unsafe"
)

const (
	memCommit     = 0x1000
	memReserve    = 0x2000
	memRelease    = 0x8000
	pageReadwrite = 0x0004

	memExtendedParameterAddressRequirements = 1
)

type memAddressRequirements struct {
	LowestStartingAddress uintptr
	HighestEndingAddress  uintptr
	Alignment             uintptr
}

type memExtendedParameter struct {
	Type    uint64
	Pointer uintptr
}

// resolver caches the one-time lookup of VirtualAlloc2, the extended
// virtual-alloc entry point that accepts an explicit alignment. Older
// Windows builds lack kernelbase!VirtualAlloc2; the lookup is attempted
// once, lazily, and the result (present or absent) is memoized forever.
var resolver struct {
	once      sync.Once
	alloc2    *syscall.LazyProc
	haveAlloc2 bool
}

func resolveAlloc2() {
	resolver.once.Do(func() {
		dll := syscall.NewLazyDLL("kernelbase.dll")
		proc := dll.NewProc("VirtualAlloc2")
		if err := proc.Find(); err == nil {
			resolver.alloc2 = proc
			resolver.haveAlloc2 = true
		}
	})
}

var (
	modkernel32      = syscall.NewLazyDLL("kernel32.dll")
	procVirtualAlloc = modkernel32.NewProc("VirtualAlloc")
	procVirtualFree  = modkernel32.NewProc("VirtualFree")
	procVirtualQuery = modkernel32.NewProc("VirtualQuery")
)

// Valloc prefers VirtualAlloc2 with an explicit MEM_ADDRESS_REQUIREMENTS
// alignment. If that entry point is unavailable, it falls back to
// reserving bytes+alignment with plain VirtualAlloc, rounding the base up
// to alignment, then committing only the aligned range; the surrounding
// reservation is released later by recovering its base through
// VirtualQuery.
func (s *System) Valloc(bytes, alignment int64) (unsafe.Pointer, bool) {
	bytes, alignment, ok := s.normalize(bytes, alignment)
	if !ok {
		return nil, false
	}

	resolveAlloc2()
	if resolver.haveAlloc2 {
		if ptr, ok := s.valloc2(bytes, alignment); ok {
			return ptr, true
		}
	}
	return s.vallocFallback(bytes, alignment)
}

func (s *System) valloc2(bytes, alignment int64) (unsafe.Pointer, bool) {
	var reqs memAddressRequirements
	reqs.Alignment = uintptr(alignment)

	var param memExtendedParameter
	param.Type = memExtendedParameterAddressRequirements
	param.Pointer = uintptr(unsafe.Pointer(&reqs))

	addr, _, _ := resolver.alloc2.Call(
		0, 0, uintptr(bytes),
		memCommit|memReserve, pageReadwrite,
		uintptr(unsafe.Pointer(&param)), 1,
	)
	if addr == 0 {
		return nil, false
	}
	return unsafe.Pointer(addr), true
}

func (s *System) vallocFallback(bytes, alignment int64) (unsafe.Pointer, bool) {
	total := bytes + alignment
	addr, _, _ := procVirtualAlloc.Call(0, uintptr(total), memReserve, pageReadwrite)
	if addr == 0 {
		return nil, false
	}
	aligned := roundupPtr(addr, uintptr(alignment))

	committed, _, _ := procVirtualAlloc.Call(aligned, uintptr(bytes), memCommit, pageReadwrite)
	if committed == 0 {
		procVirtualFree.Call(addr, 0, memRelease)
		return nil, false
	}
	return unsafe.Pointer(committed), true
}

type memoryBasicInformation struct {
	BaseAddress       uintptr
	AllocationBase    uintptr
	AllocationProtect uint32
	PartitionID       uint16
	RegionSize        uintptr
	State             uint32
	Protect           uint32
	Type              uint32
}

// Vfree releases the whole reservation backing ptr. When ptr came from
// the fallback path it may not equal the reservation base, so VirtualQuery
// is used to recover AllocationBase before calling VirtualFree with
// MEM_RELEASE, which only accepts a reservation's original base address.
func (s *System) Vfree(ptr unsafe.Pointer, bytes, alignment int64) {
	if ptr == nil {
		return
	}
	var info memoryBasicInformation
	procVirtualQuery.Call(uintptr(ptr), uintptr(unsafe.Pointer(&info)), unsafe.Sizeof(info))
	base := info.AllocationBase
	if base == 0 {
		base = uintptr(ptr)
	}
	procVirtualFree.Call(base, 0, memRelease)
}

func roundupPtr(n, m uintptr) uintptr {
	return (n + m - 1) &^ (m - 1)
}
