package malloc

import "fmt"

// SuitableSize routes a request of size bytes to the smallest configured
// size class that can hold it, via binary search over the sorted
// blocksizes list. Arena.Alloc calls this to pick which Allocator a
// request belongs to before handing it off.
func SuitableSize(blocksizes []int64, size int64) int64 {
	for {
		switch len(blocksizes) {
		case 1:
			return blocksizes[0]

		case 2:
			if size <= blocksizes[0] {
				return blocksizes[0]
			} else if size <= blocksizes[1] {
				return blocksizes[1]
			}
			panicerr("size %v greater than configured maxblock %v", size, blocksizes[1])

		default:
			mid := len(blocksizes) / 2
			if blocksizes[mid] < size {
				blocksizes = blocksizes[mid+1:]
			} else {
				blocksizes = blocksizes[0 : mid+1]
			}
		}
	}
}

// Blocksizes lays out the geometric progression of size classes an
// Arena will span, from minblock up to maxblock. Each class is derived
// from the previous one by nextSizeClass; the last class is always
// maxblock.
func Blocksizes(minblock, maxblock int64) []int64 {
	if maxblock < minblock {
		panicerr("minblock(%v) > maxblock(%v)", minblock, maxblock)
	} else if (minblock % Alignment) != 0 {
		panicerr("minblock %v is not a multiple of %v", minblock, Alignment)
	} else if (maxblock % Alignment) != 0 {
		panicerr("maxblock %v is not a multiple of %v", maxblock, Alignment)
	}

	sizes := make([]int64, 0, 64)
	for size := minblock; size < maxblock; {
		sizes = append(sizes, size)
		size = nextSizeClass(size)
	}
	sizes = append(sizes, maxblock)
	return sizes
}

// nextSizeClass computes the next size class after from. The step is
// (1-MEMUtilization) of from, at least 32 bytes and otherwise rounded
// down to a multiple of 32; it is added repeatedly until the midpoint
// between from and the new size, as a fraction of the new size, is no
// longer above MEMUtilization.
func nextSizeClass(from int64) int64 {
	step := int64(float64(from) * (1.0 - MEMUtilization))
	if step <= 32 {
		step = 32
	} else if step&0x1f != 0 {
		step = (step >> 5) << 5
	}
	size := from + step
	for (float64(from+size)/2.0)/float64(size) > MEMUtilization {
		size += step
	}
	return size
}

func panicerr(fmsg string, args ...interface{}) {
	panic(fmt.Errorf(fmsg, args...))
}
