package main

import (
	"flag"
	"fmt"

	hm "github.com/dustin/go-humanize"

	"github.com/blocksmith/slabmem/malloc"
)

var options struct {
	minblock int64
	maxblock int64
	reserve  int64
	pretty   bool
	verbose  bool
}

func argParse() {
	flag.Int64Var(&options.minblock, "minblock", 32,
		"minimum block size routed to its own size class")
	flag.Int64Var(&options.maxblock, "maxblock", 1024*1024,
		"maximum block size routed to its own size class")
	flag.Int64Var(&options.reserve, "reserve", 0,
		"blocks to Reserve per size class before reporting utilization")
	flag.BoolVar(&options.pretty, "pretty", true,
		"pretty-print the stats JSON")
	flag.BoolVar(&options.verbose, "v", false,
		"enable arena/allocator logging")
	flag.Parse()
}

func main() {
	argParse()
	if options.verbose {
		malloc.LogComponents("all")
	}

	config := malloc.DefaultArenaSettings(options.minblock, options.maxblock)
	arena := malloc.NewArena(config)
	defer arena.Release()

	sizes := arena.Slabs()
	fmt.Printf("%v size classes spanning %v..%v\n", len(sizes),
		hm.Bytes(uint64(options.minblock)), hm.Bytes(uint64(options.maxblock)))

	if options.reserve > 0 {
		arena.Reserve(options.reserve)
	}

	tellutilization(arena)
	fmt.Println(arena.StatsJSON(options.pretty))
}

func tellutilization(arena *malloc.Arena) {
	sizes, ratios := arena.Utilization()
	for i, size := range sizes {
		fmt.Printf("size %-10v util %.2f%%\n", hm.Bytes(uint64(size)), ratios[i])
	}
	capacity, heap, alloc, overhead := arena.Info()
	fmt.Printf("capacity %v heap %v alloc %v overhead %v\n",
		hm.Bytes(uint64(capacity)), hm.Bytes(uint64(heap)),
		hm.Bytes(uint64(alloc)), hm.Bytes(uint64(overhead)))
}
