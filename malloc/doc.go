// Package malloc supplies a fixed-block slab allocator for in-memory data
// structures. Note that types and functions exported by this package are
// not thread safe.
//
// Allocator manages blocks of exactly one size, sourced from large
// virtual-memory chunks obtained through the pal package. Each chunk
// tracks which of its blocks are live with an embedded occupancy bitmap
// and moves between three lists (full, partial, empty) as blocks are
// acquired and released. A chunk's base address is aligned so that
// recovering its header from any live pointer is a single bitwise AND.
//
// Arena routes requests of varying size across many Allocators, one per
// size class, the way the earlier multi-pool drafts in this package did,
// but backed by the bitmap+chunk design instead of a hierarchical
// free-bits index.
package malloc

// TODO: Shrink only ever returns chunks from the full list (or, for
// whole-chunk geometry, the cached free list); there is no API yet to
// reclaim memory from an Allocator that has gone mostly idle but still
// has a handful of live blocks scattered across many partial chunks.
