// Package bitmap implements the compact occupancy index used by one slab
// chunk: a flat array of 64-bit words where bit i records whether block i
// is live. Every operation touches at most O(len(words)) words and is
// branch-light by design, since it sits on the hot path of every acquire
// and release.
package bitmap
