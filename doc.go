// Package buddy implements a physical page allocator for bare-metal and
// kernel-style hosts: a set of power-of-two buddy free-lists, each an
// address-ordered skip list whose nodes are stored in-place inside the
// free regions they describe.
//
// The allocator does not allocate any memory of its own beyond the small
// fixed-size head table reserved by Init; every other byte of bookkeeping
// lives inside the free regions it manages. It assumes a single-threaded
// or externally-serialized caller: no operation here takes an internal
// lock.
package buddy
