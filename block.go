package buddy

import "unsafe"

// MaxIndexLevel bounds how many forward pointers a single BlockVec may
// carry, whether it is a free region's in-place node or a free-list's
// head sentinel. It mirrors the host's const generic from the original
// buddy_allocator core this module is adapted from.
const MaxIndexLevel = 30

// blockVecLayout is the raw, in-place memory layout of a BlockVec: a
// fixed-size array of forward addresses plus the node's configured
// height. It overlays the first bytes of a free region, or lives in the
// small head table reserved by Init. Every field is a plain uintptr, not
// an unsafe.Pointer, so the Go garbage collector never scans this memory
// as a set of live pointers — required because the backing storage is an
// mmap'd region outside the GC heap (see package hostmem) and because a
// node's storage is only "live" as a BlockVec while its region is listed.
type blockVecLayout struct {
	forward [MaxIndexLevel]uintptr
	levels  uintptr
}

var blockVecSize = unsafe.Sizeof(blockVecLayout{})

// BlockVec is a handle to an in-place skip-list node at a given address.
// It carries no state of its own beyond the address; all reads and writes
// go through the memory at that address. The zero value is the nil
// BlockVec.
type BlockVec struct {
	addr uintptr
}

// Place writes a fresh BlockVec at addr with all forward pointers nil and
// returns a handle to it. levels must be in [1, MaxIndexLevel].
func Place(addr uintptr, levels int) BlockVec {
	if levels < 1 || levels > MaxIndexLevel {
		panic("buddy: BlockVec level out of range")
	}
	bv := BlockVec{addr: addr}
	raw := bv.raw()
	raw.forward = [MaxIndexLevel]uintptr{}
	raw.levels = uintptr(levels)
	return bv
}

// FromAddr returns a handle to the BlockVec already present at addr,
// without touching its contents. Passing 0 yields the nil BlockVec.
func FromAddr(addr uintptr) BlockVec {
	return BlockVec{addr: addr}
}

// Addr returns the node's address, or 0 for the nil BlockVec.
func (b BlockVec) Addr() uintptr {
	return b.addr
}

// IsNil reports whether b is the nil BlockVec (a null forward pointer).
func (b BlockVec) IsNil() bool {
	return b.addr == 0
}

func (b BlockVec) raw() *blockVecLayout {
	return (*blockVecLayout)(unsafe.Pointer(b.addr)) //nolint:govet
}

// Levels returns the number of forward pointers this node carries.
// Calling Levels on the nil BlockVec panics.
func (b BlockVec) Levels() int {
	return int(b.raw().levels)
}

// Forward returns forward[level], or the nil BlockVec if that slot is
// null. It panics if level >= b.Levels(), per the BlockVec contract in
// §4.1: every read is either nil or a valid node with levels >= level+1.
func (b BlockVec) Forward(level int) BlockVec {
	raw := b.raw()
	if level < 0 || uintptr(level) >= raw.levels {
		panic("buddy: BlockVec forward level out of range")
	}
	return BlockVec{addr: raw.forward[level]}
}

// SetForward overwrites forward[level] with target's address (or null, if
// target is the nil BlockVec). It panics if level >= b.Levels().
func (b BlockVec) SetForward(level int, target BlockVec) {
	raw := b.raw()
	if level < 0 || uintptr(level) >= raw.levels {
		panic("buddy: BlockVec forward level out of range")
	}
	raw.forward[level] = target.addr
}
