package buddy

// SkipList is the address-ordered free-list for a single buddy size
// class. Its nodes are BlockVecs placed in-place at the head of the free
// regions they describe; only the head sentinel lives outside the
// managed region, in the head table reserved by BuddyAllocator.Init.
//
// A SkipList is not safe for concurrent use — see the package doc and
// spec §5: the host serializes every call into the allocator.
type SkipList struct {
	head      BlockVec
	blockSize uintptr
}

// newSkipList places a height-levels head BlockVec at headAddr and
// returns the free-list for blockSize-sized regions.
func newSkipList(headAddr, blockSize uintptr, levels int) SkipList {
	return SkipList{
		head:      Place(headAddr, levels),
		blockSize: blockSize,
	}
}

// levelCount returns the configured height L of this list.
func (sl *SkipList) levelCount() int {
	return sl.head.Levels()
}

// Insert places a fresh node for the free region at addr, whose ordinal
// among blocks of this class is blockIndex, and splices it into every
// level chain it participates in. The node's height is the deterministic
// function of blockIndex described in spec §3 invariant 2.
//
// Insert does not check for an existing node at addr; callers never
// double-insert a region because a region is only ever free in one list
// at a time (spec invariant 1).
func (sl *SkipList) Insert(addr uintptr, blockIndex uint64) {
	height := sl.levelCount()
	nodeLevels := nodeLevelFor(blockIndex, height)
	node := Place(addr, nodeLevels)

	current := sl.head
	for level := height - 1; level >= 0; level-- {
		next := current.Forward(level)
		for !next.IsNil() && next.Addr() < addr {
			current = next
			next = current.Forward(level)
		}
		if level < nodeLevels {
			node.SetForward(level, next)
			current.SetForward(level, node)
		}
	}
}

// Pop removes and returns the lowest-address node in the list. The
// returned BlockVec is detached from every level it occupied; its
// storage (including the bytes that were its forward pointers) belongs
// to the caller from this point on. Pop reports false on an empty list.
func (sl *SkipList) Pop() (BlockVec, bool) {
	first := sl.head.Forward(0)
	if first.IsNil() {
		return BlockVec{}, false
	}
	levels := first.Levels()
	for level := 0; level < levels; level++ {
		sl.head.SetForward(level, first.Forward(level))
	}
	return first, true
}

// remove splices target out of every level it occupies, via one top-down
// walk from the head that carries its predecessor cursor down from each
// level to the next — the standard skip-list deletion walk.
func (sl *SkipList) remove(target BlockVec) {
	height := sl.levelCount()
	targetLevels := target.Levels()
	current := sl.head
	for level := height - 1; level >= 0; level-- {
		next := current.Forward(level)
		for !next.IsNil() && next.Addr() < target.Addr() {
			current = next
			next = current.Forward(level)
		}
		if level < targetLevels && !next.IsNil() && next.Addr() == target.Addr() {
			current.SetForward(level, next.Forward(level))
		}
	}
}

// RemoveAlignedPair looks for a run of 2^Δ consecutive, level-0-adjacent
// free blocks in this list — where Δ = log2(targetSize) − log2(blockSize)
// — whose base block index is a multiple of 2^Δ (so the run is naturally
// aligned to targetSize), removes every block in the run, and returns the
// run's base address. Δ == 1 is the classic buddy-pair case named in
// spec §4.2; larger Δ is the "generalized" coalesce the allocator falls
// back to when an intermediate class never formed the pair (spec §4.3
// step 4), because coalescing here is lazy rather than eager.
//
// blockIndexOf maps an address in this class back to its block index.
// RemoveAlignedPair reports false if no such run exists.
func (sl *SkipList) RemoveAlignedPair(targetSize uintptr, blockIndexOf func(addr uintptr) uint64) (uintptr, bool) {
	delta := floorLog2(uint64(targetSize)) - floorLog2(uint64(sl.blockSize))
	if delta <= 0 {
		return 0, false
	}
	run := uint64(1) << uint(delta)

	node := sl.head.Forward(0)
	for !node.IsNil() {
		if blockIndexOf(node.Addr())%run == 0 {
			if members, ok := sl.collectRun(node, run); ok {
				base := node.Addr()
				for _, m := range members {
					sl.remove(m)
				}
				return base, true
			}
		}
		node = node.Forward(0)
	}
	return 0, false
}

// collectRun walks forward from first on level 0, requiring each
// successive node's address to be exactly one blockSize past the last —
// i.e. that the whole run is physically contiguous and free, not merely
// present somewhere further down the chain.
func (sl *SkipList) collectRun(first BlockVec, run uint64) ([]BlockVec, bool) {
	members := make([]BlockVec, 1, run)
	members[0] = first
	cursor := first
	for i := uint64(1); i < run; i++ {
		next := cursor.Forward(0)
		if next.IsNil() || next.Addr() != cursor.Addr()+sl.blockSize {
			return nil, false
		}
		members = append(members, next)
		cursor = next
	}
	return members, true
}

// Len walks the level-0 chain and counts its nodes. It exists for
// diagnostics and tests; the allocator's hot paths never need a count.
func (sl *SkipList) Len() int {
	n := 0
	for node := sl.head.Forward(0); !node.IsNil(); node = node.Forward(0) {
		n++
	}
	return n
}

// IsEmpty reports whether the list has no free regions.
func (sl *SkipList) IsEmpty() bool {
	return sl.head.Forward(0).IsNil()
}

// Walk calls fn with the address of every node on the given level, in
// ascending order, stopping early if fn returns false. It is read-only
// and used by package diag to build introspection reports without
// exposing BlockVec outside this package.
func (sl *SkipList) Walk(level int, fn func(addr uintptr) bool) {
	for node := sl.head.Forward(level); !node.IsNil(); node = node.Forward(level) {
		if !fn(node.Addr()) {
			return
		}
	}
}
