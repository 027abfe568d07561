package buddy

// BuddyAllocator is a single-threaded physical page allocator over the
// half-open range [start, end). It owns one SkipList per power-of-two
// size class, from pageSize up to pageSize<<(numClasses-1), and performs
// lazy coalescing at allocation time (see RemoveAlignedPair) rather than
// eagerly on free.
//
// No method here takes a lock; the host must serialize every call
// (spec §5).
type BuddyAllocator struct {
	freeLists []SkipList
	pageSize  uintptr
	startAddr uintptr
	endAddr   uintptr
	freeStart uintptr
	totalSize uintptr
	freeSize  uintptr
}

// New returns an allocator over [start, end) with the given page size and
// number of size classes. It panics if start/end are not page-aligned, if
// end <= start, or if pageSize is not itself a power of two.
//
// numClasses is the Go-native stand-in for the original core's
// const-generic BUDDY_POWER_NUM: Go has no integer const generics, so it
// is a constructor argument instead of a type parameter.
func New(start, end, pageSize uintptr, numClasses int) *BuddyAllocator {
	if pageSize == 0 || !isPow2(uint64(pageSize)) {
		panic("buddy: page size must be a power of two")
	}
	if numClasses <= 0 {
		panic("buddy: numClasses must be positive")
	}
	if start%pageSize != 0 || end%pageSize != 0 || end <= start {
		panic("buddy: start/end must be page-aligned with end > start")
	}
	return &BuddyAllocator{
		freeLists: make([]SkipList, numClasses),
		pageSize:  pageSize,
		startAddr: start,
		endAddr:   end,
		totalSize: end - start,
	}
}

// Init reserves the head table just above kernelEnd, computes free_start,
// initializes every class's SkipList, and inserts every page-sized region
// of [free_start, end) into class 0. It panics if the bounds are
// inconsistent (start <= kernelEnd < free_start < end must hold).
func (b *BuddyAllocator) Init(kernelEnd uintptr) {
	headerTableSize := uintptr(len(b.freeLists)) * blockVecSize
	freeStart := roundUp(kernelEnd+headerTableSize, b.pageSize)

	if !(b.startAddr <= kernelEnd && kernelEnd < freeStart && freeStart < b.endAddr) {
		panic("buddy: inconsistent init bounds")
	}
	b.freeStart = freeStart

	totalFreeBytes := uint64(b.endAddr - freeStart)
	for i := range b.freeLists {
		blockSize := b.pageSize << uint(i)
		classRegions := totalFreeBytes / uint64(blockSize)
		levels := 1
		if classRegions >= 2 {
			levels = floorLog2(classRegions)
		}
		if levels > MaxIndexLevel {
			levels = MaxIndexLevel
		}
		headAddr := kernelEnd + uintptr(i)*blockVecSize
		b.freeLists[i] = newSkipList(headAddr, blockSize, levels)
	}

	blockSize0 := b.freeLists[0].blockSize
	idx := uint64(0)
	for addr := freeStart; addr < b.endAddr; addr += blockSize0 {
		b.freeLists[0].Insert(addr, idx)
		idx++
	}
	b.freeSize = uintptr(b.endAddr - freeStart)
}

func (b *BuddyAllocator) minPower() int {
	return floorLog2(uint64(b.pageSize))
}

func (b *BuddyAllocator) blockIndex(addr, blockSize uintptr) uint64 {
	return uint64((addr - b.freeStart) / blockSize)
}

// AllocPages returns the base address of a region satisfying l, padding
// the request up to its (page-rounded) alignment and then to the next
// power-of-two size class. It tries, in order: the exact class's
// free-list, lazily coalescing a run from each smaller class, and
// splitting down from the smallest available larger class.
func (b *BuddyAllocator) AllocPages(l Layout) (uintptr, error) {
	if l.Align > b.pageSize {
		return 0, ErrMisaligned
	}
	align := b.pageSize

	padded := roundUp(l.Size, align)
	p := ceilLog2(uint64(padded))
	size := uintptr(1) << uint(p)
	classIdx := p - b.minPower()
	if classIdx < 0 || classIdx >= len(b.freeLists) {
		return 0, ErrOutOfMemory
	}

	if node, ok := b.freeLists[classIdx].Pop(); ok {
		b.freeSize -= size
		return node.Addr(), nil
	}

	for i := classIdx - 1; i >= 0; i-- {
		blockSize := b.freeLists[i].blockSize
		idxFn := func(addr uintptr) uint64 { return b.blockIndex(addr, blockSize) }
		if addr, ok := b.freeLists[i].RemoveAlignedPair(size, idxFn); ok {
			b.freeSize -= size
			return addr, nil
		}
	}

	for i := classIdx + 1; i < len(b.freeLists); i++ {
		node, ok := b.freeLists[i].Pop()
		if !ok {
			continue
		}
		addr := node.Addr()
		for j := i - 1; j >= classIdx; j-- {
			half := addr + b.freeLists[j].blockSize
			b.freeLists[j].Insert(half, b.blockIndex(half, b.freeLists[j].blockSize))
		}
		b.freeSize -= size
		return addr, nil
	}

	return 0, ErrOutOfMemory
}

// FreePages returns a previously allocated region to its class's
// free-list. If the request's size exceeds the largest class, the region
// is fragmented into largest-class pieces and each is inserted
// separately (spec §4.3 step 3, Open Question 4's corrected `<` bound).
//
// The alignment check below is relative to freeStart, not startAddr:
// every address AllocPages hands out is freeStart-relative, and
// startAddr-relative alignment would spuriously reject a legitimately
// allocated address whenever a class's block size exceeds the gap
// between startAddr and freeStart (see DESIGN.md).
func (b *BuddyAllocator) FreePages(addr uintptr, l Layout) error {
	if addr == 0 {
		return ErrNullPointer
	}
	if addr < b.freeStart || addr >= b.endAddr {
		return ErrIllegalAddr
	}
	if l.Align > b.pageSize {
		return ErrMisaligned
	}
	align := b.pageSize

	padded := roundUp(l.Size, align)
	p := ceilLog2(uint64(padded))
	size := uintptr(1) << uint(p)

	if (addr-b.freeStart)%size != 0 {
		return ErrMisaligned
	}

	classIdx := p - b.minPower()
	if classIdx >= 0 && classIdx < len(b.freeLists) {
		b.freeLists[classIdx].Insert(addr, b.blockIndex(addr, size))
	} else {
		maxClass := len(b.freeLists) - 1
		maxSize := b.freeLists[maxClass].blockSize
		for cur := addr; cur < addr+size; cur += maxSize {
			b.freeLists[maxClass].Insert(cur, b.blockIndex(cur, maxSize))
		}
	}

	b.freeSize += size
	return nil
}

// TotalSize returns end - start, fixed for the allocator's lifetime.
func (b *BuddyAllocator) TotalSize() uintptr { return b.totalSize }

// FreeSize returns the current sum of all reachable free region sizes.
func (b *BuddyAllocator) FreeSize() uintptr { return b.freeSize }

// AllocatedSize returns TotalSize - FreeSize.
func (b *BuddyAllocator) AllocatedSize() uintptr { return b.totalSize - b.freeSize }

// FreeStart returns the first address available for allocation, i.e. the
// first byte after the head table reserved by Init. It is exposed for
// package diag and for tests that need to reconstruct block indices.
func (b *BuddyAllocator) FreeStart() uintptr { return b.freeStart }

// PageSize returns the allocator's minimum block size.
func (b *BuddyAllocator) PageSize() uintptr { return b.pageSize }

// NumClasses returns the number of size classes the allocator manages.
func (b *BuddyAllocator) NumClasses() int { return len(b.freeLists) }

// ClassBlockSize returns the block size of size class i.
func (b *BuddyAllocator) ClassBlockSize(i int) uintptr { return b.freeLists[i].blockSize }

// ClassLen returns the number of free regions currently in size class i.
// It exists for diagnostics and tests.
func (b *BuddyAllocator) ClassLen(i int) int { return b.freeLists[i].Len() }

// WalkClass calls fn with the address of every free region in size class
// i, in ascending order. It exists for package diag.
func (b *BuddyAllocator) WalkClass(i int, fn func(addr uintptr) bool) {
	b.freeLists[i].Walk(0, fn)
}
