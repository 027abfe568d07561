// Package hostmem supplies the real, GC-opaque address range a
// BuddyAllocator needs. The core treats [start, end) as a given: in a
// real kernel it would be physical RAM discovered at boot; here it is an
// anonymous mapping obtained via mmap, exactly the kind of raw memory the
// buddy package's in-place BlockVec pointer arithmetic requires — these
// addresses must never move or be scanned by the Go garbage collector,
// so they cannot come from ordinary make([]byte, n).
package hostmem

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"
)

// Region is a single anonymous memory mapping usable as the backing store
// for a buddy.BuddyAllocator.
type Region struct {
	data []byte
}

// Map reserves size bytes of anonymous, read-write memory outside the Go
// heap. The kernel maps whole host pages, but the Region's Len and Bounds
// cover exactly the size bytes requested.
func Map(size int) (*Region, error) {
	if size <= 0 {
		return nil, fmt.Errorf("hostmem: size must be positive, got %d", size)
	}
	data, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil, fmt.Errorf("hostmem: mmap: %w", err)
	}
	return &Region{data: data}, nil
}

// Unmap releases the mapping. The Region must not be used afterward.
func (r *Region) Unmap() error {
	if err := unix.Munmap(r.data); err != nil {
		return fmt.Errorf("hostmem: munmap: %w", err)
	}
	return nil
}

// Bounds returns the [start, end) address range suitable for
// buddy.New(start, end, pageSize, numClasses).
func (r *Region) Bounds() (start, end uintptr) {
	start = uintptr(unsafe.Pointer(&r.data[0]))
	return start, start + uintptr(len(r.data))
}

// Len returns the size of the mapping in bytes.
func (r *Region) Len() int {
	return len(r.data)
}

// Bytes exposes the mapping's raw bytes, e.g. for a test to poke at a
// region's contents. Callers must not retain the slice past Unmap.
func (r *Region) Bytes() []byte {
	return r.data
}
