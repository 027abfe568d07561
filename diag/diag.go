// Package diag provides read-only introspection for a buddy.BuddyAllocator:
// per-class free-region counts and a gather-write snapshot of every free
// address, built on golang.org/x/sys/unix.Pwritev in the same vectored-I/O
// style the teacher package uses to flush a sorted skip list to disk.
//
// Nothing here mutates allocator state; diag is strictly for debugging a
// running allocator, not for the allocator's own persisted state — it has
// none (spec §6).
package diag

import (
	"encoding/binary"
	"fmt"

	"golang.org/x/sys/unix"
)

// Allocator is the subset of *buddy.BuddyAllocator that diag needs. Taking
// an interface rather than the concrete type lets Summarize and DumpToFD
// run against any implementation, such as a test fake;
// *buddy.BuddyAllocator satisfies it as-is.
type Allocator interface {
	NumClasses() int
	ClassBlockSize(i int) uintptr
	ClassLen(i int) int
	WalkClass(i int, fn func(addr uintptr) bool)
	TotalSize() uintptr
	FreeSize() uintptr
	AllocatedSize() uintptr
}

// ClassReport summarizes one size class's free-list.
type ClassReport struct {
	BlockSize uintptr
	FreeCount int
	FreeBytes uintptr
}

// Report summarizes every size class plus the allocator's overall
// byte accounting.
type Report struct {
	TotalSize     uintptr
	FreeSize      uintptr
	AllocatedSize uintptr
	Classes       []ClassReport
}

// Summarize walks every free-list once and builds a Report. It never
// mutates the allocator.
func Summarize(a Allocator) Report {
	rep := Report{
		TotalSize:     a.TotalSize(),
		FreeSize:      a.FreeSize(),
		AllocatedSize: a.AllocatedSize(),
		Classes:       make([]ClassReport, a.NumClasses()),
	}
	for i := 0; i < a.NumClasses(); i++ {
		blockSize := a.ClassBlockSize(i)
		count := a.ClassLen(i)
		rep.Classes[i] = ClassReport{
			BlockSize: blockSize,
			FreeCount: count,
			FreeBytes: blockSize * uintptr(count),
		}
	}
	return rep
}

// DumpToFD gather-writes a snapshot of every free address, grouped by
// class, to fd via Pwritev: one 8-byte little-endian address per free
// region, classes in ascending block-size order. It is meant for offline
// inspection (e.g. diffing two snapshots across a test run), not for
// restoring allocator state — FreePages never reads this format back.
func DumpToFD(a Allocator, fd int) (int, error) {
	var buffers [][]byte
	for i := 0; i < a.NumClasses(); i++ {
		a.WalkClass(i, func(addr uintptr) bool {
			buf := make([]byte, 8)
			binary.LittleEndian.PutUint64(buf, uint64(addr))
			buffers = append(buffers, buf)
			return true
		})
	}
	if len(buffers) == 0 {
		return 0, nil
	}
	n, err := unix.Pwritev(fd, buffers, 0)
	if err != nil {
		return n, fmt.Errorf("diag: pwritev: %w", err)
	}
	return n, nil
}
