package buddy

import "errors"

// Sentinel errors returned by the public operations. Compare with
// errors.Is; none of these wrap further context, since the allocator's
// state is unchanged on every error return and there is nothing more to
// report than the kind of failure.
var (
	// ErrMisaligned is returned when a request's alignment exceeds the
	// allocator's page size, or when a FreePages address is not aligned
	// to the size class it claims.
	ErrMisaligned = errors.New("buddy: misaligned request")

	// ErrOutOfMemory is returned when no free region satisfies a request
	// after the fast, coalesce-up, and split-down paths are exhausted.
	ErrOutOfMemory = errors.New("buddy: out of memory")

	// ErrNullPointer is returned when FreePages is called with a zero
	// address.
	ErrNullPointer = errors.New("buddy: null pointer")

	// ErrIllegalAddr is returned when a FreePages address falls outside
	// the managed [free_start, end_addr) range.
	ErrIllegalAddr = errors.New("buddy: address outside managed range")

	// ErrInvalidLayout is returned by NewLayout when size or align is
	// zero, or align is not a power of two.
	ErrInvalidLayout = errors.New("buddy: invalid layout")
)
