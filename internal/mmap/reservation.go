package mmap

import (
	"fmt"
	"os"
	"sync/atomic"
)

// Reservation is a range of reserved address space.
// It owns the underlying byte slice and is responsible for releasing it.
type Reservation struct {
	data   []byte
	size   int
	closed atomic.Bool
}

// PageSize returns the operating system page size.
func PageSize() int {
	return os.Getpagesize()
}

// Reserve claims size bytes of address space without committing any pages.
// The size is rounded up to a whole number of pages.
func Reserve(size int) (*Reservation, error) {
	if size <= 0 {
		return nil, ErrInvalidSize
	}

	page := PageSize()
	size = (size + page - 1) &^ (page - 1)

	data, err := osReserve(size)
	if err != nil {
		return nil, fmt.Errorf("%w: %d bytes: %w", ErrReserve, size, err)
	}

	return &Reservation{data: data, size: size}, nil
}

// Commit binds physical pages to [off, off+n). The range is widened to page
// boundaries. Committing an already committed page is harmless.
func (r *Reservation) Commit(off, n int) error {
	if r.closed.Load() {
		return ErrClosed
	}
	if n == 0 {
		return nil
	}
	if off < 0 || n < 0 || off+n > r.size {
		return fmt.Errorf("%w: commit [%d,%d) of %d", ErrOutOfBounds, off, off+n, r.size)
	}

	page := PageSize()
	lo := off &^ (page - 1)
	hi := (off + n + page - 1) &^ (page - 1)
	if hi > r.size {
		hi = r.size
	}

	if err := osCommit(r.data[lo:hi]); err != nil {
		return fmt.Errorf("%w: [%d,%d): %w", ErrCommit, lo, hi, err)
	}
	return nil
}

// Bytes returns the full reserved range.
// Warning: only committed sub-ranges may be touched; the slice is valid only
// until Close is called.
func (r *Reservation) Bytes() []byte {
	if r.closed.Load() {
		return nil
	}
	return r.data
}

// Size returns the size of the reservation in bytes.
func (r *Reservation) Size() int {
	return r.size
}

// Advise provides hints to the kernel about how [off, off+n) will be accessed.
func (r *Reservation) Advise(off, n int, pattern AccessPattern) error {
	if r.closed.Load() {
		return ErrClosed
	}
	if off < 0 || n < 0 || off+n > r.size {
		return ErrOutOfBounds
	}
	return osAdvise(r.data[off:off+n], pattern)
}

// Close releases the whole reservation. It is idempotent.
func (r *Reservation) Close() error {
	if r.closed.Swap(true) {
		return nil
	}
	return osRelease(r.data)
}
