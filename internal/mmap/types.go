package mmap

import "errors"

// AccessPattern provides hints to the kernel about how the data will be accessed.
type AccessPattern int

const (
	// AccessDefault is the default access pattern (no specific advice).
	AccessDefault AccessPattern = iota
	// AccessSequential expects data to be accessed sequentially.
	AccessSequential
	// AccessRandom expects data to be accessed randomly.
	AccessRandom
	// AccessWillNeed expects data to be accessed in the near future.
	AccessWillNeed
	// AccessDontNeed expects data to not be accessed in the near future.
	AccessDontNeed
)

var (
	// ErrClosed is returned when attempting to use a released reservation.
	ErrClosed = errors.New("mmap: reservation is closed")
	// ErrInvalidSize is returned when the requested reservation size is not positive.
	ErrInvalidSize = errors.New("mmap: invalid size")
	// ErrOutOfBounds is returned when a commit range lies outside the reservation.
	ErrOutOfBounds = errors.New("mmap: out of bounds")
	// ErrReserve is returned when the operating system refuses a reservation.
	ErrReserve = errors.New("mmap: reserve failed")
	// ErrCommit is returned when the operating system refuses to commit pages.
	ErrCommit = errors.New("mmap: commit failed")
)
