//go:build unix

package mmap

import (
	"golang.org/x/sys/unix"
)

func osReserve(size int) ([]byte, error) {
	// PROT_NONE pages are not charged against the commit limit until they
	// are made writable.
	return unix.Mmap(-1, 0, size, unix.PROT_NONE, unix.MAP_ANON|unix.MAP_PRIVATE|reserveFlags)
}

func osCommit(data []byte) error {
	if len(data) == 0 {
		return nil
	}
	return unix.Mprotect(data, unix.PROT_READ|unix.PROT_WRITE)
}

func osRelease(data []byte) error {
	if len(data) == 0 {
		return nil
	}
	err := unix.Munmap(data)
	if err == unix.EINVAL {
		// Treat double-unmap as no-op for callers.
		return nil
	}
	return err
}

func osAdvise(data []byte, pattern AccessPattern) error {
	if len(data) == 0 {
		return nil
	}

	var advice int
	switch pattern {
	case AccessSequential:
		advice = unix.MADV_SEQUENTIAL
	case AccessRandom:
		advice = unix.MADV_RANDOM
	case AccessWillNeed:
		advice = unix.MADV_WILLNEED
	case AccessDontNeed:
		advice = unix.MADV_DONTNEED
	default:
		advice = unix.MADV_NORMAL
	}

	// madvise requires page-aligned addresses. The hint is advisory, so an
	// unaligned sub-range silently succeeds.
	err := unix.Madvise(data, advice)
	if err == unix.EINVAL {
		return nil
	}
	return err
}
