//go:build !unix && !windows

package mmap

// Platforms without virtual memory control get an eagerly zeroed heap
// slice; commit and advise are no-ops.

func osReserve(size int) ([]byte, error) {
	return make([]byte, size), nil
}

func osCommit([]byte) error { return nil }

func osRelease([]byte) error { return nil }

func osAdvise([]byte, AccessPattern) error { return nil }
