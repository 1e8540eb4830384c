package persistence

import (
	"errors"
	"fmt"

	"github.com/hupe1980/broadphase/internal/hash"
)

// Snapshot payloads are checksummed with CRC32C before compression. The
// checksum catches accidental corruption only, not tampering.

// ComputeChecksum computes the CRC32C checksum of data.
func ComputeChecksum(data []byte) uint32 {
	return hash.CRC32C(data)
}

// VerifyChecksum returns a *ChecksumMismatchError unless data hashes to
// expected.
func VerifyChecksum(data []byte, expected uint32) error {
	if actual := ComputeChecksum(data); actual != expected {
		return &ChecksumMismatchError{Expected: expected, Actual: actual}
	}
	return nil
}

// ChecksumMismatchError reports a payload whose checksum differs from the
// one recorded in its header.
type ChecksumMismatchError struct {
	Expected uint32
	Actual   uint32
}

func (e *ChecksumMismatchError) Error() string {
	return fmt.Sprintf("persistence: checksum mismatch: header 0x%08x, payload 0x%08x", e.Expected, e.Actual)
}

// Unwrap makes checksum failures match ErrCorruptSnapshot.
func (e *ChecksumMismatchError) Unwrap() error {
	return ErrCorruptSnapshot
}

// IsChecksumMismatch reports whether err wraps a *ChecksumMismatchError.
func IsChecksumMismatch(err error) bool {
	var target *ChecksumMismatchError
	return errors.As(err, &target)
}
