package codec

import (
	"fmt"

	"github.com/pierrec/lz4/v4"
)

// LZ4 is LZ4 block compression: fast, moderate ratio.
type LZ4 struct{}

// Compress appends the LZ4 block for src to dst.
// Incompressible input yields an empty block.
func (LZ4) Compress(dst, src []byte) ([]byte, error) {
	start := len(dst)
	dst = grow(dst, lz4.CompressBlockBound(len(src)))

	n, err := lz4.CompressBlock(src, dst[start:cap(dst)], nil)
	if err != nil {
		return nil, fmt.Errorf("codec: lz4 compress: %w", err)
	}
	return dst[:start+n], nil
}

// Decompress appends the decoded block to dst.
func (LZ4) Decompress(dst, src []byte, size int) ([]byte, error) {
	start := len(dst)
	dst = grow(dst, size)

	n, err := lz4.UncompressBlock(src, dst[start:start+size])
	if err != nil {
		return nil, fmt.Errorf("%w: lz4: %w", ErrCorruptBlock, err)
	}
	if n != size {
		return nil, fmt.Errorf("%w: lz4 decoded %d bytes, expected %d", ErrCorruptBlock, n, size)
	}
	return dst[:start+n], nil
}

// Name returns "lz4".
func (LZ4) Name() string { return "lz4" }

// ID returns IDLZ4.
func (LZ4) ID() uint8 { return IDLZ4 }

// grow makes room for n more bytes after len(dst).
func grow(dst []byte, n int) []byte {
	if cap(dst)-len(dst) >= n {
		return dst
	}
	out := make([]byte, len(dst), len(dst)+n)
	copy(out, dst)
	return out
}
