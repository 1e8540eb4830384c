// Package codec centralizes snapshot payload compression.
//
// Broadphase treats codec selection as a format boundary: the codec ID is
// stored in every snapshot header, and a snapshot can only be decoded by the
// codec that wrote it.
package codec

import (
	"errors"
	"fmt"
)

// ErrUnknownCodec is returned for codec names or IDs that are not built in.
var ErrUnknownCodec = errors.New("codec: unknown codec")

// ErrCorruptBlock is returned when a block does not decode to its declared size.
var ErrCorruptBlock = errors.New("codec: corrupt block")

// Codec compresses and decompresses byte blocks.
// Implementations must be safe for concurrent use.
type Codec interface {
	// Compress appends the compressed form of src to dst.
	Compress(dst, src []byte) ([]byte, error)
	// Decompress appends the decompressed form of src to dst. size is the
	// exact decompressed length.
	Decompress(dst, src []byte, size int) ([]byte, error)
	// Name returns the stable name used in configuration.
	Name() string
	// ID returns the stable identifier stored in snapshot headers.
	ID() uint8
}

// Stable codec identifiers.
const (
	IDNone uint8 = 0
	IDLZ4  uint8 = 1
	IDZstd uint8 = 2
)

// Default is the codec used when none is configured.
var Default Codec = LZ4{}

// ByName returns a built-in codec by its stable name.
func ByName(name string) (Codec, error) {
	switch name {
	case "none", "":
		return None{}, nil
	case "lz4":
		return LZ4{}, nil
	case "zstd":
		return Zstd{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownCodec, name)
	}
}

// ByID returns a built-in codec by the identifier stored in a header.
func ByID(id uint8) (Codec, error) {
	switch id {
	case IDNone:
		return None{}, nil
	case IDLZ4:
		return LZ4{}, nil
	case IDZstd:
		return Zstd{}, nil
	default:
		return nil, fmt.Errorf("%w: id %d", ErrUnknownCodec, id)
	}
}

// None stores blocks as is.
type None struct{}

// Compress appends src to dst.
func (None) Compress(dst, src []byte) ([]byte, error) { return append(dst, src...), nil }

// Decompress appends src to dst.
func (None) Decompress(dst, src []byte, size int) ([]byte, error) {
	if len(src) != size {
		return nil, fmt.Errorf("%w: %d bytes, expected %d", ErrCorruptBlock, len(src), size)
	}
	return append(dst, src...), nil
}

// Name returns "none".
func (None) Name() string { return "none" }

// ID returns IDNone.
func (None) ID() uint8 { return IDNone }
