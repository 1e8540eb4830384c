package codec

import (
	"encoding/binary"
	"fmt"
	"math"
)

// BlockHeaderSize is the size of the header in front of every block.
// Format: [UncompressedSize uint32][CompressedSize uint32][Data...]
// A CompressedSize of 0 means the data is stored uncompressed.
const BlockHeaderSize = 8

// EncodeBlock frames data as one block compressed with c. If compression
// does not save at least 10%, the block is stored uncompressed.
func EncodeBlock(c Codec, data []byte) ([]byte, error) {
	if uint64(len(data)) > math.MaxUint32 {
		return nil, fmt.Errorf("codec: block of %d bytes too large", len(data))
	}

	out := make([]byte, BlockHeaderSize, BlockHeaderSize+len(data))
	binary.LittleEndian.PutUint32(out[0:], uint32(len(data))) //nolint:gosec // checked above

	if c != nil && c.ID() != IDNone && len(data) > 0 {
		compressed, err := c.Compress(out, data)
		if err != nil {
			return nil, err
		}
		n := len(compressed) - BlockHeaderSize
		if n > 0 && float64(n) <= float64(len(data))*0.9 {
			binary.LittleEndian.PutUint32(compressed[4:], uint32(n)) //nolint:gosec // n < len(data)
			return compressed, nil
		}
		out = out[:BlockHeaderSize]
	}

	return append(out, data...), nil
}

// DecodeBlock reverses EncodeBlock and returns the remaining bytes after the
// block.
func DecodeBlock(c Codec, block []byte) (data, rest []byte, err error) {
	if len(block) < BlockHeaderSize {
		return nil, nil, fmt.Errorf("%w: %d bytes, header needs %d", ErrCorruptBlock, len(block), BlockHeaderSize)
	}

	size := uint64(binary.LittleEndian.Uint32(block[0:]))
	compressed := uint64(binary.LittleEndian.Uint32(block[4:]))
	body := block[BlockHeaderSize:]

	if compressed == 0 {
		if uint64(len(body)) < size {
			return nil, nil, fmt.Errorf("%w: raw block truncated", ErrCorruptBlock)
		}
		return body[:size], body[size:], nil
	}

	if uint64(len(body)) < compressed {
		return nil, nil, fmt.Errorf("%w: compressed block truncated", ErrCorruptBlock)
	}
	if c == nil {
		return nil, nil, fmt.Errorf("%w: compressed block without codec", ErrUnknownCodec)
	}

	out, err := c.Decompress(nil, body[:compressed], int(size))
	if err != nil {
		return nil, nil, err
	}
	return out, body[compressed:], nil
}
