package codec

import (
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"
)

var (
	zstdEncoderPool sync.Pool
	zstdDecoderPool sync.Pool
)

func getZstdEncoder() (*zstd.Encoder, error) {
	if v := zstdEncoderPool.Get(); v != nil {
		return v.(*zstd.Encoder), nil
	}
	return zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
}

func getZstdDecoder() (*zstd.Decoder, error) {
	if v := zstdDecoderPool.Get(); v != nil {
		return v.(*zstd.Decoder), nil
	}
	return zstd.NewReader(nil)
}

// Zstd is zstd compression: slower than LZ4, better ratio for cold snapshots.
type Zstd struct{}

// Compress appends the zstd frame for src to dst.
func (Zstd) Compress(dst, src []byte) ([]byte, error) {
	enc, err := getZstdEncoder()
	if err != nil {
		return nil, fmt.Errorf("codec: zstd encoder: %w", err)
	}
	defer zstdEncoderPool.Put(enc)

	return enc.EncodeAll(src, dst), nil
}

// Decompress appends the decoded frame to dst.
func (Zstd) Decompress(dst, src []byte, size int) ([]byte, error) {
	dec, err := getZstdDecoder()
	if err != nil {
		return nil, fmt.Errorf("codec: zstd decoder: %w", err)
	}
	defer zstdDecoderPool.Put(dec)

	start := len(dst)
	out, err := dec.DecodeAll(src, grow(dst, size))
	if err != nil {
		return nil, fmt.Errorf("%w: zstd: %w", ErrCorruptBlock, err)
	}
	if len(out)-start != size {
		return nil, fmt.Errorf("%w: zstd decoded %d bytes, expected %d", ErrCorruptBlock, len(out)-start, size)
	}
	return out, nil
}

// Name returns "zstd".
func (Zstd) Name() string { return "zstd" }

// ID returns IDZstd.
func (Zstd) ID() uint8 { return IDZstd }
