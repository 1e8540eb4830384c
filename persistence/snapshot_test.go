package persistence

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/hupe1980/broadphase/arena"
	"github.com/hupe1980/broadphase/bvh"
	"github.com/hupe1980/broadphase/codec"
	"github.com/hupe1980/broadphase/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestArena(t *testing.T) *arena.Arena {
	t.Helper()
	a, err := arena.New(64 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Release() })
	return a
}

func buildSnapshot(t *testing.T, a *arena.Arena, n int) *Snapshot {
	t.Helper()

	spheres := testutil.NewRNG(int64(n)).Spheres(n, testutil.DefaultMaxRadius)
	tree, err := bvh.New(a, n)
	require.NoError(t, err)
	for i, s := range spheres {
		_, err := tree.Insert(uint32(i), s.Bounds())
		require.NoError(t, err)
	}

	return &Snapshot{
		Nodes:     tree.Nodes(),
		Root:      tree.Root(),
		LeafCount: uint32(tree.LeafCount()),
		MaxLeaves: uint32(tree.MaxLeaves()),
		Spheres:   spheres,
	}
}

func encode(t *testing.T, snap *Snapshot, c codec.Codec) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, snap, c))
	return buf.Bytes()
}

func TestHeaderSize(t *testing.T) {
	assert.Equal(t, 64, HeaderSize)
	assert.Equal(t, 40, nodeRecordSize)
	assert.Equal(t, 16, sphereRecordSize)
}

func TestEncodeDecode_RoundTrip(t *testing.T) {
	codecs := []codec.Codec{codec.None{}, codec.LZ4{}, codec.Zstd{}}

	for _, c := range codecs {
		t.Run(c.Name(), func(t *testing.T) {
			a := newTestArena(t)
			snap := buildSnapshot(t, a, 200)

			got, err := Decode(bytes.NewReader(encode(t, snap, c)))
			require.NoError(t, err)

			assert.Equal(t, snap.Root, got.Root)
			assert.Equal(t, snap.LeafCount, got.LeafCount)
			assert.Equal(t, snap.MaxLeaves, got.MaxLeaves)
			assert.Equal(t, snap.Nodes, got.Nodes)
			assert.Equal(t, snap.Spheres, got.Spheres)

			tree, err := bvh.Restore(a, got.Nodes, got.Root, int(got.LeafCount), int(got.MaxLeaves))
			require.NoError(t, err)
			assert.NoError(t, tree.Validate())
		})
	}
}

func TestEncodeDecode_Empty(t *testing.T) {
	a := newTestArena(t)
	snap := buildSnapshot(t, a, 0)
	require.Len(t, snap.Nodes, 1)

	got, err := Decode(bytes.NewReader(encode(t, snap, codec.Default)))
	require.NoError(t, err)
	assert.Equal(t, uint32(0), got.Root)
	assert.Len(t, got.Nodes, 1)
	assert.Empty(t, got.Spheres)
}

func TestEncode_DefaultCodec(t *testing.T) {
	a := newTestArena(t)
	data := encode(t, buildSnapshot(t, a, 10), nil)

	header, err := ReadHeader(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, codec.Default.ID(), header.Codec)
	assert.Equal(t, uint32(2*10), header.NodeCount)
	assert.Equal(t, uint32(10), header.SphereCount)
}

func TestDecode_Corruption(t *testing.T) {
	a := newTestArena(t)
	data := encode(t, buildSnapshot(t, a, 50), codec.None{})

	corrupt := func(f func(b []byte)) []byte {
		b := bytes.Clone(data)
		f(b)
		return b
	}

	t.Run("InvalidMagic", func(t *testing.T) {
		_, err := Decode(bytes.NewReader(corrupt(func(b []byte) { b[0] ^= 0xff })))
		assert.ErrorIs(t, err, ErrInvalidMagic)
	})

	t.Run("InvalidVersion", func(t *testing.T) {
		_, err := Decode(bytes.NewReader(corrupt(func(b []byte) {
			binary.LittleEndian.PutUint32(b[4:], 0x00020000)
		})))
		assert.ErrorIs(t, err, ErrInvalidVersion)
	})

	t.Run("UnknownCodec", func(t *testing.T) {
		_, err := Decode(bytes.NewReader(corrupt(func(b []byte) { b[8] = 0xee })))
		assert.ErrorIs(t, err, codec.ErrUnknownCodec)
	})

	t.Run("CountMismatch", func(t *testing.T) {
		_, err := Decode(bytes.NewReader(corrupt(func(b []byte) {
			binary.LittleEndian.PutUint32(b[12:], 7)
		})))
		assert.ErrorIs(t, err, ErrCorruptSnapshot)
	})

	t.Run("ChecksumMismatch", func(t *testing.T) {
		_, err := Decode(bytes.NewReader(corrupt(func(b []byte) {
			b[HeaderSize+codec.BlockHeaderSize+nodeRecordSize] ^= 0x01
		})))
		require.Error(t, err)
		assert.True(t, IsChecksumMismatch(err))
		assert.ErrorIs(t, err, ErrCorruptSnapshot)
	})

	t.Run("Truncated", func(t *testing.T) {
		_, err := Decode(bytes.NewReader(data[:len(data)-10]))
		assert.Error(t, err)

		_, err = Decode(bytes.NewReader(data[:HeaderSize/2]))
		assert.Error(t, err)
	})
}

func TestVerifyChecksum(t *testing.T) {
	payload := []byte("the quick brown fox")
	sum := ComputeChecksum(payload)

	assert.NoError(t, VerifyChecksum(payload, sum))

	err := VerifyChecksum(payload, sum+1)
	var mismatch *ChecksumMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, sum+1, mismatch.Expected)
	assert.Equal(t, sum, mismatch.Actual)
	assert.ErrorIs(t, err, ErrCorruptSnapshot)
	assert.False(t, IsChecksumMismatch(ErrCorruptSnapshot))
}
