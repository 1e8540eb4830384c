package persistence

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/hupe1980/broadphase/bvh"
	"github.com/hupe1980/broadphase/codec"
)

// Snapshot is the persisted state of a world: the BVH node array (sentinel
// included) and the entity spheres indexed by entity id.
type Snapshot struct {
	Nodes     []bvh.Node
	Root      uint32
	LeafCount uint32
	MaxLeaves uint32
	Spheres   []bvh.Sphere
}

// maxRecords bounds the counts accepted from a header before allocating.
const maxRecords = math.MaxInt32

// Encode writes snap to w as one header followed by one codec block.
func Encode(w io.Writer, snap *Snapshot, c codec.Codec) error {
	if c == nil {
		c = codec.Default
	}
	if uint64(len(snap.Nodes)) > maxRecords || uint64(len(snap.Spheres)) > maxRecords {
		return fmt.Errorf("persistence: snapshot too large: %d nodes, %d spheres", len(snap.Nodes), len(snap.Spheres))
	}

	var payload bytes.Buffer
	payload.Grow(len(snap.Nodes)*nodeRecordSize + len(snap.Spheres)*sphereRecordSize)
	if err := binary.Write(&payload, binary.LittleEndian, snap.Nodes); err != nil {
		return fmt.Errorf("persistence: encode nodes: %w", err)
	}
	if err := binary.Write(&payload, binary.LittleEndian, snap.Spheres); err != nil {
		return fmt.Errorf("persistence: encode spheres: %w", err)
	}

	header := FileHeader{
		Magic:       MagicNumber,
		Version:     Version,
		Codec:       c.ID(),
		NodeCount:   uint32(len(snap.Nodes)),   //nolint:gosec // bounded by maxRecords
		Root:        snap.Root,
		LeafCount:   snap.LeafCount,
		MaxLeaves:   snap.MaxLeaves,
		SphereCount: uint32(len(snap.Spheres)), //nolint:gosec // bounded by maxRecords
		PayloadSize: uint64(payload.Len()),
		Checksum:    ComputeChecksum(payload.Bytes()),
	}

	block, err := codec.EncodeBlock(c, payload.Bytes())
	if err != nil {
		return fmt.Errorf("persistence: compress payload: %w", err)
	}

	if err := binary.Write(w, binary.LittleEndian, &header); err != nil {
		return fmt.Errorf("persistence: write header: %w", err)
	}
	if _, err := w.Write(block); err != nil {
		return fmt.Errorf("persistence: write payload: %w", err)
	}
	return nil
}

// ReadHeader reads and validates the file header.
func ReadHeader(r io.Reader) (*FileHeader, error) {
	var header FileHeader
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		return nil, fmt.Errorf("persistence: read header: %w", err)
	}
	if header.Magic != MagicNumber {
		return nil, fmt.Errorf("%w: got 0x%08x", ErrInvalidMagic, header.Magic)
	}
	if header.Version != Version {
		return nil, fmt.Errorf("%w: got 0x%08x", ErrInvalidVersion, header.Version)
	}
	if header.PayloadSize != header.payloadSize() {
		return nil, fmt.Errorf("%w: payload of %d bytes for %d nodes and %d spheres",
			ErrCorruptSnapshot, header.PayloadSize, header.NodeCount, header.SphereCount)
	}
	return &header, nil
}

// Decode reads a snapshot written by Encode and verifies its checksum.
func Decode(r io.Reader) (*Snapshot, error) {
	header, err := ReadHeader(r)
	if err != nil {
		return nil, err
	}

	c, err := codec.ByID(header.Codec)
	if err != nil {
		return nil, fmt.Errorf("persistence: %w", err)
	}

	block, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("persistence: read payload: %w", err)
	}
	payload, _, err := codec.DecodeBlock(c, block)
	if err != nil {
		return nil, fmt.Errorf("persistence: %w", err)
	}
	if uint64(len(payload)) != header.PayloadSize {
		return nil, fmt.Errorf("%w: payload is %d bytes, header says %d", ErrCorruptSnapshot, len(payload), header.PayloadSize)
	}
	if err := VerifyChecksum(payload, header.Checksum); err != nil {
		return nil, err
	}

	snap := &Snapshot{
		Nodes:     make([]bvh.Node, header.NodeCount),
		Root:      header.Root,
		LeafCount: header.LeafCount,
		MaxLeaves: header.MaxLeaves,
		Spheres:   make([]bvh.Sphere, header.SphereCount),
	}

	pr := bytes.NewReader(payload)
	if err := binary.Read(pr, binary.LittleEndian, snap.Nodes); err != nil {
		return nil, fmt.Errorf("persistence: decode nodes: %w", err)
	}
	if err := binary.Read(pr, binary.LittleEndian, snap.Spheres); err != nil {
		return nil, fmt.Errorf("persistence: decode spheres: %w", err)
	}
	return snap, nil
}
