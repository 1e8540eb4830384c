package persistence

import (
	"encoding/binary"
	"errors"

	"github.com/hupe1980/broadphase/bvh"
)

const (
	// MagicNumber identifies broadphase snapshot files (ASCII: "BVH0")
	MagicNumber = 0x42564830
	// Version is the current file format version (v1.0.0)
	Version = 0x00010000
)

var (
	ErrInvalidMagic   = errors.New("persistence: invalid magic number")
	ErrInvalidVersion = errors.New("persistence: unsupported version")
	// ErrCorruptSnapshot is returned when the header and payload disagree.
	ErrCorruptSnapshot = errors.New("persistence: corrupt snapshot")
)

// FileHeader is the fixed-size header at the start of every snapshot file.
// All fields are little-endian.
type FileHeader struct {
	Magic       uint32 // 0x42564830 ("BVH0")
	Version     uint32 // File format version
	Codec       uint8  // codec.ID* of the payload block
	Padding1    [3]byte
	NodeCount   uint32 // Nodes including the sentinel
	Root        uint32 // Root node index, 0 for an empty tree
	LeafCount   uint32
	MaxLeaves   uint32 // Leaf capacity of the saved tree
	SphereCount uint32 // Entities stored after the nodes
	PayloadSize uint64 // Uncompressed payload bytes
	Checksum    uint32 // CRC32C of the uncompressed payload
	Reserved    [20]byte
}

var (
	// HeaderSize is the encoded size of FileHeader.
	HeaderSize = binary.Size(FileHeader{})

	nodeRecordSize   = binary.Size(bvh.Node{})
	sphereRecordSize = binary.Size(bvh.Sphere{})
)

// payloadSize returns the payload bytes implied by the header counts.
func (h *FileHeader) payloadSize() uint64 {
	return uint64(h.NodeCount)*uint64(nodeRecordSize) + uint64(h.SphereCount)*uint64(sphereRecordSize)
}
