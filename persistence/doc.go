// Package persistence provides the binary snapshot format for a broadphase
// world and a Manager that stores snapshots on a blobstore.BlobStore.
//
// # File Format
//
//	+----------------------+
//	| FileHeader           |  magic "BVH0", version, codec id, counts,
//	|                      |  root, payload size, CRC32C of the payload
//	+----------------------+
//	| codec block          |  [uncompressed u32][compressed u32][bytes]
//	|   nodes   (40 B ea.) |  bvh.Node, sentinel first
//	|   spheres (16 B ea.) |  bvh.Sphere, indexed by entity id
//	+----------------------+
//
// All integers and floats are little-endian. The checksum covers the
// uncompressed payload, so it also catches codec bugs.
package persistence
