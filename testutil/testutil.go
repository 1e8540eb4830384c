package testutil

import (
	"math/rand"
	"slices"
	"sync"

	"github.com/hupe1980/broadphase/bvh"
)

// DefaultMaxRadius is the radius bound used by the demo scene.
const DefaultMaxRadius = 0.3

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)), //nolint:gosec // deterministic test data
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Seed(r.seed)
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// Float32 returns, as a float32, a pseudo-random number in [0.0,1.0).
func (r *RNG) Float32() float32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Float32()
}

func (r *RNG) vectorLocked() bvh.Vector {
	return bvh.Vector{
		X: r.rand.Float32() - 0.5,
		Y: r.rand.Float32() - 0.5,
		Z: r.rand.Float32() - 0.5,
	}
}

// Vector returns a point in [-0.5, 0.5) on every axis.
func (r *RNG) Vector() bvh.Vector {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.vectorLocked()
}

// Sphere returns a sphere centered in [-0.5, 0.5)^3 with a radius in
// [0, maxRadius).
func (r *RNG) Sphere(maxRadius float32) bvh.Sphere {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := r.vectorLocked()
	return bvh.Sphere{Center: c, Radius: r.rand.Float32() * maxRadius}
}

// Spheres generates n spheres. Locks only once per call.
func (r *RNG) Spheres(n int, maxRadius float32) []bvh.Sphere {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]bvh.Sphere, n)
	for i := range out {
		c := r.vectorLocked()
		out[i] = bvh.Sphere{Center: c, Radius: r.rand.Float32() * maxRadius}
	}
	return out
}

// AABBs generates n boxes with a min corner in [-0.5, 0.5)^3 and extents in
// [0, maxExtent) per axis.
func (r *RNG) AABBs(n int, maxExtent float32) []bvh.AABB {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]bvh.AABB, n)
	for i := range out {
		lo := r.vectorLocked()
		ext := bvh.Vector{
			X: r.rand.Float32() * maxExtent,
			Y: r.rand.Float32() * maxExtent,
			Z: r.rand.Float32() * maxExtent,
		}
		out[i] = bvh.NewAABB(lo, lo.Add(ext))
	}
	return out
}

// Overlapping returns, sorted, the indices of all boxes intersecting q.
// It is the linear-scan ground truth for tree queries.
func Overlapping(boxes []bvh.AABB, q bvh.AABB) []uint32 {
	var out []uint32
	for i, b := range boxes {
		if b.Intersects(q) {
			out = append(out, uint32(i)) //nolint:gosec // test data sizes fit in uint32
		}
	}
	return out
}

// Colliding returns, sorted, the indices of all spheres colliding with
// spheres[id], excluding id itself.
func Colliding(spheres []bvh.Sphere, id int) []uint32 {
	var out []uint32
	s := spheres[id]
	for i, o := range spheres {
		if i == id {
			continue
		}
		r := s.Radius + o.Radius
		if s.Center.Sub(o.Center).SquaredLength() < r*r {
			out = append(out, uint32(i)) //nolint:gosec // test data sizes fit in uint32
		}
	}
	return out
}

// Sorted returns a sorted copy of ids. Empty input, nil or not, yields nil
// so results compare equal to Overlapping and Colliding.
func Sorted(ids []uint32) []uint32 {
	if len(ids) == 0 {
		return nil
	}
	out := slices.Clone(ids)
	slices.Sort(out)
	return out
}
