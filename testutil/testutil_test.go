package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hupe1980/broadphase/bvh"
)

func TestSpheres(t *testing.T) {
	rng := NewRNG(4711)

	s := rng.Spheres(64, DefaultMaxRadius)
	assert.Len(t, s, 64)

	for _, sp := range s {
		for _, c := range []float32{sp.Center.X, sp.Center.Y, sp.Center.Z} {
			assert.GreaterOrEqual(t, c, float32(-0.5))
			assert.Less(t, c, float32(0.5))
		}
		assert.GreaterOrEqual(t, sp.Radius, float32(0))
		assert.Less(t, sp.Radius, float32(DefaultMaxRadius))
	}
}

func TestReset(t *testing.T) {
	rng := NewRNG(7)
	first := rng.Sphere(1)
	_ = rng.Vector()

	rng.Reset()
	assert.Equal(t, first, rng.Sphere(1))
	assert.Equal(t, int64(7), rng.Seed())
}

func TestAABBs(t *testing.T) {
	rng := NewRNG(4711)

	for _, b := range rng.AABBs(32, 0.2) {
		assert.True(t, b.Valid())
		e := b.Extent()
		assert.Less(t, e.X, float32(0.2))
	}
}

func TestOverlapping(t *testing.T) {
	boxes := []bvh.AABB{
		bvh.NewAABB(bvh.Vector{X: -1, Y: -1, Z: -1}, bvh.Vector{X: 1, Y: 1, Z: 1}),
		bvh.NewAABB(bvh.Vector{X: 0, Y: 0, Z: 0}, bvh.Vector{X: 2, Y: 2, Z: 2}),
		bvh.NewAABB(bvh.Vector{X: 10, Y: 10, Z: 10}, bvh.Vector{X: 11, Y: 11, Z: 11}),
	}

	assert.Equal(t, []uint32{0, 1}, Overlapping(boxes, boxes[0]))
	assert.Equal(t, []uint32{2}, Overlapping(boxes, boxes[2]))
}

func TestColliding(t *testing.T) {
	spheres := []bvh.Sphere{
		{Center: bvh.Vector{}, Radius: 1},
		{Center: bvh.Vector{X: 1.5}, Radius: 1},
		{Center: bvh.Vector{X: 2}, Radius: 0.5},
	}

	assert.Equal(t, []uint32{1}, Colliding(spheres, 0))
	assert.Equal(t, []uint32{0, 2}, Colliding(spheres, 1))
	assert.Equal(t, []uint32{1}, Colliding(spheres, 2))

	touching := []bvh.Sphere{
		{Center: bvh.Vector{}, Radius: 1},
		{Center: bvh.Vector{X: 2}, Radius: 1},
	}
	assert.Empty(t, Colliding(touching, 0))

	assert.Equal(t, []uint32{3, 7}, Sorted([]uint32{7, 3}))
	assert.Nil(t, Sorted([]uint32{}))
	assert.Equal(t, Colliding(touching, 0), Sorted(make([]uint32, 0, 4)))
}
