package broadphase

import (
	"github.com/hupe1980/broadphase/bvh"
)

// Entity is a sphere in the world together with its cached bounds.
type Entity struct {
	Position bvh.Vector
	Radius   float32
	Bounds   bvh.AABB
}

// NewEntity returns the entity at position with the given radius. Its bounds
// are [position-radius, position+radius] on every axis.
func NewEntity(position bvh.Vector, radius float32) Entity {
	return Entity{
		Position: position,
		Radius:   radius,
		Bounds:   bvh.AroundSphere(position, radius),
	}
}

// Sphere returns the entity as a bvh.Sphere.
func (e Entity) Sphere() bvh.Sphere {
	return bvh.Sphere{Center: e.Position, Radius: e.Radius}
}

// Collides reports whether the spheres of a and b overlap. Spheres that only
// touch do not collide.
func Collides(a, b Entity) bool {
	r := a.Radius + b.Radius
	return a.Position.Sub(b.Position).SquaredLength() < r*r
}
