package bvh

// Vector is a point or direction in 3D space.
type Vector struct {
	X, Y, Z float32
}

// Add returns v+u.
func (v Vector) Add(u Vector) Vector { return Vector{v.X + u.X, v.Y + u.Y, v.Z + u.Z} }

// Sub returns v-u.
func (v Vector) Sub(u Vector) Vector { return Vector{v.X - u.X, v.Y - u.Y, v.Z - u.Z} }

// Scale returns v*t.
func (v Vector) Scale(t float32) Vector { return Vector{v.X * t, v.Y * t, v.Z * t} }

// AddScalar adds f to every component.
func (v Vector) AddScalar(f float32) Vector { return Vector{v.X + f, v.Y + f, v.Z + f} }

// SubScalar subtracts f from every component.
func (v Vector) SubScalar(f float32) Vector { return Vector{v.X - f, v.Y - f, v.Z - f} }

// SquaredLength returns the squared Euclidean length of v.
func (v Vector) SquaredLength() float32 { return v.X*v.X + v.Y*v.Y + v.Z*v.Z }

// AABB is an axis-aligned bounding box. Both bounds are inclusive.
type AABB struct {
	Min, Max Vector
}

// NewAABB returns the box spanning min and max.
func NewAABB(lo, hi Vector) AABB {
	return AABB{Min: lo, Max: hi}
}

// AroundSphere returns the tightest box containing the sphere.
func AroundSphere(center Vector, radius float32) AABB {
	return AABB{Min: center.SubScalar(radius), Max: center.AddScalar(radius)}
}

// Valid reports whether Min <= Max on every axis. Boxes with NaN bounds are
// not valid.
func (b AABB) Valid() bool {
	return b.Min.X <= b.Max.X && b.Min.Y <= b.Max.Y && b.Min.Z <= b.Max.Z
}

// Intersects reports whether the boxes overlap. Touching boxes intersect.
func (b AABB) Intersects(o AABB) bool {
	return b.Min.X <= o.Max.X && o.Min.X <= b.Max.X &&
		b.Min.Y <= o.Max.Y && o.Min.Y <= b.Max.Y &&
		b.Min.Z <= o.Max.Z && o.Min.Z <= b.Max.Z
}

// Contains reports whether inner lies entirely within b.
func (b AABB) Contains(inner AABB) bool {
	return inner.Min.X >= b.Min.X && inner.Min.Y >= b.Min.Y && inner.Min.Z >= b.Min.Z &&
		inner.Max.X <= b.Max.X && inner.Max.Y <= b.Max.Y && inner.Max.Z <= b.Max.Z
}

// Merge returns the smallest box containing both boxes.
func (b AABB) Merge(o AABB) AABB {
	return AABB{
		Min: Vector{min(b.Min.X, o.Min.X), min(b.Min.Y, o.Min.Y), min(b.Min.Z, o.Min.Z)},
		Max: Vector{max(b.Max.X, o.Max.X), max(b.Max.Y, o.Max.Y), max(b.Max.Z, o.Max.Z)},
	}
}

// Extent returns Max-Min.
func (b AABB) Extent() Vector {
	return b.Max.Sub(b.Min)
}

// SurfaceArea returns 2*(dx*dy + dx*dz + dy*dz).
func (b AABB) SurfaceArea() float32 {
	e := b.Extent()
	return 2 * (e.X*e.Y + e.X*e.Z + e.Y*e.Z)
}

// Sphere is a center and a radius.
type Sphere struct {
	Center Vector
	Radius float32
}

// Bounds returns the box around the sphere.
func (s Sphere) Bounds() AABB {
	return AroundSphere(s.Center, s.Radius)
}
