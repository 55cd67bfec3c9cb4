package globe

import "math"

// Vec3 is a position or direction in globe space
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Add returns v + o
func (v Vec3) Add(o Vec3) Vec3 {
	return Vec3{X: v.X + o.X, Y: v.Y + o.Y, Z: v.Z + o.Z}
}

// Sub returns v - o
func (v Vec3) Sub(o Vec3) Vec3 {
	return Vec3{X: v.X - o.X, Y: v.Y - o.Y, Z: v.Z - o.Z}
}

// Scale returns v * s
func (v Vec3) Scale(s float64) Vec3 {
	return Vec3{X: v.X * s, Y: v.Y * s, Z: v.Z * s}
}

// Dot returns the dot product of two vectors
func (v Vec3) Dot(o Vec3) float64 {
	return v.X*o.X + v.Y*o.Y + v.Z*o.Z
}

// Norm returns the Euclidean length of the vector
func (v Vec3) Norm() float64 {
	return math.Sqrt(v.Dot(v))
}

// Normalize returns the unit vector in the direction of v, or the zero vector
func (v Vec3) Normalize() Vec3 {
	n := v.Norm()
	if n == 0 {
		return Vec3{}
	}
	return v.Scale(1 / n)
}

// DistanceTo returns the straight-line distance between two points
func (v Vec3) DistanceTo(o Vec3) float64 {
	return v.Sub(o).Norm()
}

// Rotation is the drag-controlled orientation of the globe.
// Pitch turns about the X axis, yaw about the Y axis, applied yaw first.
type Rotation struct {
	Pitch float64 `json:"pitch"`
	Yaw   float64 `json:"yaw"`
}

// Apply rotates a globe-local position into view space
func (r Rotation) Apply(v Vec3) Vec3 {
	sy, cy := math.Sincos(r.Yaw)
	yawed := Vec3{
		X: v.X*cy + v.Z*sy,
		Y: v.Y,
		Z: -v.X*sy + v.Z*cy,
	}

	sp, cp := math.Sincos(r.Pitch)
	return Vec3{
		X: yawed.X,
		Y: yawed.Y*cp - yawed.Z*sp,
		Z: yawed.Y*sp + yawed.Z*cp,
	}
}

// Ray is a pick ray in view space
type Ray struct {
	Origin    Vec3 `json:"origin"`
	Direction Vec3 `json:"dir"`
}

// SphereHit returns the distance along the ray to the first intersection with
// the sphere at center with the given radius. ok is false when the ray misses
// or the sphere lies behind the origin.
func (r Ray) SphereHit(center Vec3, radius float64) (t float64, ok bool) {
	d := r.Direction.Normalize()
	if d == (Vec3{}) {
		return 0, false
	}

	oc := center.Sub(r.Origin)
	tc := oc.Dot(d)
	d2 := oc.Dot(oc) - tc*tc
	r2 := radius * radius
	if d2 > r2 {
		return 0, false
	}

	half := math.Sqrt(r2 - d2)
	t = tc - half
	if t < 0 {
		t = tc + half
	}
	if t < 0 {
		return 0, false
	}
	return t, true
}
