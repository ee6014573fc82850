package navigation

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Orientation is a rotation stored as the images of the three unit axes.
// Vehicles face along -Z with +Y as their up axis.
type Orientation struct {
	X r3.Vec
	Y r3.Vec
	Z r3.Vec
}

// Identity returns the orientation that leaves vectors unchanged
func Identity() Orientation {
	return Orientation{
		X: r3.Vec{X: 1},
		Y: r3.Vec{Y: 1},
		Z: r3.Vec{Z: 1},
	}
}

// RotationAbout returns the rotation of angle radians about axis
func RotationAbout(axis r3.Vec, angle float64) Orientation {
	id := Identity()
	return Orientation{
		X: r3.Rotate(id.X, angle, axis),
		Y: r3.Rotate(id.Y, angle, axis),
		Z: r3.Rotate(id.Z, angle, axis),
	}
}

// Apply maps a vector from the rotated space into the parent space (M·v)
func (o Orientation) Apply(v r3.Vec) r3.Vec {
	return r3.Add(r3.Add(r3.Scale(v.X, o.X), r3.Scale(v.Y, o.Y)), r3.Scale(v.Z, o.Z))
}

// ApplyInverse maps a vector from the parent space into the rotated space (Mᵀ·v)
func (o Orientation) ApplyInverse(v r3.Vec) r3.Vec {
	return r3.Vec{X: r3.Dot(o.X, v), Y: r3.Dot(o.Y, v), Z: r3.Dot(o.Z, v)}
}

// Mul composes two rotations: the result applies p first, then o
func (o Orientation) Mul(p Orientation) Orientation {
	return Orientation{X: o.Apply(p.X), Y: o.Apply(p.Y), Z: o.Apply(p.Z)}
}

// Transpose returns the inverse rotation
func (o Orientation) Transpose() Orientation {
	return Orientation{
		X: r3.Vec{X: o.X.X, Y: o.Y.X, Z: o.Z.X},
		Y: r3.Vec{X: o.X.Y, Y: o.Y.Y, Z: o.Z.Y},
		Z: r3.Vec{X: o.X.Z, Y: o.Y.Z, Z: o.Z.Z},
	}
}

// Forward is the direction the nose points (-Z)
func (o Orientation) Forward() r3.Vec {
	return r3.Scale(-1, o.Z)
}

// Up is the vehicle's up axis (+Y)
func (o Orientation) Up() r3.Vec {
	return o.Y
}

// Orthonormalize removes drift accumulated by repeated incremental rotations
func (o Orientation) Orthonormalize() Orientation {
	z := r3.Unit(o.Z)
	x := r3.Unit(r3.Cross(o.Y, z))
	y := r3.Cross(z, x)
	return Orientation{X: x, Y: y, Z: z}
}

// LookAlong builds an orientation whose forward axis is fwd and whose up axis
// is as close to up as the constraint allows. Degenerate inputs fall back to
// any perpendicular up axis.
func LookAlong(fwd, up r3.Vec) Orientation {
	z := r3.Scale(-1, fwd)
	if r3.Norm2(z) < 1e-18 {
		return Identity()
	}
	z = r3.Unit(z)
	x := r3.Cross(up, z)
	if r3.Norm2(x) < 1e-18 {
		x = r3.Cross(anyPerpendicular(z), z)
	}
	x = r3.Unit(x)
	return Orientation{X: x, Y: r3.Cross(z, x), Z: z}
}

// AngleBetween returns the angle in radians between two non-zero vectors
func AngleBetween(a, b r3.Vec) float64 {
	na, nb := r3.Norm(a), r3.Norm(b)
	if na == 0 || nb == 0 {
		return 0
	}
	c := r3.Dot(a, b) / (na * nb)
	return math.Acos(math.Max(-1, math.Min(1, c)))
}

func anyPerpendicular(v r3.Vec) r3.Vec {
	if math.Abs(v.X) < 0.9 {
		return r3.Cross(v, r3.Vec{X: 1})
	}
	return r3.Cross(v, r3.Vec{Y: 1})
}
