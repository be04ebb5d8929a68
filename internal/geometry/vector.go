// Package geometry is the stateless 3D kernel behind every link decision:
// vector algebra in the Earth-centered inertial frame, antenna cones, and
// the Earth occultation test.
//
// The Earth is modeled as a sphere centered at the origin. Nothing in this
// package logs; degenerate inputs are reported through return values so the
// caller can route them to its event sink.
package geometry

import "math"

// DegenerateEpsilon is the magnitude below which a vector is treated as
// having no direction.
const DegenerateEpsilon = 1e-9

// Vector is a Cartesian 3-vector in km (positions) or km/s (velocities).
type Vector struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Dot returns a·b.
func Dot(a, b Vector) float64 {
	return a.X*b.X + a.Y*b.Y + a.Z*b.Z
}

// Magnitude returns |v|.
func Magnitude(v Vector) float64 {
	return math.Sqrt(Dot(v, v))
}

// Add returns a + b.
func Add(a, b Vector) Vector {
	return Vector{X: a.X + b.X, Y: a.Y + b.Y, Z: a.Z + b.Z}
}

// Sub returns a - b.
func Sub(a, b Vector) Vector {
	return Vector{X: a.X - b.X, Y: a.Y - b.Y, Z: a.Z - b.Z}
}

// Scale returns k·v.
func Scale(v Vector, k float64) Vector {
	return Vector{X: v.X * k, Y: v.Y * k, Z: v.Z * k}
}

// Cross returns a × b.
func Cross(a, b Vector) Vector {
	return Vector{
		X: a.Y*b.Z - a.Z*b.Y,
		Y: a.Z*b.X - a.X*b.Z,
		Z: a.X*b.Y - a.Y*b.X,
	}
}

// Normalize returns v scaled to unit length. A vector shorter than
// DegenerateEpsilon yields the zero vector and ok == false.
func Normalize(v Vector) (unit Vector, ok bool) {
	m := Magnitude(v)
	if m < DegenerateEpsilon {
		return Vector{}, false
	}
	return Scale(v, 1/m), true
}

// Nadir returns the unit vector pointing from pos toward the Earth's center.
func Nadir(pos Vector) (Vector, bool) {
	return Normalize(Scale(pos, -1))
}

// IsFinite reports whether every component is a finite number.
func (v Vector) IsFinite() bool {
	for _, c := range [3]float64{v.X, v.Y, v.Z} {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}

// less orders vectors lexicographically by (X, Y, Z).
func less(a, b Vector) bool {
	if a.X != b.X {
		return a.X < b.X
	}
	if a.Y != b.Y {
		return a.Y < b.Y
	}
	return a.Z < b.Z
}
