package geometry

import "math"

// parallelThreshold is the |cos| above which zenith and the fallback
// reference axis are considered parallel.
const parallelThreshold = 0.999

var (
	axisX = Vector{X: 1}
	axisZ = Vector{Z: 1}
)

// Cone is an antenna field of view: every direction within HalfAngle
// radians of Axis, as seen from Tip.
type Cone struct {
	Tip       Vector  `json:"tip"`
	Axis      Vector  `json:"axis"`
	HalfAngle float64 `json:"half_angle"`
	Label     string  `json:"label,omitempty"`
}

// Valid reports whether the half angle lies in (0, π/2] and the axis has
// unit length.
func (c Cone) Valid() bool {
	if c.HalfAngle <= 0 || c.HalfAngle > math.Pi/2 {
		return false
	}
	return math.Abs(Magnitude(c.Axis)-1) < 1e-6
}

// HorizonStatus reports how HorizonCones derived its horizontal direction.
type HorizonStatus int

const (
	// HorizonFromVelocity means the velocity had a usable horizontal component.
	HorizonFromVelocity HorizonStatus = iota
	// HorizonFallback means the velocity was purely radial (or zero) and an
	// arbitrary horizontal direction was used instead.
	HorizonFallback
	// HorizonUnavailable means no horizontal direction could be derived; no
	// cones were produced.
	HorizonUnavailable
)

func (s HorizonStatus) String() string {
	switch s {
	case HorizonFromVelocity:
		return "velocity"
	case HorizonFallback:
		return "fallback"
	case HorizonUnavailable:
		return "unavailable"
	default:
		return "unknown"
	}
}

// NadirCone returns a cone at pos whose axis points at the Earth's center.
// ok is false when pos is at the origin.
func NadirCone(pos Vector, halfAngle float64, label string) (Cone, bool) {
	axis, ok := Nadir(pos)
	return Cone{Tip: pos, Axis: axis, HalfAngle: halfAngle, Label: label}, ok
}

// HorizonCones returns the forward and backward cones whose axes are the
// projection of vel onto the local horizontal plane at pos.
//
// When vel has no horizontal component the direction falls back to
// zenith × Ẑ (or zenith × X̂ near the poles). If even that fails the result
// is empty and the status is HorizonUnavailable.
func HorizonCones(pos, vel Vector, halfAngle float64, labelPrefix string) ([]Cone, HorizonStatus) {
	zenith, ok := Normalize(pos)
	if !ok {
		return nil, HorizonUnavailable
	}

	status := HorizonFromVelocity
	horizontal := Sub(vel, Scale(zenith, Dot(vel, zenith)))
	forward, ok := Normalize(horizontal)
	if !ok {
		status = HorizonFallback
		forward, ok = fallbackHorizontal(zenith)
		if !ok {
			return nil, HorizonUnavailable
		}
	}

	return []Cone{
		{Tip: pos, Axis: forward, HalfAngle: halfAngle, Label: labelPrefix + "-fwd"},
		{Tip: pos, Axis: Scale(forward, -1), HalfAngle: halfAngle, Label: labelPrefix + "-aft"},
	}, status
}

func fallbackHorizontal(zenith Vector) (Vector, bool) {
	ref := axisZ
	if math.Abs(Dot(zenith, ref)) > parallelThreshold {
		ref = axisX
	}
	return Normalize(Cross(zenith, ref))
}

// ConeAngle returns the angle in radians between the cone axis and the
// direction from the cone tip to target. A target on the tip measures π/2.
func ConeAngle(target Vector, c Cone) float64 {
	dir, _ := Normalize(Sub(target, c.Tip))
	cos := Dot(c.Axis, dir)
	// Float drift can push |cos| slightly past 1.
	cos = math.Max(-1, math.Min(1, cos))
	return math.Acos(cos)
}

// TargetAtTip reports whether target coincides with the cone tip, where the
// direction to it cannot be normalized and ConeAngle falls back to π/2.
func TargetAtTip(target Vector, c Cone) bool {
	_, ok := Normalize(Sub(target, c.Tip))
	return !ok
}

// PointInCone reports whether target lies inside or on the boundary of c.
func PointInCone(target Vector, c Cone) bool {
	return ConeAngle(target, c) <= c.HalfAngle
}

// InAnyCone reports whether target lies in at least one of cones.
func InAnyCone(target Vector, cones []Cone) bool {
	for _, c := range cones {
		if PointInCone(target, c) {
			return true
		}
	}
	return false
}
