package geometry

import "math"

// LineOfSightClear reports whether the segment p1→p2 is free of the sphere
// of the given center and radius.
//
// Decision table, with t the segment parameter of the line/sphere roots:
//
//	no real roots                          clear
//	both roots outside [0,1]               clear
//	a root on the segment, and
//	  one endpoint inside, one outside     blocked
//	  both endpoints outside               blocked
//	  both endpoints inside or on surface  clear
//	  anything else                        blocked
//
// The endpoints are put in a fixed order before solving so the result is
// exactly symmetric in p1 and p2.
func LineOfSightClear(p1, p2, center Vector, radius float64) bool {
	if less(p2, p1) {
		p1, p2 = p2, p1
	}

	d := Sub(p2, p1)
	f := Sub(p1, center)

	a := Dot(d, d)
	if a < DegenerateEpsilon*DegenerateEpsilon {
		// Coincident endpoints: the segment has no extent to cross the sphere.
		return true
	}
	b := 2 * Dot(f, d)
	c := Dot(f, f) - radius*radius

	disc := b*b - 4*a*c
	if disc < 0 {
		return true
	}

	sq := math.Sqrt(disc)
	t1 := (-b - sq) / (2 * a)
	t2 := (-b + sq) / (2 * a)
	if !onSegment(t1) && !onSegment(t2) {
		return true
	}

	r1 := Magnitude(f)
	r2 := Magnitude(Sub(p2, center))
	in1, out1 := r1 < radius, r1 > radius
	in2, out2 := r2 < radius, r2 > radius

	switch {
	case (in1 && out2) || (out1 && in2):
		return false
	case out1 && out2:
		return false
	case !out1 && !out2:
		return true
	default:
		return false
	}
}

func onSegment(t float64) bool {
	return t >= 0 && t <= 1
}
