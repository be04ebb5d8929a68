// Package astro holds the low-precision astronomy the Beacon synthesizer
// needs to phase a sun-synchronous orbit: Julian dates and the Sun's
// apparent right ascension.
package astro

import (
	"math"
	"time"
)

// J2000 is the Julian Date of the J2000.0 epoch.
const J2000 = 2451545.0

// JulianDate converts t to a Julian Date (UTC).
func JulianDate(t time.Time) float64 {
	t = t.UTC()

	y := float64(t.Year())
	m := float64(t.Month())
	d := float64(t.Day())

	if m <= 2 {
		y--
		m += 12
	}

	a := math.Floor(y / 100)
	b := 2 - a + math.Floor(a/4)

	dayFrac := (float64(t.Hour()) +
		float64(t.Minute())/60 +
		(float64(t.Second())+float64(t.Nanosecond())/1e9)/3600) / 24

	return math.Floor(365.25*(y+4716)) + math.Floor(30.6001*(m+1)) + d + b - 1524.5 + dayFrac
}

// JulianCenturies returns Julian centuries elapsed since J2000.0.
func JulianCenturies(t time.Time) float64 {
	return (JulianDate(t) - J2000) / 36525.0
}

// SunRightAscension returns the Sun's apparent right ascension in degrees
// [0, 360) at t.
//
// Mean longitude plus a two-term equation of center, corrected for
// aberration and nutation in longitude, projected through the corrected
// obliquity of the ecliptic. Good to a few hundredths of a degree, which is
// far below what orbit phasing needs.
func SunRightAscension(t time.Time) float64 {
	T := JulianCenturies(t)

	L0 := NormalizeDegrees(280.46646 + 36000.76983*T + 0.0003032*T*T)
	M := degToRad(NormalizeDegrees(357.52911 + 35999.05029*T - 0.0001537*T*T))

	C := (1.914602-0.004817*T-0.000014*T*T)*math.Sin(M) +
		(0.019993-0.000101*T)*math.Sin(2*M)

	omega := degToRad(125.04 - 1934.136*T)
	lambda := degToRad(L0 + C - 0.00569 - 0.00478*math.Sin(omega))

	eps0 := 23.439291 - 0.0130042*T - 0.00000016*T*T + 0.000000504*T*T*T
	eps := degToRad(eps0 + 0.00256*math.Cos(omega))

	ra := math.Atan2(math.Cos(eps)*math.Sin(lambda), math.Cos(lambda))
	return NormalizeDegrees(radToDeg(ra))
}

// NormalizeDegrees wraps a to [0, 360).
func NormalizeDegrees(a float64) float64 {
	a = math.Mod(a, 360)
	if a < 0 {
		a += 360
	}
	if a >= 360 {
		a = 0
	}
	return a
}

func degToRad(deg float64) float64 {
	return deg * math.Pi / 180
}

func radToDeg(rad float64) float64 {
	return rad * 180 / math.Pi
}
