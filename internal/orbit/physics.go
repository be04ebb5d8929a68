package orbit

import (
	"errors"
	"math"
)

// Physics holds the physical constants shared by the synthesizer and the
// occultation test. It is built once from configuration and passed by value.
type Physics struct {
	EarthRadiusKm float64 `toml:"earth_radius_km" json:"earth_radius_km"`
	MuKm3S2       float64 `toml:"mu_km3_s2"       json:"mu_km3_s2"`
}

// DefaultPhysics returns the mean Earth radius and the WGS-84 gravitational
// parameter.
func DefaultPhysics() Physics {
	return Physics{
		EarthRadiusKm: 6371.0,
		MuKm3S2:       398600.4418,
	}
}

// Validate rejects non-positive or non-finite constants.
func (p Physics) Validate() error {
	if !(p.EarthRadiusKm > 0) || math.IsInf(p.EarthRadiusKm, 0) {
		return errors.New("physics.earth_radius_km must be > 0")
	}
	if !(p.MuKm3S2 > 0) || math.IsInf(p.MuKm3S2, 0) {
		return errors.New("physics.mu_km3_s2 must be > 0")
	}
	return nil
}

// CircularMeanMotion returns the mean motion in revolutions per day of a
// circular orbit with the given semi-major axis in km.
func (p Physics) CircularMeanMotion(semiMajorAxisKm float64) float64 {
	radPerSec := math.Sqrt(p.MuKm3S2 / (semiMajorAxisKm * semiMajorAxisKm * semiMajorAxisKm))
	return radPerSec * 86400 / (2 * math.Pi)
}
