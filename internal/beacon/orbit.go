// Package beacon synthesizes two-line element sets for the Beacon satellite
// from user-level orbit parameters and initializes them for propagation.
package beacon

import (
	"fmt"
	"strings"
)

// Orbit is the abstract Beacon orbit. Its variants are SunSynchronous and
// NonPolar; the synthesizer switches over them exhaustively.
type Orbit interface {
	Altitude() float64
	variant() string
}

// SunSynchronous places the Beacon in a sun-synchronous orbit whose
// descending node crosses the equator at LocalSolarTimeHours.
type SunSynchronous struct {
	AltitudeKm          float64
	LocalSolarTimeHours float64
}

func (o SunSynchronous) Altitude() float64 { return o.AltitudeKm }
func (SunSynchronous) variant() string      { return VariantSunSynchronous }

// NonPolar is an explicit inclination orbit. A nil RAANDeg means 0.
type NonPolar struct {
	AltitudeKm     float64
	InclinationDeg float64
	RAANDeg        *float64
}

func (o NonPolar) Altitude() float64 { return o.AltitudeKm }
func (NonPolar) variant() string      { return VariantNonPolar }

// RAAN returns the configured node or 0 when unset.
func (o NonPolar) RAAN() float64 {
	if o.RAANDeg == nil {
		return 0
	}
	return *o.RAANDeg
}

const (
	VariantSunSynchronous = "sun-synchronous"
	VariantNonPolar       = "non-polar"
)

// OrbitSpec is the flat wire and config form of an Orbit.
type OrbitSpec struct {
	Type                string   `toml:"type"                      json:"type"`
	AltitudeKm          float64  `toml:"altitude_km"               json:"altitudeKm"`
	LocalSolarTimeHours float64  `toml:"local_solar_time_hours"    json:"localSolarTimeHours,omitempty"`
	InclinationDeg      float64  `toml:"inclination_deg"           json:"inclinationDeg,omitempty"`
	RAANDeg             *float64 `toml:"raan_deg,omitempty"        json:"raanDeg,omitempty"`
}

// Orbit converts s into its variant.
func (s OrbitSpec) Orbit() (Orbit, error) {
	switch strings.ToLower(strings.TrimSpace(s.Type)) {
	case VariantSunSynchronous, "sso", "sun_synchronous":
		return SunSynchronous{AltitudeKm: s.AltitudeKm, LocalSolarTimeHours: s.LocalSolarTimeHours}, nil
	case VariantNonPolar, "non_polar":
		return NonPolar{AltitudeKm: s.AltitudeKm, InclinationDeg: s.InclinationDeg, RAANDeg: s.RAANDeg}, nil
	default:
		return nil, fmt.Errorf("unknown beacon orbit type %q (want %q or %q)", s.Type, VariantSunSynchronous, VariantNonPolar)
	}
}

// SpecOf flattens o. It returns the zero spec for unknown variants.
func SpecOf(o Orbit) OrbitSpec {
	switch v := o.(type) {
	case SunSynchronous:
		return OrbitSpec{Type: VariantSunSynchronous, AltitudeKm: v.AltitudeKm, LocalSolarTimeHours: v.LocalSolarTimeHours}
	case NonPolar:
		return OrbitSpec{Type: VariantNonPolar, AltitudeKm: v.AltitudeKm, InclinationDeg: v.InclinationDeg, RAANDeg: v.RAANDeg}
	default:
		return OrbitSpec{}
	}
}

// SunSyncInclination is the three-band approximation of the sun-synchronous
// inclination for a circular orbit at altitudeKm.
func SunSyncInclination(altitudeKm float64) float64 {
	switch {
	case altitudeKm < 500:
		return 97.4
	case altitudeKm > 1000:
		return 99.5
	default:
		return 98.6
	}
}
