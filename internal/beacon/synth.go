package beacon

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/jaivanshchawla/Satviz/internal/astro"
	"github.com/jaivanshchawla/Satviz/internal/orbit"
)

// Placeholder identity stamped on every synthesized element set.
const (
	CatalogNumber  = 99999
	Classification = "U"
	Designator     = "00000A"
	Name           = "BEACON"

	// Eccentricity is the near-circular value used for every Beacon orbit.
	Eccentricity = 1e-7

	elementSetNumber = 999
)

// Elements are the mean Keplerian elements of a synthesized orbit.
type Elements struct {
	Epoch               time.Time `json:"epoch"`
	InclinationDeg      float64   `json:"inclinationDeg"`
	RAANDeg             float64   `json:"raanDeg"`
	Eccentricity        float64   `json:"eccentricity"`
	ArgPerigeeDeg       float64   `json:"argPerigeeDeg"`
	MeanAnomalyDeg      float64   `json:"meanAnomalyDeg"`
	MeanMotionRevPerDay float64   `json:"meanMotionRevPerDay"`
	SemiMajorAxisKm     float64   `json:"semiMajorAxisKm"`
}

// Synthesizer turns an Orbit into an initialized propagation record.
type Synthesizer struct {
	Physics orbit.Physics
	Model   orbit.Model
}

// New returns a Synthesizer using the given constants and backend.
func New(p orbit.Physics, m orbit.Model) *Synthesizer {
	return &Synthesizer{Physics: p, Model: m}
}

// Elements validates o and derives its mean elements at epoch.
func (s *Synthesizer) Elements(o Orbit, epoch time.Time) (Elements, error) {
	if o == nil {
		return Elements{}, &InvalidOrbitParametersError{Field: "orbit", Value: nil, Reason: "no orbit given"}
	}
	alt := o.Altitude()
	if !(alt > 0) || math.IsInf(alt, 0) {
		return Elements{}, &InvalidOrbitParametersError{Field: "altitude_km", Value: alt, Reason: "must be > 0"}
	}

	el := Elements{
		Epoch:        epoch.UTC(),
		Eccentricity: Eccentricity,
	}

	switch v := o.(type) {
	case SunSynchronous:
		lst := v.LocalSolarTimeHours
		if !(lst >= 0 && lst < 24) {
			return Elements{}, &InvalidOrbitParametersError{Field: "local_solar_time_hours", Value: lst, Reason: "must be in [0, 24)"}
		}
		sunRA := astro.SunRightAscension(epoch)
		ltan := math.Mod(lst+12, 24)
		el.InclinationDeg = SunSyncInclination(alt)
		el.RAANDeg = astro.NormalizeDegrees(sunRA + 15*(ltan-12))

	case NonPolar:
		inc := v.InclinationDeg
		if !(inc >= 0 && inc <= 180) {
			return Elements{}, &InvalidOrbitParametersError{Field: "inclination_deg", Value: inc, Reason: "must be in [0, 180]"}
		}
		raan := v.RAAN()
		if !(raan >= 0 && raan < 360) {
			return Elements{}, &InvalidOrbitParametersError{Field: "raan_deg", Value: raan, Reason: "must be in [0, 360)"}
		}
		el.InclinationDeg = inc
		el.RAANDeg = raan

	default:
		return Elements{}, &InvalidOrbitParametersError{Field: "orbit", Value: fmt.Sprintf("%T", o), Reason: "unsupported orbit variant"}
	}

	el.SemiMajorAxisKm = s.Physics.EarthRadiusKm + alt
	el.MeanMotionRevPerDay = s.Physics.CircularMeanMotion(el.SemiMajorAxisKm)
	return el, nil
}

// Encode renders el as a named two-line element set with checksums.
func Encode(el Elements) (orbit.TLE, error) {
	computed := map[string]float64{
		"inclination_deg":         el.InclinationDeg,
		"raan_deg":                el.RAANDeg,
		"mean_motion_rev_per_day": el.MeanMotionRevPerDay,
		"semi_major_axis_km":      el.SemiMajorAxisKm,
	}

	epoch := el.Epoch.UTC()
	if !orbit.EpochYearInRange(epoch.Year()) {
		return orbit.TLE{}, &InvalidOrbitParametersError{
			Field:    "epoch",
			Value:    epoch.Format(time.RFC3339),
			Reason:   fmt.Sprintf("year must be in [%d, %d]", orbit.MinEpochYear, orbit.MaxEpochYear),
			Computed: computed,
		}
	}
	secs := float64(epoch.Hour()*3600+epoch.Minute()*60+epoch.Second()) + float64(epoch.Nanosecond())/1e9
	day := float64(epoch.YearDay()) + secs/86400

	line1 := fmt.Sprintf("1 %05d%s %-8s %02d%012.8f %10s %8s %8s 0 %4d",
		CatalogNumber, Classification, Designator,
		epoch.Year()%100, day,
		" .00000000", " 00000-0", " 00000-0",
		elementSetNumber)

	raan := math.Mod(math.Round(el.RAANDeg*1e4)/1e4, 360)
	ecc := int(math.Round(el.Eccentricity * 1e7))
	line2 := fmt.Sprintf("2 %05d %8.4f %8.4f %07d %8.4f %8.4f %11.8f%5d",
		CatalogNumber, el.InclinationDeg, raan, ecc,
		el.ArgPerigeeDeg, el.MeanAnomalyDeg, el.MeanMotionRevPerDay, 0)

	var lines [2]string
	for i, body := range []string{line1, line2} {
		line := body + strconv.Itoa(orbit.Checksum(body))
		if len(line) != orbit.LineLength {
			return orbit.TLE{}, &InvalidOrbitParametersError{
				Field:    fmt.Sprintf("line%d", i+1),
				Value:    line,
				Reason:   fmt.Sprintf("encoded length %d, expected %d", len(line), orbit.LineLength),
				Computed: computed,
			}
		}
		lines[i] = line
	}

	return orbit.TLE{Name: Name, Line1: lines[0], Line2: lines[1]}, nil
}

// Synthesize derives, encodes, and initializes the Beacon element set. Any
// failure here is fatal for the run that asked for it.
func (s *Synthesizer) Synthesize(o Orbit, epoch time.Time) (*orbit.Record, orbit.TLE, error) {
	el, err := s.Elements(o, epoch)
	if err != nil {
		return nil, orbit.TLE{}, err
	}
	tle, err := Encode(el)
	if err != nil {
		return nil, orbit.TLE{}, err
	}
	rec, err := orbit.Initialize(tle, s.Model)
	if err != nil {
		return nil, tle, fmt.Errorf("initialize beacon elements (n=%.8f rev/day, a=%.3f km): %w",
			el.MeanMotionRevPerDay, el.SemiMajorAxisKm, err)
	}
	return rec, tle, nil
}
