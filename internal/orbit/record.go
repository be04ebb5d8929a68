// Package orbit bridges encoded element sets and time queries. It parses
// two-line element sets, initializes an SGP4 propagation state for each, and
// answers "where is this satellite at instant t" in the Earth-centered
// inertial frame.
//
// Two SGP4 backends are available: github.com/akhenakh/sgp4 (the default)
// and the Vallado port in github.com/joshuaferrara/go-satellite. Whichever
// backend propagates, every element set is first run through the Vallado
// initializer so rejections carry the standard status codes.
package orbit

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/akhenakh/sgp4"
	satellite "github.com/joshuaferrara/go-satellite"

	"github.com/jaivanshchawla/Satviz/internal/geometry"
)

// Model selects the SGP4 implementation used to propagate a Record.
type Model string

const (
	ModelSGP4    Model = "sgp4"
	ModelVallado Model = "vallado"
)

// ParseModel maps a config string to a Model. The empty string selects the
// default backend.
func ParseModel(s string) (Model, error) {
	switch Model(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModelSGP4:
		return ModelSGP4, nil
	case ModelVallado:
		return ModelVallado, nil
	default:
		return "", fmt.Errorf("unknown propagator model %q (want %q or %q)", s, ModelSGP4, ModelVallado)
	}
}

// State is a satellite's inertial position (km) and velocity (km/s) at Time.
type State struct {
	Time     time.Time
	Position geometry.Vector
	Velocity geometry.Vector
}

// Record is the initialized propagation state of one satellite. A Record is
// owned by exactly one satellite; Propagate does not mutate it.
type Record struct {
	Name          string
	CatalogNumber int
	Epoch         time.Time
	Elements      TLE

	model Model
	tle   *sgp4.TLE
	sat   satellite.Satellite
}

// Initialize validates t and builds a Record that propagates with model.
// A rejected element set yields an *ElementParseError.
func Initialize(t TLE, model Model) (*Record, error) {
	name := strings.TrimSpace(t.Name)

	if err := ValidateFormat(t); err != nil {
		return nil, &ElementParseError{Name: name, Cause: "invalid element format", Err: err}
	}

	catnum, err := t.CatalogNumber()
	if err != nil {
		return nil, &ElementParseError{Name: name, Cause: "invalid catalog number", Err: err}
	}
	epoch, err := t.Epoch()
	if err != nil {
		return nil, &ElementParseError{Name: name, Cause: "invalid epoch", Err: err}
	}

	if err := parseColumns(t); err != nil {
		return nil, &ElementParseError{Name: name, Cause: "invalid element field", Err: err}
	}
	if code := screenElements(t.Line2); code != StatusOK {
		return nil, &ElementParseError{Name: name, Code: code, Cause: StatusCause(code)}
	}

	// go-satellite slices fixed columns without checking, so it only ever
	// sees lines that passed ValidateFormat and screenElements.
	sat := satellite.TLEToSat(t.Line1, t.Line2, satellite.GravityWGS72)
	if code := int(sat.Error); code != StatusOK {
		return nil, &ElementParseError{Name: name, Code: code, Cause: StatusCause(code)}
	}

	label := name
	if label == "" {
		label = fmt.Sprintf("SAT %d", catnum)
	}
	parsed, err := sgp4.ParseTLE(label + "\n" + t.Line1 + "\n" + t.Line2)
	if err != nil {
		return nil, &ElementParseError{Name: name, Cause: "sgp4 parse failed", Err: err}
	}

	if model == "" {
		model = ModelSGP4
	}

	return &Record{
		Name:          name,
		CatalogNumber: catnum,
		Epoch:         epoch,
		Elements:      t,
		model:         model,
		tle:           parsed,
		sat:           sat,
	}, nil
}

// parseColumns parses every numeric field the Vallado initializer reads,
// sliced and cleaned the same way. go-satellite exits the process on a
// field it cannot parse, so each one has to be known good before TLEToSat.
func parseColumns(t TLE) error {
	l1, l2 := t.Line1, t.Line2
	squeeze := func(s string) string { return strings.Replace(s, " ", "", 2) }

	ints := []struct{ field, raw string }{
		{"catalog number", strings.TrimSpace(l1[2:7])},
		{"epoch year", l1[18:20]},
	}
	for _, f := range ints {
		if _, err := strconv.ParseInt(f.raw, 10, 0); err != nil {
			return fmt.Errorf("%w: %s %q", ErrMalformedElements, f.field, f.raw)
		}
	}

	floats := []struct{ field, raw string }{
		{"epoch day", l1[20:32]},
		{"mean motion derivative", squeeze(l1[33:43])},
		{"mean motion second derivative", squeeze(l1[44:45] + "." + l1[45:50] + "e" + l1[50:52])},
		{"bstar", squeeze(l1[53:54] + "." + l1[54:59] + "e" + l1[59:61])},
		{"inclination", squeeze(l2[8:16])},
		{"right ascension", squeeze(l2[17:25])},
		{"eccentricity", "." + l2[26:33]},
		{"argument of perigee", squeeze(l2[34:42])},
		{"mean anomaly", squeeze(l2[43:51])},
		{"mean motion", squeeze(l2[52:63])},
	}
	for _, f := range floats {
		if _, err := strconv.ParseFloat(f.raw, 64); err != nil {
			return fmt.Errorf("%w: %s %q", ErrMalformedElements, f.field, f.raw)
		}
	}
	return nil
}

// xke is sqrt(GM) in earth radii^1.5 per minute for WGS-72.
const xke = 0.0743669161331734132

// screenElements applies the mean-element checks of the SGP4 initializer
// to line 2 before any backend divides by the mean motion.
func screenElements(line2 string) int {
	ecc, err := strconv.ParseFloat("0."+strings.TrimSpace(line2[26:33]), 64)
	if err != nil {
		return StatusMeanElements
	}
	revPerDay, err := strconv.ParseFloat(strings.TrimSpace(line2[52:63]), 64)
	if err != nil || !(revPerDay > 0) {
		return StatusMeanMotion
	}

	radPerMin := revPerDay * 2 * math.Pi / 1440
	a := math.Pow(xke/radPerMin, 2.0/3.0)
	if ecc >= 1.0 || a < 0.95 {
		return StatusMeanElements
	}
	if a*(1-ecc) < 1.0 {
		return StatusSubOrbital
	}
	return StatusOK
}

// Model reports which backend propagates r.
func (r *Record) Model() Model {
	return r.model
}

// Propagate returns the inertial state at t. Model failures and non-finite
// output are reported as ErrPropagation.
func (r *Record) Propagate(t time.Time) (State, error) {
	var pos, vel geometry.Vector

	switch r.model {
	case ModelVallado:
		u := t.UTC()
		p, v := satellite.Propagate(r.sat, u.Year(), int(u.Month()), u.Day(), u.Hour(), u.Minute(), u.Second())
		pos = geometry.Vector{X: p.X, Y: p.Y, Z: p.Z}
		vel = geometry.Vector{X: v.X, Y: v.Y, Z: v.Z}

	default:
		tsince := t.Sub(r.tle.EpochTime()).Minutes()
		eci, err := r.tle.FindPosition(tsince)
		if err != nil {
			return State{}, fmt.Errorf("%w: %s at %s: %v", ErrPropagation, r.Name, t.UTC().Format(time.RFC3339), err)
		}
		pos = geometry.Vector{X: eci.Position.X, Y: eci.Position.Y, Z: eci.Position.Z}
		vel = geometry.Vector{X: eci.Velocity.X, Y: eci.Velocity.Y, Z: eci.Velocity.Z}
	}

	if !pos.IsFinite() || !vel.IsFinite() {
		return State{}, fmt.Errorf("%w: %s at %s: non-finite state", ErrPropagation, r.Name, t.UTC().Format(time.RFC3339))
	}
	if geometry.Magnitude(pos) == 0 {
		return State{}, fmt.Errorf("%w: %s at %s: zero position", ErrPropagation, r.Name, t.UTC().Format(time.RFC3339))
	}

	return State{Time: t, Position: pos, Velocity: vel}, nil
}

// Geodetic is a derived latitude/longitude/altitude fix.
type Geodetic struct {
	LatitudeDeg  float64 `json:"latitude"`
	LongitudeDeg float64 `json:"longitude"`
	AltitudeKm   float64 `json:"altitude"`
}

// ECIToGeodetic rotates pos from the inertial frame into the Earth-fixed
// frame using Greenwich sidereal time at t, then inverts the WGS ellipsoid.
// It is a pure function of its arguments.
func ECIToGeodetic(pos geometry.Vector, t time.Time) Geodetic {
	eci := sgp4.Eci{
		DateTime: t.UTC(),
		Position: sgp4.Vector{X: pos.X, Y: pos.Y, Z: pos.Z},
	}
	lat, lon, alt := eci.ToGeodetic()
	if math.IsNaN(lat) || math.IsNaN(lon) || math.IsNaN(alt) {
		return Geodetic{}
	}
	return Geodetic{LatitudeDeg: lat, LongitudeDeg: lon, AltitudeKm: alt}
}
