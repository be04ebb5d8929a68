package sim

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/jaivanshchawla/Satviz/internal/beacon"
	"github.com/jaivanshchawla/Satviz/internal/orbit"
)

// ErrInvalidConfig wraps every Config validation failure.
var ErrInvalidConfig = errors.New("invalid simulation config")

// HandshakeMode selects the link eligibility rule.
type HandshakeMode string

const (
	// ModeOneWay requires the Beacon to sit inside the Iridium nadir cone.
	ModeOneWay HandshakeMode = "one-way"
	// ModeBidirectional requires each satellite to sit inside one of the
	// other's horizon cones.
	ModeBidirectional HandshakeMode = "bi-directional"
)

// ParseMode accepts the canonical mode names and a few spellings seen in
// config files.
func ParseMode(s string) (HandshakeMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case string(ModeOneWay), "oneway", "one_way":
		return ModeOneWay, nil
	case string(ModeBidirectional), "bidirectional", "bi_directional", "two-way":
		return ModeBidirectional, nil
	default:
		return "", fmt.Errorf("%w: unknown handshake mode %q", ErrInvalidConfig, s)
	}
}

// Config is one simulation request.
type Config struct {
	Beacon        beacon.Orbit  `json:"-"`
	IridiumFOVDeg float64       `json:"iridiumFovDeg"`
	BeaconFOVDeg  float64       `json:"beaconFovDeg"`
	DurationHours float64       `json:"simulationDurationHours"`
	TimeStepSec   float64       `json:"simulationTimeStepSec"`
	Mode          HandshakeMode `json:"handshakeMode"`
	Start         *time.Time    `json:"startTime,omitempty"`
	Datasets      []string      `json:"datasets,omitempty"`
}

// Validate checks everything except the Beacon orbit parameters, which the
// synthesizer validates with richer context.
func (c Config) Validate() error {
	if c.Beacon == nil {
		return fmt.Errorf("%w: beacon orbit is required", ErrInvalidConfig)
	}
	if !validFOV(c.IridiumFOVDeg) {
		return fmt.Errorf("%w: iridium fov %v must be in (0, 180]", ErrInvalidConfig, c.IridiumFOVDeg)
	}
	if !validFOV(c.BeaconFOVDeg) {
		return fmt.Errorf("%w: beacon fov %v must be in (0, 180]", ErrInvalidConfig, c.BeaconFOVDeg)
	}
	if !(c.DurationHours > 0) || math.IsInf(c.DurationHours, 0) {
		return fmt.Errorf("%w: duration %v hours must be > 0", ErrInvalidConfig, c.DurationHours)
	}
	if !(c.TimeStepSec > 0) || math.IsInf(c.TimeStepSec, 0) {
		return fmt.Errorf("%w: time step %v s must be > 0", ErrInvalidConfig, c.TimeStepSec)
	}
	if c.Step() <= 0 {
		return fmt.Errorf("%w: time step %v s is below clock resolution", ErrInvalidConfig, c.TimeStepSec)
	}
	switch c.Mode {
	case ModeOneWay, ModeBidirectional:
	default:
		return fmt.Errorf("%w: unknown handshake mode %q", ErrInvalidConfig, c.Mode)
	}
	// The Beacon epoch is encoded with a two-digit year.
	if c.Start != nil && !orbit.EpochYearInRange(c.Start.UTC().Year()) {
		return fmt.Errorf("%w: start time %s outside the encodable epoch years %d-%d",
			ErrInvalidConfig, c.Start.UTC().Format(time.RFC3339), orbit.MinEpochYear, orbit.MaxEpochYear)
	}
	return nil
}

func validFOV(deg float64) bool {
	return deg > 0 && deg <= 180
}

// Step is the configured time step.
func (c Config) Step() time.Duration {
	return time.Duration(math.Round(c.TimeStepSec * float64(time.Second)))
}

// Duration is the configured horizon.
func (c Config) Duration() time.Duration {
	return time.Duration(math.Round(c.DurationHours * float64(time.Hour)))
}

// MarshalJSON writes the Beacon orbit in its flat OrbitSpec form.
func (c Config) MarshalJSON() ([]byte, error) {
	type alias Config
	var spec *beacon.OrbitSpec
	if c.Beacon != nil {
		s := beacon.SpecOf(c.Beacon)
		spec = &s
	}
	return json.Marshal(struct {
		alias
		Beacon *beacon.OrbitSpec `json:"beacon,omitempty"`
	}{alias(c), spec})
}

// UnmarshalJSON reads a flat OrbitSpec back into its variant.
func (c *Config) UnmarshalJSON(b []byte) error {
	type alias Config
	aux := struct {
		*alias
		Beacon *beacon.OrbitSpec `json:"beacon"`
	}{alias: (*alias)(c)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	if aux.Beacon != nil {
		if strings.TrimSpace(aux.Beacon.Type) == "" {
			return fmt.Errorf("%w: beacon orbit needs a type (%q or %q)",
				ErrInvalidConfig, beacon.VariantSunSynchronous, beacon.VariantNonPolar)
		}
		o, err := aux.Beacon.Orbit()
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
		c.Beacon = o
	}
	return nil
}
