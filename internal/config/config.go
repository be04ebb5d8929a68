// Package config handles loading, defaulting, and validation of the Satviz
// TOML configuration file. Every section maps to a typed struct so the rest
// of the codebase gets strong typing without manual key lookups.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/jaivanshchawla/Satviz/internal/beacon"
	"github.com/jaivanshchawla/Satviz/internal/events"
	"github.com/jaivanshchawla/Satviz/internal/iridium"
	"github.com/jaivanshchawla/Satviz/internal/orbit"
	"github.com/jaivanshchawla/Satviz/internal/sim"
)

// Config is the top-level configuration, mirroring the TOML sections.
type Config struct {
	Logging    LoggingConfig    `toml:"logging"    json:"logging"`
	Server     ServerConfig     `toml:"server"     json:"server"`
	Data       DataConfig       `toml:"data"       json:"data"`
	Iridium    IridiumConfig    `toml:"iridium"    json:"iridium"`
	Propagator PropagatorConfig `toml:"propagator" json:"propagator"`
	Physics    orbit.Physics    `toml:"physics"    json:"physics"`
	Simulation SimulationConfig `toml:"simulation" json:"simulation"`
	Beacon     beacon.OrbitSpec `toml:"beacon"     json:"beacon"`
}

type LoggingConfig struct {
	Level  string `toml:"level"  json:"level"`
	Format string `toml:"format" json:"format"`
}

// NewLogger builds the process logger described by the section.
func (l LoggingConfig) NewLogger(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: events.ParseLevel(l.Level)}
	if l.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

type ServerConfig struct {
	Bind             string `toml:"bind"              json:"bind"`
	MaxRuns          int    `toml:"max_runs"          json:"max_runs"`
	HeartbeatSeconds int    `toml:"heartbeat_seconds" json:"heartbeat_seconds"`
}

type DataConfig struct {
	Root string `toml:"root" json:"root"`
}

type IridiumConfig struct {
	Datasets     map[string]string `toml:"datasets"      json:"datasets"`
	Selected     []string          `toml:"selected"      json:"selected"`
	RefreshHours int               `toml:"refresh_hours" json:"refresh_hours"`
	Fallback     bool              `toml:"fallback"      json:"fallback"`
}

type PropagatorConfig struct {
	Model string `toml:"model" json:"model"`
}

type SimulationConfig struct {
	IridiumFOVDeg float64 `toml:"iridium_fov_deg" json:"iridium_fov_deg"`
	BeaconFOVDeg  float64 `toml:"beacon_fov_deg"  json:"beacon_fov_deg"`
	DurationHours float64 `toml:"duration_hours"  json:"duration_hours"`
	TimeStepSec   float64 `toml:"time_step_sec"   json:"time_step_sec"`
	HandshakeMode string  `toml:"handshake_mode"  json:"handshake_mode"`
	// StartTime is RFC 3339; empty means "now" at run time.
	StartTime string `toml:"start_time" json:"start_time"`
}

// Default returns a Config populated with sane defaults. Values here are
// used whenever the TOML file omits a field.
func Default() Config {
	return Config{
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Server: ServerConfig{
			Bind:             "127.0.0.1:8090",
			MaxRuns:          32,
			HeartbeatSeconds: 10,
		},
		Data: DataConfig{
			Root: "/var/lib/satviz",
		},
		Iridium: IridiumConfig{
			RefreshHours: 12,
			Fallback:     true,
		},
		Propagator: PropagatorConfig{
			Model: string(orbit.ModelSGP4),
		},
		Physics: orbit.DefaultPhysics(),
		Simulation: SimulationConfig{
			IridiumFOVDeg: 62,
			BeaconFOVDeg:  62,
			DurationHours: 24,
			TimeStepSec:   60,
			HandshakeMode: string(sim.ModeOneWay),
		},
		Beacon: beacon.OrbitSpec{
			Type:                beacon.VariantSunSynchronous,
			AltitudeKm:          550,
			LocalSolarTimeHours: 10.5,
		},
	}
}

// Load reads the TOML file at path, layers it on top of the defaults, and
// validates the result. An error is returned if the file can't be read,
// parsed, or if any constraint is violated.
func Load(path string) (Config, error) {
	cfg := Default()

	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}

	if err := toml.Unmarshal(b, &cfg); err != nil {
		return cfg, err
	}
	cfg.fill()

	if err := validate(cfg); err != nil {
		return cfg, err
	}

	return cfg, nil
}

// LoadOptional is Load, except a missing file yields the defaults.
func LoadOptional(path string) (Config, error) {
	if path == "" {
		cfg := Default()
		cfg.fill()
		return cfg, validate(cfg)
	}
	cfg, err := Load(path)
	if errors.Is(err, os.ErrNotExist) {
		cfg = Default()
		cfg.fill()
		return cfg, validate(cfg)
	}
	return cfg, err
}

func (c *Config) fill() {
	if len(c.Iridium.Datasets) == 0 {
		c.Iridium.Datasets = iridium.DefaultDatasets()
	}
}

// Validate re-checks a Config built or modified in code.
func Validate(cfg Config) error {
	return validate(cfg)
}

func validate(cfg Config) error {
	if cfg.Data.Root == "" {
		return errors.New("data.root must not be empty")
	}
	if cfg.Server.MaxRuns < 1 {
		return errors.New("server.max_runs must be >= 1")
	}
	if cfg.Server.HeartbeatSeconds < 1 {
		return errors.New("server.heartbeat_seconds must be >= 1")
	}
	switch cfg.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("logging.format must be text or json, got %q", cfg.Logging.Format)
	}
	if cfg.Iridium.RefreshHours < 1 {
		return errors.New("iridium.refresh_hours must be >= 1")
	}
	for _, name := range cfg.Iridium.Selected {
		if _, ok := cfg.Iridium.Datasets[name]; !ok {
			return fmt.Errorf("iridium.selected names unknown dataset %q", name)
		}
	}
	if _, err := orbit.ParseModel(cfg.Propagator.Model); err != nil {
		return fmt.Errorf("propagator.model: %w", err)
	}
	if err := cfg.Physics.Validate(); err != nil {
		return err
	}
	if _, err := cfg.Beacon.Orbit(); err != nil {
		return fmt.Errorf("beacon.type: %w", err)
	}
	if cfg.Simulation.StartTime != "" {
		if _, err := time.Parse(time.RFC3339, cfg.Simulation.StartTime); err != nil {
			return fmt.Errorf("simulation.start_time: %w", err)
		}
	}
	sc, err := cfg.SimConfig()
	if err != nil {
		return err
	}
	return sc.Validate()
}

// Model returns the configured propagation backend.
func (c Config) Model() orbit.Model {
	m, err := orbit.ParseModel(c.Propagator.Model)
	if err != nil {
		return orbit.ModelSGP4
	}
	return m
}

// RefreshInterval is how long a cached dataset counts as fresh.
func (c Config) RefreshInterval() time.Duration {
	return time.Duration(c.Iridium.RefreshHours) * time.Hour
}

// SimConfig converts the [simulation] and [beacon] sections into an engine
// request.
func (c Config) SimConfig() (sim.Config, error) {
	o, err := c.Beacon.Orbit()
	if err != nil {
		return sim.Config{}, err
	}
	mode, err := sim.ParseMode(c.Simulation.HandshakeMode)
	if err != nil {
		return sim.Config{}, err
	}

	sc := sim.Config{
		Beacon:        o,
		IridiumFOVDeg: c.Simulation.IridiumFOVDeg,
		BeaconFOVDeg:  c.Simulation.BeaconFOVDeg,
		DurationHours: c.Simulation.DurationHours,
		TimeStepSec:   c.Simulation.TimeStepSec,
		Mode:          mode,
		Datasets:      append([]string(nil), c.Iridium.Selected...),
	}
	if c.Simulation.StartTime != "" {
		start, err := time.Parse(time.RFC3339, c.Simulation.StartTime)
		if err != nil {
			return sim.Config{}, fmt.Errorf("simulation.start_time: %w", err)
		}
		start = start.UTC()
		sc.Start = &start
	}
	return sc, nil
}

// IridiumOptions builds the element store configuration.
func (c Config) IridiumOptions() iridium.Options {
	return iridium.Options{
		Datasets: c.Iridium.Datasets,
		Selected: c.Iridium.Selected,
		CacheDir: c.Data.Root,
		MaxAge:   c.RefreshInterval(),
		Fallback: c.Iridium.Fallback,
	}
}
