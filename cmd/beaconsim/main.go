// Beaconsim runs one Beacon/Iridium handshake simulation in-process and
// prints a summary, or writes the full results as JSON. Configuration comes
// from an optional TOML file; flags override individual fields.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/jaivanshchawla/Satviz/internal/config"
	"github.com/jaivanshchawla/Satviz/internal/ctl"
	"github.com/jaivanshchawla/Satviz/internal/events"
	"github.com/jaivanshchawla/Satviz/internal/iridium"
	"github.com/jaivanshchawla/Satviz/internal/orbit"
	"github.com/jaivanshchawla/Satviz/internal/sim"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintln(os.Stderr, "beaconsim:", err)
		os.Exit(1)
	}
}

type options struct {
	configPath string
	tleFile    string
	offline    bool
	out        string
	jsonOut    bool
	rows       int
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	var opts options
	fs := pflag.NewFlagSet("beaconsim", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVarP(&opts.configPath, "config", "c", "", "Path to config TOML (optional)")
	fs.StringVar(&opts.tleFile, "tle-file", "", "Read Iridium elements from a local TLE file instead of the network")
	fs.BoolVar(&opts.offline, "offline", false, "Use only the embedded placeholder Iridium element set")
	fs.StringVarP(&opts.out, "out", "o", "", "Write full JSON results to this file")
	fs.BoolVar(&opts.jsonOut, "json", false, "Write full JSON results to stdout")
	fs.IntVar(&opts.rows, "rows", 20, "Rows per table in the summary (0 = all)")

	fs.String("log-level", "", "Log level (debug, info, warn, error)")
	fs.String("model", "", "Propagator: sgp4 or vallado")
	fs.String("data-root", "", "Directory for the element cache")
	fs.String("orbit", "", "Beacon orbit: sun-synchronous or non-polar")
	fs.Float64("altitude", 0, "Beacon altitude in km")
	fs.Float64("lst", 0, "Sun-synchronous local solar time in hours [0, 24)")
	fs.Float64("inclination", 0, "Non-polar inclination in degrees")
	fs.Float64("raan", 0, "Non-polar right ascension of the ascending node in degrees")
	fs.Float64("iridium-fov", 0, "Iridium antenna field of view in degrees")
	fs.Float64("beacon-fov", 0, "Beacon antenna field of view in degrees")
	fs.Float64("duration", 0, "Simulation length in hours")
	fs.Float64("step", 0, "Time step in seconds")
	fs.String("mode", "", "Handshake mode: one-way or bi-directional")
	fs.String("start", "", "Start time (RFC 3339); default is now")
	fs.StringSlice("datasets", nil, "Iridium datasets to use (comma-separated)")

	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.LoadOptional(opts.configPath)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := applyFlags(fs, &cfg); err != nil {
		return err
	}
	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	logger := cfg.Logging.NewLogger(stderr)
	sink := events.NewLogSink(logger)

	var source sim.Source
	switch {
	case opts.offline:
		source = staticSource(iridium.Embedded())
	case opts.tleFile != "":
		source = iridium.FileSource{Path: opts.tleFile, Sink: sink}
	default:
		iopts := cfg.IridiumOptions()
		iopts.Sink = sink
		source = iridium.NewStore(iopts)
	}

	simCfg, err := cfg.SimConfig()
	if err != nil {
		return err
	}

	eng := sim.New(sim.Options{
		Source:  source,
		Physics: cfg.Physics,
		Model:   cfg.Model(),
		Sink:    sink,
	})

	began := time.Now()
	res, err := eng.Run(ctx, simCfg)
	if err != nil {
		return err
	}
	logger.Info("simulation finished", "run_id", res.RunID, "elapsed", time.Since(began).Round(time.Millisecond))

	if opts.out != "" {
		if err := writeResults(opts.out, res); err != nil {
			return err
		}
		logger.Info("results written", "path", opts.out)
	}
	if opts.jsonOut {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}
	ctl.RenderResults(stdout, res, opts.rows)
	return nil
}

// applyFlags copies every explicitly set flag onto cfg.
func applyFlags(fs *pflag.FlagSet, cfg *config.Config) error {
	var firstErr error
	str := func(name string, dst *string) {
		if fs.Changed(name) {
			v, err := fs.GetString(name)
			if err != nil && firstErr == nil {
				firstErr = err
			}
			*dst = v
		}
	}
	num := func(name string, dst *float64) {
		if fs.Changed(name) {
			v, err := fs.GetFloat64(name)
			if err != nil && firstErr == nil {
				firstErr = err
			}
			*dst = v
		}
	}

	str("log-level", &cfg.Logging.Level)
	str("model", &cfg.Propagator.Model)
	str("data-root", &cfg.Data.Root)

	str("orbit", &cfg.Beacon.Type)
	num("altitude", &cfg.Beacon.AltitudeKm)
	num("lst", &cfg.Beacon.LocalSolarTimeHours)
	num("inclination", &cfg.Beacon.InclinationDeg)
	if fs.Changed("raan") {
		v, err := fs.GetFloat64("raan")
		if err != nil {
			return err
		}
		cfg.Beacon.RAANDeg = &v
	}

	num("iridium-fov", &cfg.Simulation.IridiumFOVDeg)
	num("beacon-fov", &cfg.Simulation.BeaconFOVDeg)
	num("duration", &cfg.Simulation.DurationHours)
	num("step", &cfg.Simulation.TimeStepSec)
	str("mode", &cfg.Simulation.HandshakeMode)
	str("start", &cfg.Simulation.StartTime)

	if fs.Changed("datasets") {
		v, err := fs.GetStringSlice("datasets")
		if err != nil {
			return err
		}
		cfg.Iridium.Selected = v
	}
	return firstErr
}

// writeResults writes res as indented JSON via a temp file and rename.
func writeResults(path string, res *sim.Results) error {
	b, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// staticSource serves a fixed set of element sets.
type staticSource []orbit.TLE

func (s staticSource) Fetch(context.Context, []string) ([]orbit.TLE, error) {
	return s, nil
}
