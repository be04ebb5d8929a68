// Beaconctl is the command-line client for a running beacond. It submits
// simulations, inspects stored runs, and streams live engine events.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/jaivanshchawla/Satviz/internal/beacon"
	"github.com/jaivanshchawla/Satviz/internal/ctl"
)

func main() {
	var (
		host    = pflag.StringP("host", "H", "http://127.0.0.1:8090", "beacond URL (e.g. http://192.168.8.1:8090)")
		jsonOut = pflag.Bool("json", false, "Output raw JSON instead of formatted text")
		filter  = pflag.StringSlice("filter", nil, "Event types to show in watch (e.g. --filter handshake,blackout_start)")
	)

	// Stop parsing global flags at the first non-flag argument (the command
	// name), so subcommand-specific flags like --duration are not rejected.
	pflag.CommandLine.SetInterspersed(false)
	pflag.Parse()

	if pflag.NArg() < 1 {
		usage()
		os.Exit(2)
	}

	cmd := pflag.Arg(0)
	subArgs := pflag.Args()[1:]

	var err error
	switch cmd {
	// ── Query commands ────────────────────────────────────────────
	case "status":
		err = ctl.Status(*host, *jsonOut)

	case "health":
		err = ctl.Health(*host, *jsonOut)

	case "version":
		err = ctl.VersionInfo(*host, *jsonOut)

	case "config":
		err = ctl.Config(*host, *jsonOut)

	case "iridium":
		err = ctl.Iridium(*host, *jsonOut)

	case "runs":
		err = ctl.Runs(*host, *jsonOut)

	case "run":
		fs := pflag.NewFlagSet("run", pflag.ContinueOnError)
		rows := fs.Int("rows", 20, "Rows per table (0 = all)")
		if err = fs.Parse(subArgs); err != nil {
			break
		}
		err = ctl.Run(*host, fs.Arg(0), *rows, *jsonOut)

	// ── Control commands ──────────────────────────────────────────
	case "simulate":
		opts, perr := simulateOptions(subArgs)
		if perr != nil {
			err = perr
			break
		}
		opts.JSON = *jsonOut
		err = ctl.Simulate(*host, opts)

	// ── Live streaming ────────────────────────────────────────────
	case "watch":
		err = ctl.Watch(*host, ctl.WatchOptions{
			Filter: *filter,
			JSON:   *jsonOut,
		})

	default:
		usage()
		os.Exit(2)
	}

	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// simulateOptions parses the simulate subcommand flags. Beacon flags only
// take effect together with --orbit.
func simulateOptions(args []string) (ctl.SimulateOptions, error) {
	var (
		opts ctl.SimulateOptions
		spec beacon.OrbitSpec
		raan float64
	)
	fs := pflag.NewFlagSet("simulate", pflag.ContinueOnError)
	fs.StringVar(&spec.Type, "orbit", "", "Beacon orbit: sun-synchronous or non-polar")
	fs.Float64Var(&spec.AltitudeKm, "altitude", 0, "Beacon altitude in km")
	fs.Float64Var(&spec.LocalSolarTimeHours, "lst", 0, "Sun-synchronous local solar time in hours [0, 24)")
	fs.Float64Var(&spec.InclinationDeg, "inclination", 0, "Non-polar inclination in degrees")
	fs.Float64Var(&raan, "raan", 0, "Non-polar right ascension of the ascending node in degrees")
	fs.Float64Var(&opts.IridiumFOVDeg, "iridium-fov", 0, "Iridium antenna field of view in degrees")
	fs.Float64Var(&opts.BeaconFOVDeg, "beacon-fov", 0, "Beacon antenna field of view in degrees")
	fs.Float64Var(&opts.DurationHours, "duration", 0, "Simulation length in hours")
	fs.Float64Var(&opts.TimeStepSec, "step", 0, "Time step in seconds")
	fs.StringVar(&opts.Mode, "mode", "", "Handshake mode: one-way or bi-directional")
	fs.StringVar(&opts.Start, "start", "", "Start time (RFC 3339); default is now")
	fs.StringSliceVar(&opts.Datasets, "datasets", nil, "Iridium datasets to use (comma-separated)")
	fs.BoolVar(&opts.Async, "async", false, "Return once the run is accepted")
	fs.IntVar(&opts.MaxRows, "rows", 20, "Rows per table (0 = all)")
	if err := fs.Parse(args); err != nil {
		return opts, err
	}

	if spec.Type != "" {
		if fs.Changed("raan") {
			spec.RAANDeg = &raan
		}
		opts.Beacon = &spec
	} else if fs.Changed("altitude") || fs.Changed("lst") || fs.Changed("inclination") || fs.Changed("raan") {
		return opts, fmt.Errorf("beacon flags need --orbit")
	}
	return opts, nil
}

func usage() {
	fmt.Print(`
  beaconctl - Satviz control CLI

  USAGE
    beaconctl [flags] <command> [command-flags]

  COMMANDS (query)
    status          Show daemon state, uptime, and run counts
    health          Check daemon and component health
    version         Show CLI and daemon version information
    config          Show the daemon's running configuration
    iridium         Show Iridium element cache status
    runs            List stored simulations
    run ID          Show one simulation's results

  COMMANDS (control)
    simulate        Run a simulation on the daemon

  COMMANDS (live)
    watch           Stream live events from the daemon (Ctrl-C to stop)

  GLOBAL FLAGS
    -H, --host URL      Daemon base URL (default: http://127.0.0.1:8090)
        --json          Output raw JSON instead of formatted text
        --filter TYPE   Event types to show in watch (comma-separated)

  COMMAND FLAGS
    simulate:
        --orbit TYPE        sun-synchronous or non-polar
        --altitude KM       Beacon altitude
        --lst HOURS         Local solar time (sun-synchronous)
        --inclination DEG   Inclination (non-polar)
        --raan DEG          Ascending node (non-polar, default 0)
        --iridium-fov DEG   Iridium antenna field of view
        --beacon-fov DEG    Beacon antenna field of view
        --duration HOURS    Simulation length
        --step SECS         Time step
        --mode MODE         one-way or bi-directional
        --start TIME        RFC 3339 start time
        --datasets LIST     Iridium datasets to use
        --async             Return once the run is accepted
        --rows N            Rows per table (0 = all)

    run:
        --rows N            Rows per table (0 = all)

  EXAMPLES
    beaconctl status
    beaconctl --json status
    beaconctl simulate
    beaconctl simulate --orbit non-polar --altitude 550 --inclination 53 --duration 6
    beaconctl simulate --orbit sun-synchronous --altitude 600 --lst 10.5 --mode bi-directional
    beaconctl runs
    beaconctl run 3f2c1a90-...
    beaconctl --host http://192.168.8.1:8090 watch
    beaconctl --filter handshake,blackout_start,blackout_end watch

`)
}
