package ctl

import (
	"fmt"
	"sort"
	"strings"

	"github.com/jaivanshchawla/Satviz/internal/config"
)

// Config fetches and displays the daemon's running configuration.
func Config(baseURL string, jsonOutput bool) error {
	baseURL = strings.TrimRight(baseURL, "/")

	var cfg config.Config
	if err := getJSON(baseURL, "/api/config", &cfg); err != nil {
		return err
	}
	if jsonOutput {
		return printJSON(cfg)
	}

	fmt.Println()
	fmt.Println(header("DAEMON CONFIGURATION", 50))
	PrintConfig(cfg)
	fmt.Println()
	return nil
}

// PrintConfig renders cfg section by section in TOML order.
func PrintConfig(cfg config.Config) {
	section := func(name string) {
		fmt.Printf("\n  %s\n", boldStyle.Render("["+name+"]"))
	}
	kv := func(key string, val any) {
		fmt.Printf("    %s %v\n", dimStyle.Render(padRight(key+":", 24)), val)
	}

	section("logging")
	kv("level", cfg.Logging.Level)
	kv("format", cfg.Logging.Format)

	section("server")
	kv("bind", cfg.Server.Bind)
	kv("max_runs", cfg.Server.MaxRuns)
	kv("heartbeat_seconds", cfg.Server.HeartbeatSeconds)

	section("data")
	kv("root", cfg.Data.Root)

	section("iridium")
	names := make([]string, 0, len(cfg.Iridium.Datasets))
	for n := range cfg.Iridium.Datasets {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		kv("datasets."+n, cfg.Iridium.Datasets[n])
	}
	kv("selected", cfg.Iridium.Selected)
	kv("refresh_hours", cfg.Iridium.RefreshHours)
	kv("fallback", cfg.Iridium.Fallback)

	section("propagator")
	kv("model", cfg.Propagator.Model)

	section("physics")
	kv("earth_radius_km", cfg.Physics.EarthRadiusKm)
	kv("mu_km3_s2", cfg.Physics.MuKm3S2)

	section("simulation")
	kv("iridium_fov_deg", cfg.Simulation.IridiumFOVDeg)
	kv("beacon_fov_deg", cfg.Simulation.BeaconFOVDeg)
	kv("duration_hours", cfg.Simulation.DurationHours)
	kv("time_step_sec", cfg.Simulation.TimeStepSec)
	kv("handshake_mode", cfg.Simulation.HandshakeMode)
	start := cfg.Simulation.StartTime
	if start == "" {
		start = dimStyle.Render("(now)")
	}
	kv("start_time", start)

	section("beacon")
	kv("type", cfg.Beacon.Type)
	kv("altitude_km", cfg.Beacon.AltitudeKm)
	if cfg.Beacon.LocalSolarTimeHours != 0 {
		kv("local_solar_time_hours", cfg.Beacon.LocalSolarTimeHours)
	}
	if cfg.Beacon.InclinationDeg != 0 {
		kv("inclination_deg", cfg.Beacon.InclinationDeg)
	}
	if cfg.Beacon.RAANDeg != nil {
		kv("raan_deg", *cfg.Beacon.RAANDeg)
	}
}
