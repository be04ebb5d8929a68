package ctl

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jaivanshchawla/Satviz/internal/beacon"
	"github.com/jaivanshchawla/Satviz/internal/sim"
)

// runView mirrors a run as the daemon reports it.
type runView struct {
	ID          string       `json:"id"`
	Status      string       `json:"status"`
	SubmittedAt time.Time    `json:"submitted_at"`
	FinishedAt  *time.Time   `json:"finished_at,omitempty"`
	Error       string       `json:"error,omitempty"`
	Summary     *sim.Summary `json:"summary,omitempty"`
	Results     *sim.Results `json:"results,omitempty"`
}

// SimulateOptions controls the simulate command. Zero values leave the
// daemon's configured defaults in place.
type SimulateOptions struct {
	Beacon        *beacon.OrbitSpec
	IridiumFOVDeg float64
	BeaconFOVDeg  float64
	DurationHours float64
	TimeStepSec   float64
	Mode          string
	Start         string
	Datasets      []string

	// Async returns as soon as the daemon accepts the run.
	Async   bool
	MaxRows int
	JSON    bool
}

// request builds the partial simulation config the daemon layers over its
// defaults.
func (o SimulateOptions) request() (map[string]any, error) {
	body := map[string]any{}
	if o.Beacon != nil {
		body["beacon"] = o.Beacon
	}
	if o.IridiumFOVDeg != 0 {
		body["iridiumFovDeg"] = o.IridiumFOVDeg
	}
	if o.BeaconFOVDeg != 0 {
		body["beaconFovDeg"] = o.BeaconFOVDeg
	}
	if o.DurationHours != 0 {
		body["simulationDurationHours"] = o.DurationHours
	}
	if o.TimeStepSec != 0 {
		body["simulationTimeStepSec"] = o.TimeStepSec
	}
	if o.Mode != "" {
		mode, err := sim.ParseMode(o.Mode)
		if err != nil {
			return nil, err
		}
		body["handshakeMode"] = mode
	}
	if o.Start != "" {
		t, err := time.Parse(time.RFC3339, o.Start)
		if err != nil {
			return nil, fmt.Errorf("--start: %w", err)
		}
		body["startTime"] = t.UTC()
	}
	if len(o.Datasets) > 0 {
		body["datasets"] = o.Datasets
	}
	return body, nil
}

// Simulate submits a run to the daemon. By default it waits for the run to
// finish and prints the results.
func Simulate(baseURL string, opts SimulateOptions) error {
	baseURL = strings.TrimRight(baseURL, "/")

	body, err := opts.request()
	if err != nil {
		return err
	}

	path := "/api/simulations?wait=true"
	timeout := time.Duration(0)
	if opts.Async {
		path = "/api/simulations"
		timeout = httpClient.Timeout
	}

	var v runView
	if err := postJSON(baseURL, path, body, &v, timeout); err != nil {
		return err
	}

	if opts.JSON {
		if v.Results != nil {
			return printJSON(v.Results)
		}
		return printJSON(v)
	}

	if opts.Async || v.Results == nil {
		fmt.Println()
		fmt.Printf("  %s  %s\n", statusStyle(v.Status).Render(strings.ToUpper(v.Status)), v.ID)
		if v.Error != "" {
			fmt.Printf("  %s\n", errorStyle.Render(v.Error))
		}
		fmt.Println(dimStyle.Render("  beaconctl run " + v.ID))
		fmt.Println()
		return nil
	}

	RenderResults(os.Stdout, v.Results, opts.MaxRows)
	return nil
}
