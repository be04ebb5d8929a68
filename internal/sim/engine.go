// Package sim runs the Beacon↔Iridium handshake simulation: it fetches and
// initializes the constellation, synthesizes the Beacon, and steps the
// timeline classifying every Beacon/Iridium pair at every instant.
package sim

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jaivanshchawla/Satviz/internal/beacon"
	"github.com/jaivanshchawla/Satviz/internal/events"
	"github.com/jaivanshchawla/Satviz/internal/geometry"
	"github.com/jaivanshchawla/Satviz/internal/orbit"
)

const component = "sim"

// ErrNoIridiumElements means the source produced no element set that
// survived parsing and initialization.
var ErrNoIridiumElements = errors.New("no usable iridium elements")

// Source supplies Iridium element sets for the selected datasets.
type Source interface {
	Fetch(ctx context.Context, datasets []string) ([]orbit.TLE, error)
}

// Propagator answers where a satellite is at t.
type Propagator interface {
	Propagate(t time.Time) (orbit.State, error)
}

// Satellite is one propagated body in a run. ID is unique within the run.
type Satellite struct {
	ID   string
	Prop Propagator
}

// Options configures an Engine.
type Options struct {
	Source  Source
	Physics orbit.Physics
	Model   orbit.Model
	Sink    events.Sink
	Now     func() time.Time
	NewID   func() string
}

// Engine runs simulations. It holds no per-run state, so one Engine may
// serve concurrent runs.
type Engine struct {
	source  Source
	physics orbit.Physics
	model   orbit.Model
	sink    events.Sink
	now     func() time.Time
	newID   func() string
}

// New builds an Engine, filling unset options with defaults.
func New(opts Options) *Engine {
	e := &Engine{
		source:  opts.Source,
		physics: opts.Physics,
		model:   opts.Model,
		sink:    events.OrDiscard(opts.Sink),
		now:     opts.Now,
		newID:   opts.NewID,
	}
	if e.physics == (orbit.Physics{}) {
		e.physics = orbit.DefaultPhysics()
	}
	if e.model == "" {
		e.model = orbit.ModelSGP4
	}
	if e.now == nil {
		e.now = time.Now
	}
	if e.newID == nil {
		e.newID = func() string { return uuid.NewString() }
	}
	return e
}

// Physics returns the constants the engine was built with.
func (e *Engine) Physics() orbit.Physics { return e.physics }

// Run executes one full simulation. The Iridium fetch is the only blocking
// call; once it returns the timeline runs to completion without checking
// ctx. Errors returned here are fatal for the run; per-step failures are
// absorbed and reported through the event sink.
func (e *Engine) Run(ctx context.Context, cfg Config) (*Results, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := e.physics.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if e.source == nil {
		return nil, errors.New("sim: engine has no iridium source")
	}

	start := e.now().UTC()
	if cfg.Start != nil {
		start = cfg.Start.UTC()
	}

	tles, err := e.source.Fetch(ctx, cfg.Datasets)
	if err != nil {
		return nil, fmt.Errorf("fetch iridium elements: %w", err)
	}
	iridium := e.initIridium(tles)
	if len(iridium) == 0 {
		return nil, fmt.Errorf("%w (%d element sets fetched)", ErrNoIridiumElements, len(tles))
	}

	synth := beacon.New(e.physics, e.model)
	rec, tle, err := synth.Synthesize(cfg.Beacon, start)
	if err != nil {
		return nil, fmt.Errorf("synthesize beacon: %w", err)
	}

	res := e.Simulate(cfg, start, Satellite{ID: beacon.Name, Prop: rec}, iridium)
	res.Beacon = tle
	return res, nil
}

func (e *Engine) initIridium(tles []orbit.TLE) []Satellite {
	sats := make([]Satellite, 0, len(tles))
	seen := make(map[string]bool, len(tles))

	for _, t := range tles {
		rec, err := orbit.Initialize(t, e.model)
		if err != nil {
			data := map[string]any{"name": strings.TrimSpace(t.Name), "error": err.Error()}
			var perr *orbit.ElementParseError
			if errors.As(err, &perr) && perr.Code != orbit.StatusOK {
				data["sgp4_status"] = perr.Code
			}
			e.sink.Emit(events.New(events.TypeElementRejected, component, events.LevelWarn, "iridium element set rejected", data))
			continue
		}

		id := rec.Name
		if id == "" {
			id = fmt.Sprintf("SAT %d", rec.CatalogNumber)
		}
		if seen[id] {
			id = fmt.Sprintf("%s (%d)", id, rec.CatalogNumber)
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		sats = append(sats, Satellite{ID: id, Prop: rec})
	}
	return sats
}

// Simulate steps the timeline from start to start+duration inclusive. It
// never fails: a Beacon propagation failure skips the step, an Iridium
// failure skips that satellite for the step.
func (e *Engine) Simulate(cfg Config, start time.Time, b Satellite, iridium []Satellite) *Results {
	step := cfg.Step()
	end := start.Add(cfg.Duration())
	params := NewLinkParams(cfg, e.physics)

	runID := e.newID()
	res := newResults(runID, cfg, start, end, len(iridium))
	for _, s := range iridium {
		res.IridiumTracks[s.ID] = []TrackPoint{}
	}

	e.sink.Emit(events.New(events.TypeRunStarted, component, events.LevelInfo, "simulation started", map[string]any{
		"run_id":   runID,
		"start":    start.Format(time.RFC3339),
		"end":      end.Format(time.RFC3339),
		"step_sec": cfg.TimeStepSec,
		"mode":     string(cfg.Mode),
		"iridium":  len(iridium),
	}))

	linked := make([]bool, len(iridium))
	var (
		inBlackout    bool
		blackoutStart time.Time
		last          time.Time
	)

	closeBlackout := func(at time.Time) {
		dur := at.Sub(blackoutStart).Seconds()
		res.Blackouts = append(res.Blackouts, BlackoutPeriod{
			Start:       unixMilli(blackoutStart),
			End:         unixMilli(at),
			DurationSec: dur,
		})
		res.TotalBlackouts++
		res.TotalBlackoutDuration += dur
		inBlackout = false
		e.sink.Emit(events.New(events.TypeBlackoutEnd, component, events.LevelInfo, "blackout ended", map[string]any{
			"run_id":       runID,
			"at":           at.Format(time.RFC3339),
			"duration_sec": dur,
		}))
	}

	for i := 0; ; i++ {
		t := start.Add(time.Duration(i) * step)
		if t.After(end) {
			break
		}
		last = t

		bs, err := b.Prop.Propagate(t)
		if err != nil {
			res.StepsSkipped++
			e.propagationFailed(runID, b.ID, t, i, err)
			continue
		}
		res.StepsEvaluated++

		active := []string{}
		for k, s := range iridium {
			is, err := s.Prop.Propagate(t)
			if err != nil {
				e.propagationFailed(runID, s.ID, t, i, err)
				continue
			}
			res.IridiumTracks[s.ID] = append(res.IridiumTracks[s.ID], trackPoint(is))

			chk := CanCommunicate(bs, is, params)
			e.noteDegenerate(runID, b.ID, s.ID, t, chk)

			if chk.Active {
				active = append(active, s.ID)
				if !linked[k] {
					hs := Handshake{
						Timestamp:       unixMilli(t),
						IridiumID:       s.ID,
						BeaconPosition:  bs.Position,
						IridiumPosition: is.Position,
						BeaconGeodetic:  orbit.ECIToGeodetic(bs.Position, t),
						DistanceKm:      geometry.Magnitude(geometry.Sub(is.Position, bs.Position)),
					}
					res.Handshakes = append(res.Handshakes, hs)
					res.TotalHandshakes++
					e.sink.Emit(events.New(events.TypeHandshake, component, events.LevelInfo, "handshake", map[string]any{
						"run_id":      runID,
						"iridium":     s.ID,
						"at":          t.Format(time.RFC3339),
						"distance_km": hs.DistanceKm,
					}))
				}
			}
			linked[k] = chk.Active
		}

		switch {
		case len(active) == 0 && !inBlackout:
			inBlackout = true
			blackoutStart = t
			e.sink.Emit(events.New(events.TypeBlackoutStart, component, events.LevelInfo, "blackout started", map[string]any{
				"run_id": runID,
				"at":     t.Format(time.RFC3339),
			}))
		case len(active) > 0 && inBlackout:
			closeBlackout(t)
		}

		res.BeaconTrack = append(res.BeaconTrack, trackPoint(bs))
		res.ActiveLinksLog = append(res.ActiveLinksLog, active)
	}

	if inBlackout {
		// Closed one step past the last instant, but the window end wins when
		// that step overshoots it: a run with no link at all reports one
		// blackout exactly as long as the run.
		at := last.Add(step)
		if at.After(end) {
			at = end
		}
		closeBlackout(at)
	}

	e.sink.Emit(events.New(events.TypeRunCompleted, component, events.LevelInfo, "simulation completed", map[string]any{
		"run_id":             runID,
		"handshakes":         res.TotalHandshakes,
		"blackouts":          res.TotalBlackouts,
		"blackout_sec":       res.TotalBlackoutDuration,
		"steps_evaluated":    res.StepsEvaluated,
		"steps_skipped":      res.StepsSkipped,
		"iridium_satellites": res.IridiumCount,
	}))
	return res
}

func (e *Engine) propagationFailed(runID, id string, t time.Time, step int, err error) {
	e.sink.Emit(events.New(events.TypePropagationFailed, component, events.LevelWarn, "propagation failed", map[string]any{
		"run_id":    runID,
		"satellite": id,
		"at":        t.Format(time.RFC3339),
		"step":      step,
		"error":     err.Error(),
	}))
}

func (e *Engine) noteDegenerate(runID, beaconID, id string, t time.Time, chk LinkCheck) {
	if chk.NadirDegenerate {
		e.sink.Emit(events.New(events.TypeDegenerateVector, component, events.LevelWarn, "nadir direction degenerate", map[string]any{
			"run_id": runID, "satellite": id, "at": t.Format(time.RFC3339),
		}))
	}
	if chk.Coincident {
		e.sink.Emit(events.New(events.TypeDegenerateVector, component, events.LevelWarn, "beacon coincides with iridium cone tip", map[string]any{
			"run_id": runID, "satellite": id, "beacon": beaconID, "at": t.Format(time.RFC3339),
		}))
	}
	for _, side := range []struct {
		name   string
		status geometry.HorizonStatus
	}{{id, chk.IridiumHorizon}, {beaconID, chk.BeaconHorizon}} {
		switch side.status {
		case geometry.HorizonUnavailable:
			e.sink.Emit(events.New(events.TypeDegenerateVector, component, events.LevelWarn, "horizon antennas unavailable", map[string]any{
				"run_id": runID, "satellite": side.name, "at": t.Format(time.RFC3339),
			}))
		case geometry.HorizonFallback:
			e.sink.Emit(events.New(events.TypeHorizonFallback, component, events.LevelDebug, "horizon derived from fallback axis", map[string]any{
				"run_id": runID, "satellite": side.name, "at": t.Format(time.RFC3339),
			}))
		}
	}
}
