package sim

import (
	"context"
	"errors"
	"slices"
	"strconv"
	"testing"
	"time"

	"github.com/jaivanshchawla/Satviz/internal/beacon"
	"github.com/jaivanshchawla/Satviz/internal/events"
	"github.com/jaivanshchawla/Satviz/internal/geometry"
	"github.com/jaivanshchawla/Satviz/internal/orbit"
)

var testStart = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

type staticSource struct {
	tles []orbit.TLE
	err  error
}

func (s staticSource) Fetch(context.Context, []string) ([]orbit.TLE, error) {
	return s.tles, s.err
}

// scripted returns a per-step position, falling back to def.
type scripted struct {
	start time.Time
	step  time.Duration
	def   geometry.Vector
	at    map[int]geometry.Vector
	fail  map[int]bool
}

func (s scripted) Propagate(t time.Time) (orbit.State, error) {
	i := int(t.Sub(s.start) / s.step)
	if s.fail[i] {
		return orbit.State{}, orbit.ErrPropagation
	}
	pos := s.def
	if p, ok := s.at[i]; ok {
		pos = p
	}
	return orbit.State{Time: t, Position: pos, Velocity: geometry.Vector{Y: 7.5}}, nil
}

func baseConfig() Config {
	start := testStart
	return Config{
		Beacon:        beacon.NonPolar{AltitudeKm: 550, InclinationDeg: 53},
		IridiumFOVDeg: 62,
		BeaconFOVDeg:  62,
		DurationHours: 1,
		TimeStepSec:   60,
		Mode:          ModeOneWay,
		Start:         &start,
	}
}

func fixedID() string { return "run-1" }

// iridiumAbove synthesizes an element set that starts directly above a
// 550 km, 53° Beacon at testStart.
func iridiumAbove(t *testing.T) orbit.TLE {
	t.Helper()
	el, err := beacon.New(orbit.DefaultPhysics(), orbit.ModelSGP4).Elements(
		beacon.NonPolar{AltitudeKm: 780, InclinationDeg: 53}, testStart)
	if err != nil {
		t.Fatal(err)
	}
	tle, err := beacon.Encode(el)
	if err != nil {
		t.Fatal(err)
	}
	tle.Name = "IRIDIUM 901"
	return tle
}

func TestRunNadirHandshake(t *testing.T) {
	rec := &events.Recorder{}
	eng := New(Options{
		Source: staticSource{tles: []orbit.TLE{iridiumAbove(t)}},
		Sink:   rec,
		NewID:  fixedID,
	})

	res, err := eng.Run(context.Background(), baseConfig())
	if err != nil {
		t.Fatalf("Run() = %v", err)
	}

	if res.TotalHandshakes < 1 {
		t.Fatalf("TotalHandshakes = %d, want >= 1", res.TotalHandshakes)
	}
	if got := res.Handshakes[0]; got.Timestamp != testStart.UnixMilli() || got.IridiumID != "IRIDIUM 901" {
		t.Errorf("first handshake = %+v", got)
	}
	if !slices.Contains(res.ActiveLinksLog[0], "IRIDIUM 901") {
		t.Errorf("ActiveLinksLog[0] = %v", res.ActiveLinksLog[0])
	}
	if res.StepsEvaluated != 61 || res.StepsSkipped != 0 {
		t.Errorf("steps evaluated/skipped = %d/%d, want 61/0", res.StepsEvaluated, res.StepsSkipped)
	}
	if len(res.BeaconTrack) != len(res.ActiveLinksLog) {
		t.Errorf("track/log lengths %d/%d", len(res.BeaconTrack), len(res.ActiveLinksLog))
	}
	for i, p := range res.BeaconTrack {
		if want := testStart.Add(time.Duration(i) * time.Minute).UnixMilli(); p.Timestamp != want {
			t.Fatalf("BeaconTrack[%d] at %d, want %d", i, p.Timestamp, want)
		}
	}
	if n := len(res.IridiumTracks["IRIDIUM 901"]); n != 61 {
		t.Errorf("iridium track has %d points", n)
	}
	if res.Beacon.Name != beacon.Name || res.RunID != "run-1" {
		t.Errorf("beacon tle %q, run id %q", res.Beacon.Name, res.RunID)
	}
	if n := len(rec.OfType(events.TypeHandshake)); n != res.TotalHandshakes {
		t.Errorf("handshake events = %d, results = %d", n, res.TotalHandshakes)
	}
	if len(rec.OfType(events.TypeRunCompleted)) != 1 {
		t.Error("missing run_completed event")
	}
}

func TestSimulateFullBlackout(t *testing.T) {
	cfg := baseConfig()
	cfg.IridiumFOVDeg = 1

	rec, _, err := beacon.New(orbit.DefaultPhysics(), orbit.ModelSGP4).Synthesize(cfg.Beacon, testStart)
	if err != nil {
		t.Fatal(err)
	}
	far := scripted{start: testStart, step: time.Minute, def: geometry.Vector{Z: -7151}}

	eng := New(Options{NewID: fixedID})
	res := eng.Simulate(cfg, testStart, Satellite{ID: beacon.Name, Prop: rec}, []Satellite{{ID: "IRIDIUM 902", Prop: far}})

	if res.TotalHandshakes != 0 {
		t.Errorf("TotalHandshakes = %d, want 0", res.TotalHandshakes)
	}
	if res.TotalBlackouts != 1 || len(res.Blackouts) != 1 {
		t.Fatalf("blackouts = %d (%v), want 1", res.TotalBlackouts, res.Blackouts)
	}
	if res.TotalBlackoutDuration != cfg.DurationHours*3600 {
		t.Errorf("TotalBlackoutDuration = %v, want %v", res.TotalBlackoutDuration, cfg.DurationHours*3600)
	}
	b := res.Blackouts[0]
	if b.Start != testStart.UnixMilli() || b.End != testStart.Add(time.Hour).UnixMilli() {
		t.Errorf("blackout = %+v", b)
	}
	for i, links := range res.ActiveLinksLog {
		if links == nil || len(links) != 0 {
			t.Fatalf("ActiveLinksLog[%d] = %#v, want empty non-nil", i, links)
		}
	}
}

func TestSimulateOpenBlackoutClosesOneStepLater(t *testing.T) {
	cfg := baseConfig()
	cfg.DurationHours = 0.1 // 6 minutes, steps at 0..6

	bcn := scripted{start: testStart, step: time.Minute, def: geometry.Vector{X: 7000}}
	ir := scripted{
		start: testStart, step: time.Minute,
		def: geometry.Vector{X: 7300},
		at:  map[int]geometry.Vector{4: {X: -7300}, 5: {X: -7300}, 6: {X: -7300}},
	}

	res := New(Options{}).Simulate(cfg, testStart, Satellite{ID: "B", Prop: bcn}, []Satellite{{ID: "I", Prop: ir}})
	if res.TotalBlackouts != 1 {
		t.Fatalf("blackouts = %v", res.Blackouts)
	}
	// Opens at step 4; the horizon clamps the close to step 6.
	if got := res.TotalBlackoutDuration; got != 120 {
		t.Errorf("TotalBlackoutDuration = %v, want 120", got)
	}

	cfg.TimeStepSec = 50 // last instant 5m50s, close at 6m by clamp
	bcn.step, ir.step = 50*time.Second, 50*time.Second
	ir.at = map[int]geometry.Vector{7: {X: -7300}}
	res = New(Options{}).Simulate(cfg, testStart, Satellite{ID: "B", Prop: bcn}, []Satellite{{ID: "I", Prop: ir}})
	if got := res.TotalBlackoutDuration; got != 10 {
		t.Errorf("TotalBlackoutDuration = %v, want 10", got)
	}
}

func TestSimulateHandshakeEdges(t *testing.T) {
	cfg := baseConfig()
	cfg.DurationHours = 0.1

	bcn := scripted{start: testStart, step: time.Minute, def: geometry.Vector{X: 7000}}
	// Linked at 0-1, occulted at 2, linked again at 3-6.
	ir := scripted{start: testStart, step: time.Minute, def: geometry.Vector{X: 7300}, at: map[int]geometry.Vector{2: {X: -7300}}}

	res := New(Options{}).Simulate(cfg, testStart, Satellite{ID: "B", Prop: bcn}, []Satellite{{ID: "I", Prop: ir}})
	if res.TotalHandshakes != 2 {
		t.Errorf("TotalHandshakes = %d, want 2", res.TotalHandshakes)
	}
	want := []int64{testStart.UnixMilli(), testStart.Add(3 * time.Minute).UnixMilli()}
	for i, hs := range res.Handshakes {
		if hs.Timestamp != want[i] {
			t.Errorf("handshake %d at %d, want %d", i, hs.Timestamp, want[i])
		}
		if hs.DistanceKm != 300 {
			t.Errorf("handshake %d distance %v", i, hs.DistanceKm)
		}
	}
	if res.TotalBlackouts != 1 || res.TotalBlackoutDuration != 60 {
		t.Errorf("blackouts = %v, total %v", res.Blackouts, res.TotalBlackoutDuration)
	}
}

func TestSimulateSkips(t *testing.T) {
	cfg := baseConfig()
	cfg.DurationHours = 0.1

	bcn := scripted{start: testStart, step: time.Minute, def: geometry.Vector{X: 7000}, fail: map[int]bool{2: true, 3: true}}
	good := scripted{start: testStart, step: time.Minute, def: geometry.Vector{X: 7300}, fail: map[int]bool{5: true}}
	other := scripted{start: testStart, step: time.Minute, def: geometry.Vector{X: 7000, Y: 300}}

	rec := &events.Recorder{}
	res := New(Options{Sink: rec}).Simulate(cfg, testStart,
		Satellite{ID: "B", Prop: bcn},
		[]Satellite{{ID: "good", Prop: good}, {ID: "other", Prop: other}})

	if res.StepsEvaluated != 5 || res.StepsSkipped != 2 {
		t.Errorf("evaluated/skipped = %d/%d, want 5/2", res.StepsEvaluated, res.StepsSkipped)
	}
	if len(res.BeaconTrack) != 5 || len(res.ActiveLinksLog) != 5 {
		t.Fatalf("track/log lengths %d/%d", len(res.BeaconTrack), len(res.ActiveLinksLog))
	}
	wantTimes := []time.Duration{0, 1, 4, 5, 6}
	for i, p := range res.BeaconTrack {
		if p.Timestamp != testStart.Add(wantTimes[i]*time.Minute).UnixMilli() {
			t.Errorf("BeaconTrack[%d] timestamp %d", i, p.Timestamp)
		}
	}
	if n := len(res.IridiumTracks["good"]); n != 4 {
		t.Errorf("good track has %d points, want 4", n)
	}
	if n := len(res.IridiumTracks["other"]); n != 5 {
		t.Errorf("other track has %d points, want 5", n)
	}

	// A skipped step leaves the pair state alone: no second handshake.
	if res.TotalHandshakes != 1 {
		t.Errorf("TotalHandshakes = %d, want 1", res.TotalHandshakes)
	}
	// Step 5 had no active link, so it opens a blackout that step 6 closes.
	if res.TotalBlackouts != 1 || res.TotalBlackoutDuration != 60 {
		t.Errorf("blackouts = %v", res.Blackouts)
	}
	if n := len(rec.OfType(events.TypePropagationFailed)); n != 3 {
		t.Errorf("propagation_failed events = %d, want 3", n)
	}
}

func TestRunDeterministic(t *testing.T) {
	tles := []orbit.TLE{iridiumAbove(t)}
	cfg := baseConfig()
	cfg.Mode = ModeBidirectional
	cfg.DurationHours = 2

	run := func() *Results {
		res, err := New(Options{Source: staticSource{tles: tles}, NewID: fixedID}).Run(context.Background(), cfg)
		if err != nil {
			t.Fatal(err)
		}
		return res
	}
	a, b := run(), run()
	if a.Summary() != b.Summary() {
		t.Errorf("summaries differ:\n%+v\n%+v", a.Summary(), b.Summary())
	}
	if !slices.Equal(a.Handshakes, b.Handshakes) || !slices.Equal(a.Blackouts, b.Blackouts) {
		t.Error("handshake or blackout logs differ between identical runs")
	}
}

func TestRunFatalErrors(t *testing.T) {
	bad := iridiumAbove(t)
	bad.Line2 = bad.Line2[:50]

	tests := []struct {
		name   string
		source Source
		mutate func(*Config)
		check  func(error) bool
	}{
		{
			name:   "empty source",
			source: staticSource{},
			check:  func(err error) bool { return errors.Is(err, ErrNoIridiumElements) },
		},
		{
			name:   "only malformed elements",
			source: staticSource{tles: []orbit.TLE{bad}},
			check:  func(err error) bool { return errors.Is(err, ErrNoIridiumElements) },
		},
		{
			name:   "source failure",
			source: staticSource{err: context.DeadlineExceeded},
			check:  func(err error) bool { return errors.Is(err, context.DeadlineExceeded) },
		},
		{
			name:   "invalid beacon",
			source: staticSource{tles: []orbit.TLE{iridiumAbove(t)}},
			mutate: func(c *Config) { c.Beacon = beacon.NonPolar{AltitudeKm: -1, InclinationDeg: 53} },
			check: func(err error) bool {
				var perr *beacon.InvalidOrbitParametersError
				return errors.As(err, &perr) && perr.Field == "altitude_km"
			},
		},
		{
			name:   "invalid config",
			source: staticSource{tles: []orbit.TLE{iridiumAbove(t)}},
			mutate: func(c *Config) { c.TimeStepSec = 0 },
			check:  func(err error) bool { return errors.Is(err, ErrInvalidConfig) },
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := baseConfig()
			if tt.mutate != nil {
				tt.mutate(&cfg)
			}
			res, err := New(Options{Source: tt.source}).Run(context.Background(), cfg)
			if res != nil || !tt.check(err) {
				t.Errorf("Run() = %v, %v", res, err)
			}
		})
	}
}

func TestRunSkipsRejectedElements(t *testing.T) {
	bad := iridiumAbove(t)
	bad.Name = "IRIDIUM BAD"
	bad.Line1 = bad.Line1[:68] + "0"
	if orbit.Checksum(bad.Line1) == 0 {
		bad.Line1 = bad.Line1[:68] + "1"
	}

	rec := &events.Recorder{}
	res, err := New(Options{
		Source: staticSource{tles: []orbit.TLE{bad, iridiumAbove(t)}},
		Sink:   rec,
	}).Run(context.Background(), baseConfig())
	if err != nil {
		t.Fatal(err)
	}
	if res.IridiumCount != 1 {
		t.Errorf("IridiumCount = %d, want 1", res.IridiumCount)
	}
	if n := len(rec.OfType(events.TypeElementRejected)); n != 1 {
		t.Errorf("element_rejected events = %d", n)
	}
}

func TestRunSkipsUnparseableFields(t *testing.T) {
	bad := iridiumAbove(t)
	bad.Name = "IRIDIUM JUNK"
	// Column 11 is an inclination digit; the checksum is recomputed so only
	// the field itself is wrong.
	body := bad.Line2[:11] + "X" + bad.Line2[12:orbit.LineLength-1]
	bad.Line2 = body + strconv.Itoa(orbit.Checksum(body))
	if err := orbit.ValidateFormat(bad); err != nil {
		t.Fatalf("corrupted set should pass the layout checks: %v", err)
	}

	rec := &events.Recorder{}
	res, err := New(Options{
		Source: staticSource{tles: []orbit.TLE{bad, iridiumAbove(t)}},
		Sink:   rec,
	}).Run(context.Background(), baseConfig())
	if err != nil {
		t.Fatal(err)
	}
	if res.IridiumCount != 1 || res.TotalHandshakes < 1 {
		t.Errorf("IridiumCount = %d, handshakes = %d", res.IridiumCount, res.TotalHandshakes)
	}
	rejected := rec.OfType(events.TypeElementRejected)
	if len(rejected) != 1 || rejected[0].Data["name"] != "IRIDIUM JUNK" {
		t.Errorf("element_rejected events = %+v", rejected)
	}
}
