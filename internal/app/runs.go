package app

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jaivanshchawla/Satviz/internal/events"
	"github.com/jaivanshchawla/Satviz/internal/metrics"
	"github.com/jaivanshchawla/Satviz/internal/sim"
)

// RunStatus is the lifecycle of one submitted simulation.
type RunStatus string

const (
	RunRunning   RunStatus = "running"
	RunCompleted RunStatus = "completed"
	RunFailed    RunStatus = "failed"
)

var errRegistryFull = errors.New("too many simulations in flight")

// RunView is the API shape of a run. Results is only filled in for
// completed runs fetched individually.
type RunView struct {
	ID          string       `json:"id"`
	Status      RunStatus    `json:"status"`
	SubmittedAt time.Time    `json:"submitted_at"`
	FinishedAt  *time.Time   `json:"finished_at,omitempty"`
	Error       string       `json:"error,omitempty"`
	Summary     *sim.Summary `json:"summary,omitempty"`
	Results     *sim.Results `json:"results,omitempty"`
}

type run struct {
	id          string
	cfg         sim.Config
	submittedAt time.Time
	done        chan struct{}

	// Guarded by registry.mu.
	status     RunStatus
	finishedAt time.Time
	err        error
	results    *sim.Results
}

// registry keeps recent runs in submission order. Once full, the oldest
// finished run is evicted to make room; in-flight runs are never evicted.
type registry struct {
	mu    sync.Mutex
	max   int
	order []*run
	byID  map[string]*run
}

func newRegistry(max int) *registry {
	if max < 1 {
		max = 1
	}
	return &registry{max: max, byID: make(map[string]*run)}
}

func (g *registry) add(cfg sim.Config, now time.Time) (*run, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if len(g.order) >= g.max {
		evicted := false
		for i, r := range g.order {
			if r.status != RunRunning {
				g.order = append(g.order[:i], g.order[i+1:]...)
				delete(g.byID, r.id)
				evicted = true
				break
			}
		}
		if !evicted {
			return nil, errRegistryFull
		}
	}

	r := &run{
		id:          uuid.NewString(),
		cfg:         cfg,
		submittedAt: now,
		done:        make(chan struct{}),
		status:      RunRunning,
	}
	g.order = append(g.order, r)
	g.byID[r.id] = r
	return r, nil
}

func (g *registry) finish(r *run, res *sim.Results, err error, now time.Time) {
	g.mu.Lock()
	r.finishedAt = now
	r.results = res
	r.err = err
	if err != nil {
		r.status = RunFailed
	} else {
		r.status = RunCompleted
	}
	g.mu.Unlock()
	close(r.done)
}

func (g *registry) get(id string) (*run, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	r, ok := g.byID[id]
	return r, ok
}

func (g *registry) len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.order)
}

// views lists runs newest first, without results.
func (g *registry) views() []RunView {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]RunView, 0, len(g.order))
	for i := len(g.order) - 1; i >= 0; i-- {
		out = append(out, g.order[i].viewLocked(false))
	}
	return out
}

func (g *registry) view(r *run, withResults bool) RunView {
	g.mu.Lock()
	defer g.mu.Unlock()
	return r.viewLocked(withResults)
}

func (r *run) viewLocked(withResults bool) RunView {
	v := RunView{ID: r.id, Status: r.status, SubmittedAt: r.submittedAt}
	if r.status == RunRunning {
		return v
	}
	fin := r.finishedAt
	v.FinishedAt = &fin
	if r.err != nil {
		v.Error = r.err.Error()
	}
	if r.results != nil {
		s := r.results.Summary()
		v.Summary = &s
		if withResults {
			v.Results = r.results
		}
	}
	return v
}

// submit registers a run and executes it in the background.
func (a *App) submit(cfg sim.Config) (*run, error) {
	r, err := a.runs.add(cfg, a.now().UTC())
	if err != nil {
		return nil, err
	}
	go a.execute(a.base, r)
	return r, nil
}

func (a *App) execute(ctx context.Context, r *run) {
	a.runStarted()
	metrics.RunStarted()
	defer a.runDone()

	eng := sim.New(sim.Options{
		Source:  a.source,
		Physics: a.cfg.Physics,
		Model:   a.cfg.Model(),
		Sink:    a.sink,
		Now:     a.now,
		NewID:   func() string { return r.id },
	})

	began := time.Now()
	res, err := eng.Run(ctx, r.cfg)
	elapsed := time.Since(began)
	metrics.RunFinished(res, elapsed, err)

	if err != nil {
		a.sink.Emit(events.New(events.TypeRunFailed, "app", events.LevelError, "simulation failed", map[string]any{
			"run_id": r.id,
			"error":  err.Error(),
		}))
	} else {
		a.log.Info("simulation finished", "run_id", r.id, "elapsed", elapsed.Round(time.Millisecond))
	}
	a.runs.finish(r, res, err, a.now().UTC())
}
