// Package app wires together the HTTP API, the WebSocket hub, the Iridium
// element store, and the simulation engine. It owns the daemon's lifecycle
// and is the single source of truth for the current operating state.
package app

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/mux"

	"github.com/jaivanshchawla/Satviz/internal/config"
	"github.com/jaivanshchawla/Satviz/internal/events"
	"github.com/jaivanshchawla/Satviz/internal/iridium"
	"github.com/jaivanshchawla/Satviz/internal/metrics"
	"github.com/jaivanshchawla/Satviz/internal/sim"
	"github.com/jaivanshchawla/Satviz/internal/ws"
)

// Daemon operating states.
const (
	StateBooting    = "BOOTING"
	StateIdle       = "IDLE"
	StateSimulating = "SIMULATING"
)

// Options holds everything the App needs from the caller.
type Options struct {
	Logger *slog.Logger
	Cfg    config.Config
	// Bind overrides [server] bind when set.
	Bind string
	// Source overrides the element store built from [iridium]. Tests use
	// it to avoid the network.
	Source sim.Source
	Now    func() time.Time
}

// App is the top-level daemon process.
type App struct {
	log    *slog.Logger
	cfg    config.Config
	bind   string
	server *http.Server

	startedAt time.Time
	state     atomic.Value // BOOTING, IDLE, SIMULATING

	stateMu sync.Mutex
	active  int

	// base is the parent context for asynchronous runs.
	base context.Context

	source sim.Source
	now    func() time.Time
	runs   *registry
	hub    *ws.Hub
	sink   events.Sink
}

// New creates an App in the BOOTING state. Call Run to start serving, or
// use Handler directly.
func New(opts Options) *App {
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	a := &App{
		log:       log,
		cfg:       opts.Cfg,
		bind:      opts.Bind,
		startedAt: time.Now(),
		base:      context.Background(),
		now:       opts.Now,
		runs:      newRegistry(opts.Cfg.Server.MaxRuns),
		hub:       ws.NewHub(),
	}
	a.sink = events.Multi(events.NewLogSink(log), a.hub, metrics.Sink())

	a.source = opts.Source
	if a.source == nil {
		iopts := opts.Cfg.IridiumOptions()
		iopts.Sink = a.sink
		a.source = iridium.NewStore(iopts)
	}
	if a.now == nil {
		a.now = time.Now
	}

	a.state.Store(StateBooting)
	return a
}

// Handler returns the full HTTP surface, instrumented with request metrics.
func (a *App) Handler() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/healthz", a.handleHealthz).Methods(http.MethodGet)
	r.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)
	r.Handle("/ws", a.hub.Handler())

	r.HandleFunc("/api/status", a.handleStatus).Methods(http.MethodGet)
	r.HandleFunc("/api/version", a.handleVersion).Methods(http.MethodGet)
	r.HandleFunc("/api/config", a.handleConfig).Methods(http.MethodGet)
	r.HandleFunc("/api/iridium", a.handleIridium).Methods(http.MethodGet)
	r.HandleFunc("/api/simulations", a.handleListRuns).Methods(http.MethodGet)
	r.HandleFunc("/api/simulations", a.handleSubmit).Methods(http.MethodPost)
	r.HandleFunc("/api/simulations/{id}", a.handleGetRun).Methods(http.MethodGet)

	// Routes stay on the root router: mux only reports a method mismatch as
	// 405 for routes it matched directly.
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		jsonError(w, "not found", http.StatusNotFound)
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		jsonError(w, "method "+req.Method+" not allowed", http.StatusMethodNotAllowed)
	})

	return metrics.Middleware(r)
}

// Run starts the HTTP server, WebSocket hub, and heartbeat ticker. It blocks
// until the context is cancelled or the server fails.
func (a *App) Run(ctx context.Context) error {
	bind := a.bind
	if bind == "" {
		bind = a.cfg.Server.Bind
	}
	if bind == "" {
		bind = "127.0.0.1:8090"
	}
	a.base = ctx

	a.server = &http.Server{
		Addr:              bind,
		Handler:           a.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ln, err := net.Listen("tcp", bind)
	if err != nil {
		return err
	}

	a.log.Info("listening", "addr", "http://"+ln.Addr().String())

	go a.hub.Run(ctx)
	a.transition(StateIdle)
	go a.heartbeatLoop(ctx)

	go func() {
		<-ctx.Done()
		a.log.Info("shutdown requested")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = a.server.Shutdown(shutdownCtx)
	}()

	if err := a.server.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// State reports the current operating state.
func (a *App) State() string {
	return a.state.Load().(string)
}

// transition updates the daemon state and broadcasts the change.
func (a *App) transition(newState string) {
	old := a.state.Swap(newState).(string)
	if old == newState {
		return
	}
	a.sink.Emit(events.StateChange(old, newState))
}

// runStarted and runDone keep the SIMULATING state in step with the number
// of executing runs.
func (a *App) runStarted() {
	a.stateMu.Lock()
	defer a.stateMu.Unlock()
	a.active++
	if a.active == 1 {
		a.transition(StateSimulating)
	}
}

func (a *App) runDone() {
	a.stateMu.Lock()
	defer a.stateMu.Unlock()
	a.active--
	if a.active == 0 {
		a.transition(StateIdle)
	}
}

func (a *App) activeRuns() int {
	a.stateMu.Lock()
	defer a.stateMu.Unlock()
	return a.active
}

// heartbeatLoop lets clients detect connectivity and track uptime without
// polling.
func (a *App) heartbeatLoop(ctx context.Context) {
	interval := time.Duration(a.cfg.Server.HeartbeatSeconds) * time.Second
	if interval <= 0 {
		interval = 10 * time.Second
	}
	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			a.hub.Emit(events.Heartbeat(a.State(), time.Since(a.startedAt)))
		}
	}
}
