// Package metrics exposes Prometheus collectors for the daemon: HTTP traffic,
// simulation runs, and the per-step events the engine reports.
package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jaivanshchawla/Satviz/internal/events"
	"github.com/jaivanshchawla/Satviz/internal/sim"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "satviz_http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"path", "method", "code"},
	)

	httpDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "satviz_http_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path", "method"},
	)

	runsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "satviz_simulation_runs_total",
			Help: "Simulation runs by outcome.",
		},
		[]string{"outcome"},
	)

	runDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "satviz_simulation_run_duration_seconds",
			Help:    "Wall-clock duration of completed simulation runs.",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
		},
	)

	activeRuns = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "satviz_simulation_active_runs",
			Help: "Simulations currently executing.",
		},
	)

	stepsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "satviz_simulation_steps_total",
			Help: "Timesteps processed, by result.",
		},
		[]string{"result"},
	)

	eventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "satviz_engine_events_total",
			Help: "Engine events by type (handshakes, blackouts, propagation failures, rejected elements).",
		},
		[]string{"type"},
	)
)

func init() {
	prometheus.MustRegister(httpRequestsTotal)
	prometheus.MustRegister(httpDurationSeconds)
	prometheus.MustRegister(runsTotal)
	prometheus.MustRegister(runDurationSeconds)
	prometheus.MustRegister(activeRuns)
	prometheus.MustRegister(stepsTotal)
	prometheus.MustRegister(eventsTotal)
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RunStarted marks a simulation as executing.
func RunStarted() {
	activeRuns.Inc()
}

// RunFinished records the outcome of a run started with RunStarted. res is
// nil for failed runs.
func RunFinished(res *sim.Results, elapsed time.Duration, err error) {
	activeRuns.Dec()
	if err != nil {
		runsTotal.WithLabelValues("failed").Inc()
		return
	}
	runsTotal.WithLabelValues("completed").Inc()
	runDurationSeconds.Observe(elapsed.Seconds())
	if res != nil {
		stepsTotal.WithLabelValues("evaluated").Add(float64(res.StepsEvaluated))
		stepsTotal.WithLabelValues("skipped").Add(float64(res.StepsSkipped))
	}
}

// counted are the engine events worth a time series.
var counted = map[events.Type]bool{
	events.TypeHandshake:         true,
	events.TypeBlackoutStart:     true,
	events.TypePropagationFailed: true,
	events.TypeElementRejected:   true,
	events.TypeDegenerateVector:  true,
}

type sink struct{}

// Sink counts engine events. Plug it into the engine next to the log sink.
func Sink() events.Sink {
	return sink{}
}

func (sink) Emit(e events.Event) {
	if counted[e.Type] {
		eventsTotal.WithLabelValues(string(e.Type)).Inc()
	}
}

// normalizeRoute collapses paths to a bounded label set so run IDs and bot
// scanners do not explode cardinality.
func normalizeRoute(path string) string {
	switch path {
	case "/", "/healthz", "/metrics", "/ws",
		"/api/status", "/api/version", "/api/config", "/api/iridium", "/api/simulations":
		return path
	}
	if rest, ok := strings.CutPrefix(path, "/api/simulations/"); ok && rest != "" && !strings.Contains(rest, "/") {
		return "/api/simulations/{id}"
	}
	return "other"
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Middleware records request count and duration for each request.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(rw, r)

		duration := time.Since(start).Seconds()
		code := strconv.Itoa(rw.statusCode)
		route := normalizeRoute(r.URL.Path)

		httpRequestsTotal.WithLabelValues(route, r.Method, code).Inc()
		httpDurationSeconds.WithLabelValues(route, r.Method).Observe(duration)
	})
}
