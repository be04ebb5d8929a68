package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/jaivanshchawla/Satviz/internal/events"
	"github.com/jaivanshchawla/Satviz/internal/sim"
)

func TestNormalizeRoute(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/", "/"},
		{"/healthz", "/healthz"},
		{"/metrics", "/metrics"},
		{"/ws", "/ws"},
		{"/api/status", "/api/status"},
		{"/api/iridium", "/api/iridium"},
		{"/api/simulations", "/api/simulations"},
		{"/api/simulations/3f2c1a", "/api/simulations/{id}"},
		{"/api/simulations/", "other"},
		{"/api/simulations/abc/extra", "other"},
		{"/wp-admin/setup.php", "other"},
		{"/.env", "other"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := normalizeRoute(tt.path); got != tt.want {
				t.Errorf("normalizeRoute(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}

func TestNormalizeRouteBoundedCardinality(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 500; i++ {
		seen[normalizeRoute("/scan/"+time.Duration(i).String())] = true
		seen[normalizeRoute("/api/simulations/"+time.Duration(i).String())] = true
	}
	if len(seen) != 2 {
		t.Errorf("got %d distinct labels, want 2: %v", len(seen), seen)
	}
}

func TestMiddlewareRecordsStatus(t *testing.T) {
	h := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	known := httpRequestsTotal.WithLabelValues("/api/version", http.MethodGet, "418")
	unknown := httpRequestsTotal.WithLabelValues("other", http.MethodGet, "418")
	k0, p0 := testutil.ToFloat64(known), testutil.ToFloat64(unknown)

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/version", nil))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/cgi-bin/x", nil))

	if d := testutil.ToFloat64(known) - k0; d != 1 {
		t.Errorf("/api/version delta = %v, want 1", d)
	}
	if d := testutil.ToFloat64(unknown) - p0; d != 1 {
		t.Errorf("other delta = %v, want 1", d)
	}
}

func TestSinkCountsEngineEvents(t *testing.T) {
	s := Sink()
	hs := eventsTotal.WithLabelValues(string(events.TypeHandshake))
	before := testutil.ToFloat64(hs)

	s.Emit(events.New(events.TypeHandshake, "sim", events.LevelInfo, "handshake", nil))
	s.Emit(events.New(events.TypeHandshake, "sim", events.LevelInfo, "handshake", nil))
	s.Emit(events.Heartbeat("IDLE", time.Second))

	if got := testutil.ToFloat64(hs) - before; got != 2 {
		t.Errorf("handshake delta = %v, want 2", got)
	}
	if got := testutil.ToFloat64(eventsTotal.WithLabelValues(string(events.TypeHeartbeat))); got != 0 {
		t.Errorf("heartbeats should not be counted, got %v", got)
	}
}

func TestRunFinished(t *testing.T) {
	completed := runsTotal.WithLabelValues("completed")
	failed := runsTotal.WithLabelValues("failed")
	evaluated := stepsTotal.WithLabelValues("evaluated")
	c0, f0, e0 := testutil.ToFloat64(completed), testutil.ToFloat64(failed), testutil.ToFloat64(evaluated)

	RunStarted()
	RunStarted()
	if got := testutil.ToFloat64(activeRuns); got < 2 {
		t.Errorf("active runs = %v", got)
	}
	RunFinished(&sim.Results{StepsEvaluated: 61, StepsSkipped: 0}, 150*time.Millisecond, nil)
	RunFinished(nil, 0, errors.New("boom"))

	if d := testutil.ToFloat64(completed) - c0; d != 1 {
		t.Errorf("completed delta = %v", d)
	}
	if d := testutil.ToFloat64(failed) - f0; d != 1 {
		t.Errorf("failed delta = %v", d)
	}
	if d := testutil.ToFloat64(evaluated) - e0; d != 61 {
		t.Errorf("evaluated delta = %v", d)
	}
}
