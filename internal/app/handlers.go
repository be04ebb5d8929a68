package app

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/gorilla/mux"

	"github.com/jaivanshchawla/Satviz/internal/beacon"
	"github.com/jaivanshchawla/Satviz/internal/iridium"
	"github.com/jaivanshchawla/Satviz/internal/sim"
)

const maxRequestBytes = 1 << 20

// cacheReporter is implemented by sources that keep an on-disk cache.
type cacheReporter interface {
	CacheInfo() []iridium.CacheStatus
}

// ---------------------------------------------------------------------------
// Core handlers
// ---------------------------------------------------------------------------

func (a *App) handleHealthz(w http.ResponseWriter, r *http.Request) {
	// If the client asks for JSON, return component-level health checks.
	if r.Header.Get("Accept") == "application/json" {
		a.handleHealthDetailed(w, r)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok\n"))
}

func (a *App) handleStatus(w http.ResponseWriter, _ *http.Request) {
	resp := map[string]any{
		"name":           "satviz",
		"state":          a.State(),
		"uptime_seconds": int64(time.Since(a.startedAt).Seconds()),
		"data_root":      a.cfg.Data.Root,
		"model":          string(a.cfg.Model()),
		"active_runs":    a.activeRuns(),
		"stored_runs":    a.runs.len(),
		"max_runs":       a.runs.max,
		"ws_clients":     a.hub.Clients(),
	}
	writeJSON(w, http.StatusOK, resp)
}

func (a *App) handleVersion(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"version":    Version,
		"go_version": runtime.Version(),
		"built_at":   BuiltAt,
	})
}

func (a *App) handleConfig(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, a.cfg)
}

func (a *App) handleIridium(w http.ResponseWriter, _ *http.Request) {
	datasets := []iridium.CacheStatus{}
	if cr, ok := a.source.(cacheReporter); ok {
		datasets = cr.CacheInfo()
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"selected":      a.cfg.Iridium.Selected,
		"refresh_hours": a.cfg.Iridium.RefreshHours,
		"fallback":      a.cfg.Iridium.Fallback,
		"datasets":      datasets,
	})
}

// ---------------------------------------------------------------------------
// Simulations
// ---------------------------------------------------------------------------

// handleSubmit accepts a simulation request. The body is a partial
// sim.Config layered over the configured defaults; an empty body runs the
// defaults as-is. With ?wait=true the call blocks until the run finishes.
func (a *App) handleSubmit(w http.ResponseWriter, r *http.Request) {
	cfg, err := a.cfg.SimConfig()
	if err != nil {
		jsonError(w, "configured defaults are invalid: "+err.Error(), http.StatusInternalServerError)
		return
	}

	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes))
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		if errors.Is(err, sim.ErrInvalidConfig) {
			jsonError(w, err.Error(), http.StatusBadRequest)
			return
		}
		jsonError(w, "bad request: "+err.Error(), http.StatusBadRequest)
		return
	}

	if err := a.precheck(cfg); err != nil {
		jsonErrorWith(w, err, http.StatusBadRequest)
		return
	}

	run, err := a.submit(cfg)
	if err != nil {
		jsonError(w, err.Error(), http.StatusTooManyRequests)
		return
	}

	if r.URL.Query().Get("wait") != "true" {
		writeJSON(w, http.StatusAccepted, a.runs.view(run, false))
		return
	}

	select {
	case <-run.done:
	case <-r.Context().Done():
		return
	}
	v := a.runs.view(run, r.URL.Query().Get("summary") != "true")
	code := http.StatusOK
	if v.Status == RunFailed {
		code = http.StatusUnprocessableEntity
	}
	writeJSON(w, code, v)
}

// precheck rejects requests that would fail before the first step, so the
// caller gets a 400 instead of a failed run.
func (a *App) precheck(cfg sim.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	epoch := a.now().UTC()
	if cfg.Start != nil {
		epoch = *cfg.Start
	}
	_, err := beacon.New(a.cfg.Physics, a.cfg.Model()).Elements(cfg.Beacon, epoch)
	return err
}

func (a *App) handleListRuns(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"simulations": a.runs.views()})
}

func (a *App) handleGetRun(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	run, ok := a.runs.get(id)
	if !ok {
		jsonError(w, fmt.Sprintf("simulation %q not found", id), http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, a.runs.view(run, r.URL.Query().Get("summary") != "true"))
}

// ---------------------------------------------------------------------------
// Health
// ---------------------------------------------------------------------------

func (a *App) handleHealthDetailed(w http.ResponseWriter, _ *http.Request) {
	checks := map[string]any{}
	allOK := true

	// Data directory must be writable for the element cache.
	if err := os.MkdirAll(a.cfg.Data.Root, 0o755); err != nil {
		checks["data_dir"] = map[string]any{"ok": false, "error": err.Error()}
		allOK = false
	} else {
		marker := filepath.Join(a.cfg.Data.Root, ".healthcheck")
		if err := os.WriteFile(marker, []byte("ok"), 0o644); err != nil {
			checks["data_dir"] = map[string]any{"ok": false, "error": err.Error()}
			allOK = false
		} else {
			os.Remove(marker)
			checks["data_dir"] = map[string]any{"ok": true, "path": a.cfg.Data.Root}
		}
	}

	// A stale or missing cache is reported but not unhealthy: the next run
	// refetches, and the embedded placeholder covers a total outage.
	if cr, ok := a.source.(cacheReporter); ok {
		for _, st := range cr.CacheInfo() {
			checks["iridium_"+st.Dataset] = map[string]any{
				"ok":         true,
				"cached":     st.Cached,
				"fresh":      st.Fresh,
				"satellites": st.Satellites,
			}
		}
	}

	if _, err := a.cfg.SimConfig(); err != nil {
		checks["simulation_defaults"] = map[string]any{"ok": false, "error": err.Error()}
		allOK = false
	} else {
		checks["simulation_defaults"] = map[string]any{"ok": true}
	}

	status := http.StatusOK
	if !allOK {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, map[string]any{
		"healthy": allOK,
		"checks":  checks,
	})
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// jsonError writes a JSON error response.
func jsonError(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, code, map[string]any{
		"ok":    false,
		"error": msg,
	})
}

// jsonErrorWith is jsonError plus the structured detail of an invalid
// Beacon orbit, when err carries one.
func jsonErrorWith(w http.ResponseWriter, err error, code int) {
	body := map[string]any{
		"ok":    false,
		"error": err.Error(),
	}
	var oerr *beacon.InvalidOrbitParametersError
	if errors.As(err, &oerr) {
		body["field"] = oerr.Field
		body["reason"] = oerr.Reason
		if len(oerr.Computed) > 0 {
			body["computed"] = oerr.Computed
		}
	}
	writeJSON(w, code, body)
}
