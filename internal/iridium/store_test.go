package iridium

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jaivanshchawla/Satviz/internal/events"
	"github.com/jaivanshchawla/Satviz/internal/orbit"
)

const (
	issText = "ISS (ZARYA)\n" +
		"1 25544U 98067A   25138.37048074  .00007749  00000+0  14567-3 0  9994\n" +
		"2 25544  51.6369  94.7823 0002558 120.7586  15.7840 15.49587957510533\n"
	placeholderText = "IRIDIUM PLACEHOLDER\n" +
		"1 43478U 18047H   24001.00000000  .00000000  00000-0  00000-0 0  9993\n" +
		"2 43478  86.3940 120.0000 0002000  90.0000 270.0000 14.34217000    03\n"
)

func TestParseText(t *testing.T) {
	tests := []struct {
		name        string
		raw         string
		wantNames   []string
		wantSkipped int
	}{
		{"empty", "", nil, 0},
		{"single", issText, []string{"ISS (ZARYA)"}, 0},
		{"two with crlf", strings.ReplaceAll(issText+placeholderText, "\n", "\r\n"), []string{"ISS (ZARYA)", "IRIDIUM PLACEHOLDER"}, 0},
		{"stray line realigns", "garbage\n" + issText + placeholderText, []string{"ISS (ZARYA)", "IRIDIUM PLACEHOLDER"}, 1},
		{"short lines skipped", "BAD\n1 25544U short\n2 25544 short\n" + placeholderText, []string{"IRIDIUM PLACEHOLDER"}, 3},
		{"name with zero prefix", "0 " + issText, []string{"ISS (ZARYA)"}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tles, skipped := ParseText(tt.raw)
			if tles == nil {
				t.Fatal("ParseText returned nil slice")
			}
			if skipped != tt.wantSkipped {
				t.Errorf("skipped = %d, want %d", skipped, tt.wantSkipped)
			}
			if len(tles) != len(tt.wantNames) {
				t.Fatalf("got %d sets, want %d: %+v", len(tles), len(tt.wantNames), tles)
			}
			for i, tle := range tles {
				if tle.Name != tt.wantNames[i] {
					t.Errorf("name[%d] = %q, want %q", i, tle.Name, tt.wantNames[i])
				}
				if len(tle.Line1) != orbit.LineLength || len(tle.Line2) != orbit.LineLength {
					t.Errorf("set %d has bad line lengths", i)
				}
			}
		})
	}
}

func TestEmbeddedFallbackInitializes(t *testing.T) {
	tles, skipped := ParseText(embeddedTLE)
	if len(tles) != 1 || skipped != 0 {
		t.Fatalf("embedded fallback parsed to %d sets (%d skipped)", len(tles), skipped)
	}
	if _, err := orbit.Initialize(tles[0], orbit.ModelSGP4); err != nil {
		t.Fatalf("embedded fallback rejected: %v", err)
	}
}

func server(t *testing.T, body string, status *atomic.Int32, hits *atomic.Int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if code := status.Load(); code != 0 {
			w.WriteHeader(int(code))
			return
		}
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestFetchTiers(t *testing.T) {
	var status, hits atomic.Int32
	srv := server(t, issText, &status, &hits)
	dir := t.TempDir()
	rec := &events.Recorder{}

	store := NewStore(Options{
		Datasets: map[string]string{"iridium": srv.URL},
		CacheDir: dir,
		MaxAge:   time.Hour,
		Sink:     rec,
	})
	ctx := context.Background()

	// Network, then cached.
	for i := 0; i < 2; i++ {
		tles, err := store.Fetch(ctx, nil)
		if err != nil {
			t.Fatalf("fetch %d: %v", i, err)
		}
		if len(tles) != 1 || tles[0].Name != "ISS (ZARYA)" {
			t.Fatalf("fetch %d = %+v", i, tles)
		}
	}
	if n := hits.Load(); n != 1 {
		t.Errorf("server hit %d times, want 1", n)
	}
	if _, err := os.Stat(store.cachePath("iridium")); err != nil {
		t.Fatalf("cache not written: %v", err)
	}

	// Expired cache plus a failing server falls back to the stale copy.
	old := time.Now().Add(-2 * time.Hour)
	if err := os.Chtimes(store.cachePath("iridium"), old, old); err != nil {
		t.Fatal(err)
	}
	status.Store(http.StatusServiceUnavailable)
	tles, err := store.Fetch(ctx, []string{"iridium"})
	if err != nil || len(tles) != 1 {
		t.Fatalf("stale fetch = %v, %v", tles, err)
	}
	if n := hits.Load(); n != 2 {
		t.Errorf("server hit %d times, want 2", n)
	}

	var sources []string
	for _, e := range rec.OfType(events.TypeDatasetFetched) {
		if src, ok := e.Data["source"].(string); ok {
			sources = append(sources, src)
		}
	}
	want := []string{"network", "cache", "stale-cache"}
	if strings.Join(sources, ",") != strings.Join(want, ",") {
		t.Errorf("sources = %v, want %v", sources, want)
	}

	info := store.CacheInfo()
	if len(info) != 1 || !info[0].Cached || info[0].Fresh || info[0].Satellites != 1 {
		t.Errorf("CacheInfo() = %+v", info)
	}
}

func TestFetchDedupesAcrossDatasets(t *testing.T) {
	var status, hits atomic.Int32
	a := server(t, issText+placeholderText, &status, &hits)
	b := server(t, placeholderText, &status, &hits)

	store := NewStore(Options{Datasets: map[string]string{"a": a.URL, "b": b.URL}})
	tles, err := store.Fetch(context.Background(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(tles) != 2 {
		t.Errorf("got %d sets, want 2", len(tles))
	}
}

func TestFetchPartialFailure(t *testing.T) {
	var okStatus, badStatus, hits atomic.Int32
	good := server(t, issText, &okStatus, &hits)
	bad := server(t, "", &badStatus, &hits)
	badStatus.Store(http.StatusInternalServerError)

	store := NewStore(Options{Datasets: map[string]string{"good": good.URL, "bad": bad.URL}, Fallback: true})
	tles, err := store.Fetch(context.Background(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(tles) != 1 || tles[0].Name != "ISS (ZARYA)" {
		t.Errorf("partial failure should not use the placeholder: %+v", tles)
	}
}

func TestFetchAllFail(t *testing.T) {
	var status, hits atomic.Int32
	srv := server(t, "", &status, &hits)
	status.Store(http.StatusBadGateway)

	t.Run("fallback", func(t *testing.T) {
		store := NewStore(Options{Datasets: map[string]string{"iridium": srv.URL}, Fallback: true})
		tles, err := store.Fetch(context.Background(), nil)
		if err != nil {
			t.Fatal(err)
		}
		if len(tles) != 1 || tles[0].Name != "IRIDIUM PLACEHOLDER" {
			t.Errorf("fallback = %+v", tles)
		}
	})

	t.Run("no fallback", func(t *testing.T) {
		store := NewStore(Options{Datasets: map[string]string{"iridium": srv.URL}})
		if _, err := store.Fetch(context.Background(), nil); err == nil || !strings.Contains(err.Error(), "HTTP 502") {
			t.Errorf("Fetch() = %v, want HTTP 502 error", err)
		}
	})
}

func TestFetchUnknownDataset(t *testing.T) {
	store := NewStore(Options{})
	_, err := store.Fetch(context.Background(), []string{"globalstar"})
	if !errors.Is(err, ErrUnknownDataset) {
		t.Errorf("Fetch() = %v, want ErrUnknownDataset", err)
	}
	if names := store.Names(); strings.Join(names, ",") != "iridium,iridium-NEXT" {
		t.Errorf("default datasets = %v", names)
	}
}

func TestFileSource(t *testing.T) {
	path := t.TempDir() + "/elements.txt"
	if err := os.WriteFile(path, []byte(issText+"junk\n"+placeholderText), 0o644); err != nil {
		t.Fatal(err)
	}
	rec := &events.Recorder{}
	tles, err := FileSource{Path: path, Sink: rec}.Fetch(context.Background(), []string{"ignored"})
	if err != nil || len(tles) != 2 {
		t.Fatalf("Fetch() = %d sets, %v", len(tles), err)
	}
	if ev := rec.OfType(events.TypeDatasetFetched); len(ev) != 1 || ev[0].Data["skipped"] != 1 {
		t.Errorf("events = %+v", ev)
	}

	empty := t.TempDir() + "/empty.txt"
	_ = os.WriteFile(empty, nil, 0o644)
	if _, err := (FileSource{Path: empty}).Fetch(context.Background(), nil); err == nil {
		t.Error("empty file accepted")
	}
	if _, err := (FileSource{Path: empty + ".missing"}).Fetch(context.Background(), nil); err == nil {
		t.Error("missing file accepted")
	}
	if len(Embedded()) != 1 {
		t.Error("embedded placeholder missing")
	}
}
