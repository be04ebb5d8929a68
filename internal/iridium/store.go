// Package iridium supplies Iridium element sets to the simulation. Each
// dataset is fetched from CelesTrak (or any configured URL) and cached on
// disk; when every dataset is unreachable a single placeholder element set
// compiled into the binary keeps the engine runnable.
package iridium

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/jaivanshchawla/Satviz/internal/events"
	"github.com/jaivanshchawla/Satviz/internal/orbit"
)

//go:embed fallback_tle.txt
var embeddedTLE string

const (
	component = "iridium"

	fetchTimeout = 30 * time.Second
	maxBodyBytes = 8 << 20
)

// ErrUnknownDataset reports a dataset name with no configured URL.
var ErrUnknownDataset = errors.New("unknown iridium dataset")

// DefaultDatasets are the CelesTrak groups that make up the constellation.
func DefaultDatasets() map[string]string {
	return map[string]string{
		"iridium":      "https://celestrak.org/NORAD/elements/gp.php?GROUP=iridium&FORMAT=tle",
		"iridium-NEXT": "https://celestrak.org/NORAD/elements/gp.php?GROUP=iridium-NEXT&FORMAT=tle",
	}
}

// Source names where a dataset's text came from.
type Source string

const (
	SourceCache      Source = "cache"
	SourceNetwork    Source = "network"
	SourceStaleCache Source = "stale-cache"
	SourceEmbedded   Source = "embedded"
)

// Options configures a Store.
type Options struct {
	// Datasets maps a dataset name to its URL.
	Datasets map[string]string
	// Selected is used when Fetch is called without a selection.
	Selected []string
	CacheDir string
	MaxAge   time.Duration
	// Fallback enables the embedded placeholder element set.
	Fallback bool
	Client   *http.Client
	Sink     events.Sink
}

// Store fetches and caches element sets per dataset. It uses a tiered
// fallback strategy: fresh disk cache, network fetch, stale disk cache, and
// finally the embedded placeholder.
type Store struct {
	datasets map[string]string
	selected []string
	cacheDir string
	maxAge   time.Duration
	fallback bool
	client   *http.Client
	sink     events.Sink
}

// NewStore returns a store with defaults filled in.
func NewStore(opts Options) *Store {
	s := &Store{
		datasets: opts.Datasets,
		selected: opts.Selected,
		cacheDir: opts.CacheDir,
		maxAge:   opts.MaxAge,
		fallback: opts.Fallback,
		client:   opts.Client,
		sink:     events.OrDiscard(opts.Sink),
	}
	if len(s.datasets) == 0 {
		s.datasets = DefaultDatasets()
	}
	if len(s.selected) == 0 {
		s.selected = s.Names()
	}
	if s.maxAge <= 0 {
		s.maxAge = 12 * time.Hour
	}
	if s.client == nil {
		s.client = &http.Client{Timeout: fetchTimeout}
	}
	return s
}

// Names lists the configured datasets in sorted order.
func (s *Store) Names() []string {
	names := make([]string, 0, len(s.datasets))
	for n := range s.datasets {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Fetch returns the parsed element sets of every selected dataset, deduped
// by catalog number. A dataset that cannot be loaded from any tier is
// skipped. Only when all of them fail does the embedded placeholder apply.
func (s *Store) Fetch(ctx context.Context, selected []string) ([]orbit.TLE, error) {
	if len(selected) == 0 {
		selected = s.selected
	}
	for _, name := range selected {
		if _, ok := s.datasets[name]; !ok {
			return nil, fmt.Errorf("%w: %q (have %s)", ErrUnknownDataset, name, strings.Join(s.Names(), ", "))
		}
	}

	var (
		out     = []orbit.TLE{}
		seen    = make(map[string]bool)
		loaded  int
		lastErr error
	)
	for _, name := range selected {
		raw, src, err := s.load(ctx, name)
		if err != nil {
			lastErr = err
			s.sink.Emit(events.New(events.TypeDatasetFetched, component, events.LevelWarn, "dataset unavailable", map[string]any{
				"dataset": name,
				"error":   err.Error(),
			}))
			continue
		}
		loaded++

		tles, skipped := ParseText(raw)
		s.sink.Emit(events.New(events.TypeDatasetFetched, component, events.LevelInfo, "dataset loaded", map[string]any{
			"dataset":    name,
			"source":     string(src),
			"satellites": len(tles),
			"skipped":    skipped,
		}))
		for _, t := range tles {
			key := strings.TrimSpace(t.Line1[2:7])
			if seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, t)
		}
	}

	if loaded > 0 {
		return out, nil
	}
	if s.fallback && embeddedTLE != "" {
		tles, _ := ParseText(embeddedTLE)
		s.sink.Emit(events.New(events.TypeDatasetFetched, component, events.LevelWarn, "all datasets failed, using embedded placeholder", map[string]any{
			"source":     string(SourceEmbedded),
			"satellites": len(tles),
		}))
		return tles, nil
	}
	return nil, fmt.Errorf("all iridium sources exhausted: %w", lastErr)
}

func (s *Store) cachePath(name string) string {
	return filepath.Join(s.cacheDir, "tle", name+".txt")
}

// load walks the fallback chain for one dataset:
// fresh cache -> network -> stale cache.
func (s *Store) load(ctx context.Context, name string) (string, Source, error) {
	path := s.cachePath(name)

	if s.cacheDir != "" {
		info, err := os.Stat(path)
		if err == nil && time.Since(info.ModTime()) < s.maxAge {
			if b, readErr := os.ReadFile(path); readErr == nil && len(b) > 0 {
				return string(b), SourceCache, nil
			}
		}
	}

	body, fetchErr := s.fetchFromNetwork(ctx, s.datasets[name])
	if fetchErr == nil {
		if s.cacheDir != "" {
			// Cache write failure is non-fatal; we already have the data in memory.
			_ = writeCache(path, body)
		}
		return body, SourceNetwork, nil
	}

	if s.cacheDir != "" {
		if b, readErr := os.ReadFile(path); readErr == nil && len(b) > 0 {
			return string(b), SourceStaleCache, nil
		}
	}

	return "", "", fmt.Errorf("dataset %s: %w", name, fetchErr)
}

func (s *Store) fetchFromNetwork(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetching elements: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("element fetch returned HTTP %d", resp.StatusCode)
	}

	b, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes+1))
	if err != nil {
		return "", fmt.Errorf("reading response body: %w", err)
	}
	if len(b) > maxBodyBytes {
		return "", fmt.Errorf("response exceeds %d byte limit", maxBodyBytes)
	}
	if len(strings.TrimSpace(string(b))) == 0 {
		return "", errors.New("element fetch returned an empty body")
	}
	return string(b), nil
}

// writeCache atomically writes data to path via a temp file and rename so
// readers never see a half-written file.
func writeCache(path, data string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, "tle-*.tmp")
	if err != nil {
		return err
	}

	if _, err := tmp.WriteString(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}

	return os.Rename(tmp.Name(), path)
}

// CacheStatus describes the on-disk cache of one dataset.
type CacheStatus struct {
	Dataset    string  `json:"dataset"`
	URL        string  `json:"url"`
	Path       string  `json:"path,omitempty"`
	Cached     bool    `json:"cached"`
	AgeHours   float64 `json:"age_hours,omitempty"`
	Fresh      bool    `json:"fresh"`
	Satellites int     `json:"satellites"`
}

// CacheInfo reports the cache state of every configured dataset without
// touching the network.
func (s *Store) CacheInfo() []CacheStatus {
	out := make([]CacheStatus, 0, len(s.datasets))
	for _, name := range s.Names() {
		st := CacheStatus{Dataset: name, URL: s.datasets[name]}
		if s.cacheDir != "" {
			st.Path = s.cachePath(name)
			if info, err := os.Stat(st.Path); err == nil {
				age := time.Since(info.ModTime())
				st.Cached = true
				st.AgeHours = age.Hours()
				st.Fresh = age < s.maxAge
				if b, err := os.ReadFile(st.Path); err == nil {
					tles, _ := ParseText(string(b))
					st.Satellites = len(tles)
				}
			}
		}
		out = append(out, st)
	}
	return out
}
