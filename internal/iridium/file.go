package iridium

import (
	"context"
	"fmt"
	"os"

	"github.com/jaivanshchawla/Satviz/internal/events"
	"github.com/jaivanshchawla/Satviz/internal/orbit"
)

// FileSource reads element sets from a local TLE file, ignoring dataset
// selection. It backs offline runs.
type FileSource struct {
	Path string
	Sink events.Sink
}

func (f FileSource) Fetch(_ context.Context, _ []string) ([]orbit.TLE, error) {
	b, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, fmt.Errorf("reading element file: %w", err)
	}
	tles, skipped := ParseText(string(b))
	events.OrDiscard(f.Sink).Emit(events.New(events.TypeDatasetFetched, component, events.LevelInfo, "element file loaded", map[string]any{
		"path":       f.Path,
		"satellites": len(tles),
		"skipped":    skipped,
	}))
	if len(tles) == 0 {
		return nil, fmt.Errorf("%s: no element sets found", f.Path)
	}
	return tles, nil
}

// Embedded returns the compiled-in placeholder element set.
func Embedded() []orbit.TLE {
	tles, _ := ParseText(embeddedTLE)
	return tles
}
