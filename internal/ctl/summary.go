package ctl

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jaivanshchawla/Satviz/internal/sim"
)

// RenderResults writes a terminal summary of res: the run header, then at
// most maxRows handshakes and blackouts. maxRows <= 0 lists them all.
func RenderResults(w io.Writer, res *sim.Results, maxRows int) {
	start := time.UnixMilli(res.StartTime).UTC()
	end := time.UnixMilli(res.EndTime).UTC()

	fmt.Fprintln(w)
	fmt.Fprintln(w, header("SIMULATION "+res.RunID, 56))
	fmt.Fprintln(w, field("Window", fmt.Sprintf("%s -> %s (%s)", formatMillis(res.StartTime), formatMillis(res.EndTime), formatDuration(end.Sub(start)))))
	fmt.Fprintln(w, field("Mode", string(res.Config.Mode)))
	fmt.Fprintln(w, field("FOV", fmt.Sprintf("iridium %g°, beacon %g°", res.Config.IridiumFOVDeg, res.Config.BeaconFOVDeg)))
	fmt.Fprintln(w, field("Step", fmt.Sprintf("%gs", res.Config.TimeStepSec)))
	fmt.Fprintln(w, field("Iridium", fmt.Sprintf("%d satellites", res.IridiumCount)))
	steps := fmt.Sprintf("%d evaluated", res.StepsEvaluated)
	if res.StepsSkipped > 0 {
		steps += ", " + warnStyle.Render(fmt.Sprintf("%d skipped", res.StepsSkipped))
	}
	fmt.Fprintln(w, field("Steps", steps))
	if res.Beacon.Line1 != "" {
		fmt.Fprintln(w, field("Beacon TLE", res.Beacon.Line1))
		fmt.Fprintln(w, field("", res.Beacon.Line2))
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, field("Handshakes", boldStyle.Render(fmt.Sprint(res.TotalHandshakes))))
	blackout := time.Duration(res.TotalBlackoutDuration * float64(time.Second))
	fmt.Fprintln(w, field("Blackouts", boldStyle.Render(fmt.Sprintf("%d (%s total)", res.TotalBlackouts, formatDuration(blackout)))))
	fmt.Fprintln(w)

	if len(res.Handshakes) > 0 {
		t := newTable("Time", "Iridium", "Lat", "Lon", "Alt km", "Range km")
		for i, h := range res.Handshakes {
			if maxRows > 0 && i == maxRows {
				break
			}
			g := h.BeaconGeodetic
			t.Row(formatMillis(h.Timestamp), h.IridiumID,
				fmt.Sprintf("%.2f", g.LatitudeDeg), fmt.Sprintf("%.2f", g.LongitudeDeg),
				fmt.Sprintf("%.1f", g.AltitudeKm), fmt.Sprintf("%.1f", h.DistanceKm))
		}
		fmt.Fprintln(w, indent(t.Render()))
		fmt.Fprintln(w, more(len(res.Handshakes), maxRows, "handshakes"))
	}

	if len(res.Blackouts) > 0 {
		t := newTable("Start", "End", "Duration")
		for i, b := range res.Blackouts {
			if maxRows > 0 && i == maxRows {
				break
			}
			t.Row(formatMillis(b.Start), formatMillis(b.End),
				formatDuration(time.Duration(b.DurationSec*float64(time.Second))))
		}
		fmt.Fprintln(w, indent(t.Render()))
		fmt.Fprintln(w, more(len(res.Blackouts), maxRows, "blackouts"))
	}
}

func more(total, shown int, what string) string {
	if shown <= 0 || total <= shown {
		return ""
	}
	return dimStyle.Render(fmt.Sprintf("  ... %d more %s (use --json for all)", total-shown, what))
}

// RenderSummary writes a one-line summary for run lists.
func RenderSummary(s sim.Summary) string {
	return strings.Join([]string{
		fmt.Sprintf("%d handshakes", s.TotalHandshakes),
		fmt.Sprintf("%d blackouts", s.TotalBlackouts),
		fmt.Sprintf("%d iridium", s.IridiumCount),
	}, ", ")
}
