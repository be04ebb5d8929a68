package sim

import (
	"time"

	"github.com/jaivanshchawla/Satviz/internal/geometry"
	"github.com/jaivanshchawla/Satviz/internal/orbit"
)

// Handshake is an inactive→active link transition.
type Handshake struct {
	Timestamp       int64           `json:"timestamp"`
	IridiumID       string          `json:"iridiumId"`
	BeaconPosition  geometry.Vector `json:"beaconPositionEci"`
	IridiumPosition geometry.Vector `json:"iridiumPositionEci"`
	BeaconGeodetic  orbit.Geodetic  `json:"beaconGeodetic"`
	DistanceKm      float64         `json:"distanceKm"`
}

// BlackoutPeriod is a contiguous span with no active link.
type BlackoutPeriod struct {
	Start       int64   `json:"start"`
	End         int64   `json:"end"`
	DurationSec float64 `json:"duration"`
}

// TrackPoint is one propagated sample.
type TrackPoint struct {
	Timestamp int64           `json:"timestamp"`
	Position  geometry.Vector `json:"positionEci"`
	Velocity  geometry.Vector `json:"velocityEci"`
	Geodetic  orbit.Geodetic  `json:"geodetic"`
}

// Results is the complete output of one run. Every slice and map is
// non-nil. BeaconTrack[i] and ActiveLinksLog[i] describe the same instant.
//
// Memory grows with steps × satellites; nothing here is capped.
type Results struct {
	RunID     string    `json:"runId"`
	Config    Config    `json:"config"`
	StartTime int64     `json:"startTime"`
	EndTime   int64     `json:"endTime"`
	Beacon    orbit.TLE `json:"beaconTle"`

	TotalHandshakes       int     `json:"totalHandshakes"`
	TotalBlackouts        int     `json:"totalBlackouts"`
	TotalBlackoutDuration float64 `json:"totalBlackoutDuration"`
	StepsEvaluated        int     `json:"stepsEvaluated"`
	StepsSkipped          int     `json:"stepsSkipped"`
	IridiumCount          int     `json:"iridiumCount"`

	Handshakes     []Handshake             `json:"handshakes"`
	Blackouts      []BlackoutPeriod        `json:"blackouts"`
	BeaconTrack    []TrackPoint            `json:"beaconTrack"`
	IridiumTracks  map[string][]TrackPoint `json:"iridiumTracks"`
	ActiveLinksLog [][]string              `json:"activeLinksLog"`
}

func newResults(id string, cfg Config, start, end time.Time, iridium int) *Results {
	return &Results{
		RunID:          id,
		Config:         cfg,
		StartTime:      unixMilli(start),
		EndTime:        unixMilli(end),
		IridiumCount:   iridium,
		Handshakes:     []Handshake{},
		Blackouts:      []BlackoutPeriod{},
		BeaconTrack:    []TrackPoint{},
		IridiumTracks:  make(map[string][]TrackPoint, iridium),
		ActiveLinksLog: [][]string{},
	}
}

// Summary is the run header without the per-step arrays.
type Summary struct {
	RunID                 string  `json:"runId"`
	StartTime             int64   `json:"startTime"`
	EndTime               int64   `json:"endTime"`
	Mode                  string  `json:"handshakeMode"`
	TotalHandshakes       int     `json:"totalHandshakes"`
	TotalBlackouts        int     `json:"totalBlackouts"`
	TotalBlackoutDuration float64 `json:"totalBlackoutDuration"`
	StepsEvaluated        int     `json:"stepsEvaluated"`
	StepsSkipped          int     `json:"stepsSkipped"`
	IridiumCount          int     `json:"iridiumCount"`
}

// Summary drops the bulky arrays.
func (r *Results) Summary() Summary {
	return Summary{
		RunID:                 r.RunID,
		StartTime:             r.StartTime,
		EndTime:               r.EndTime,
		Mode:                  string(r.Config.Mode),
		TotalHandshakes:       r.TotalHandshakes,
		TotalBlackouts:        r.TotalBlackouts,
		TotalBlackoutDuration: r.TotalBlackoutDuration,
		StepsEvaluated:        r.StepsEvaluated,
		StepsSkipped:          r.StepsSkipped,
		IridiumCount:          r.IridiumCount,
	}
}

func unixMilli(t time.Time) int64 {
	return t.UnixMilli()
}

func trackPoint(st orbit.State) TrackPoint {
	return TrackPoint{
		Timestamp: unixMilli(st.Time),
		Position:  st.Position,
		Velocity:  st.Velocity,
		Geodetic:  orbit.ECIToGeodetic(st.Position, st.Time),
	}
}
