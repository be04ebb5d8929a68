// Package events defines the diagnostic event envelope emitted by the
// simulation core and the sinks that consume it. The core never logs on its
// own; callers hand it a Sink, and the daemon fans the same events out to
// slog and to WebSocket clients.
package events

import (
	"sync"
	"time"
)

// Type identifies the kind of event.
type Type string

const (
	TypeDegenerateVector  Type = "degenerate_vector"
	TypeHorizonFallback   Type = "horizon_fallback"
	TypePropagationFailed Type = "propagation_failed"
	TypeElementRejected   Type = "element_rejected"
	TypeHandshake         Type = "handshake"
	TypeBlackoutStart     Type = "blackout_start"
	TypeBlackoutEnd       Type = "blackout_end"
	TypeRunStarted        Type = "run_started"
	TypeRunCompleted      Type = "run_completed"
	TypeRunFailed         Type = "run_failed"
	TypeDatasetFetched    Type = "dataset_fetched"
	TypeState             Type = "state"
	TypeHeartbeat         Type = "heartbeat"
	TypeLog               Type = "log"
)

// Level is the severity attached to an event.
type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// Event is the envelope shared by every event. Data holds type-specific
// fields and is marshalled as-is.
type Event struct {
	Type      Type           `json:"type"`
	TS        string         `json:"ts"`
	Component string         `json:"component,omitempty"`
	Level     Level          `json:"level,omitempty"`
	Message   string         `json:"message,omitempty"`
	Data      map[string]any `json:"data,omitempty"`
}

// NowTS returns the current UTC time as an RFC 3339 nano string, matching
// the timestamp format used across all events.
func NowTS() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

// New stamps an event with the current time.
func New(typ Type, component string, level Level, msg string, data map[string]any) Event {
	return Event{
		Type:      typ,
		TS:        NowTS(),
		Component: component,
		Level:     level,
		Message:   msg,
		Data:      data,
	}
}

// Heartbeat is sent periodically so clients can detect connectivity and
// monitor daemon uptime.
func Heartbeat(state string, uptime time.Duration) Event {
	return New(TypeHeartbeat, "app", LevelDebug, "", map[string]any{
		"state":          state,
		"uptime_seconds": int64(uptime.Seconds()),
	})
}

// StateChange is emitted whenever the daemon moves between operating states.
func StateChange(from, to string) Event {
	return New(TypeState, "app", LevelInfo, "state "+from+" -> "+to, map[string]any{
		"from": from,
		"to":   to,
	})
}

// Sink receives events. Implementations must be safe for concurrent use and
// must not block the caller for long.
type Sink interface {
	Emit(Event)
}

// SinkFunc adapts a function to a Sink.
type SinkFunc func(Event)

func (f SinkFunc) Emit(e Event) { f(e) }

// Discard drops every event.
var Discard Sink = SinkFunc(func(Event) {})

type multi []Sink

func (m multi) Emit(e Event) {
	for _, s := range m {
		s.Emit(e)
	}
}

// Multi fans every event out to all non-nil sinks in order.
func Multi(sinks ...Sink) Sink {
	out := make(multi, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			out = append(out, s)
		}
	}
	return out
}

// OrDiscard returns s, or Discard when s is nil.
func OrDiscard(s Sink) Sink {
	if s == nil {
		return Discard
	}
	return s
}

// Recorder keeps every event it receives. It is meant for tests.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Emit(e Event) {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
}

// Events returns a copy of everything recorded so far.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// OfType returns the recorded events of type t.
func (r *Recorder) OfType(t Type) []Event {
	var out []Event
	for _, e := range r.Events() {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}
