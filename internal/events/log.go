package events

import (
	"context"
	"log/slog"
	"sort"
)

type logSink struct {
	log *slog.Logger
}

// NewLogSink writes events to log as structured records. Heartbeats are
// dropped; they only matter to live clients.
func NewLogSink(log *slog.Logger) Sink {
	if log == nil {
		return Discard
	}
	return &logSink{log: log}
}

func (s *logSink) Emit(e Event) {
	if e.Type == TypeHeartbeat {
		return
	}

	attrs := make([]slog.Attr, 0, len(e.Data)+2)
	attrs = append(attrs, slog.String("event", string(e.Type)))
	if e.Component != "" {
		attrs = append(attrs, slog.String("component", e.Component))
	}

	keys := make([]string, 0, len(e.Data))
	for k := range e.Data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		attrs = append(attrs, slog.Any(k, e.Data[k]))
	}

	msg := e.Message
	if msg == "" {
		msg = string(e.Type)
	}
	s.log.LogAttrs(context.Background(), slogLevel(e.Level), msg, attrs...)
}

func slogLevel(l Level) slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ParseLevel maps a config string to an slog level, defaulting to info.
func ParseLevel(s string) slog.Level {
	return slogLevel(Level(s))
}
