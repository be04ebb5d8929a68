package events

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestEventJSON(t *testing.T) {
	e := New(TypeHandshake, "sim", LevelInfo, "link up", map[string]any{"iridium": "IRIDIUM 106"})
	b, err := json.Marshal(e)
	if err != nil {
		t.Fatal(err)
	}
	var got map[string]any
	if err := json.Unmarshal(b, &got); err != nil {
		t.Fatal(err)
	}
	if got["type"] != "handshake" || got["component"] != "sim" || got["level"] != "info" {
		t.Errorf("envelope = %v", got)
	}
	if _, err := time.Parse(time.RFC3339Nano, got["ts"].(string)); err != nil {
		t.Errorf("ts %q: %v", got["ts"], err)
	}
	data := got["data"].(map[string]any)
	if data["iridium"] != "IRIDIUM 106" {
		t.Errorf("data = %v", data)
	}
}

func TestMultiAndRecorder(t *testing.T) {
	var a, b Recorder
	s := Multi(&a, nil, &b)
	s.Emit(New(TypeBlackoutStart, "sim", LevelInfo, "", nil))
	s.Emit(New(TypeBlackoutEnd, "sim", LevelInfo, "", nil))

	for _, r := range []*Recorder{&a, &b} {
		if n := len(r.Events()); n != 2 {
			t.Errorf("recorded %d events, want 2", n)
		}
		if n := len(r.OfType(TypeBlackoutEnd)); n != 1 {
			t.Errorf("OfType(blackout_end) = %d, want 1", n)
		}
	}

	OrDiscard(nil).Emit(Event{})
}

func TestLogSink(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	s := NewLogSink(log)

	s.Emit(New(TypePropagationFailed, "sim", LevelWarn, "propagation failed", map[string]any{"satellite": "BEACON", "step": 3}))
	s.Emit(Heartbeat("IDLE", time.Minute))

	out := buf.String()
	for _, want := range []string{"level=WARN", `msg="propagation failed"`, "event=propagation_failed", "component=sim", "satellite=BEACON", "step=3"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "heartbeat") {
		t.Errorf("heartbeat should not be logged:\n%s", out)
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
		"info":  slog.LevelInfo,
		"":      slog.LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}
