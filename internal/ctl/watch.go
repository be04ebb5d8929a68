package ctl

import (
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/websocket"

	"github.com/jaivanshchawla/Satviz/internal/events"
)

// WatchOptions controls the watch command behavior.
type WatchOptions struct {
	Filter []string // event types to show (empty = all)
	JSON   bool     // output raw JSON per event
}

// wsURL turns the daemon base URL into its /ws endpoint.
func wsURL(baseURL string) (string, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("unsupported scheme: %s", u.Scheme)
	}
	u.Path = "/ws"
	u.RawQuery = ""
	return u.String(), nil
}

// Watch connects to the daemon's WebSocket endpoint and streams events to
// the terminal until interrupted.
func Watch(baseURL string, opts WatchOptions) error {
	endpoint, err := wsURL(baseURL)
	if err != nil {
		return err
	}

	conn, _, err := websocket.DefaultDialer.Dial(endpoint, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	if !opts.JSON {
		fmt.Println()
		fmt.Printf("  %s %s\n", okStyle.Render("connected"), dimStyle.Render(endpoint))
		if len(opts.Filter) > 0 {
			fmt.Printf("  %s %s\n", dimStyle.Render("filter:"), dimStyle.Render(strings.Join(opts.Filter, ", ")))
		}
		fmt.Println(dimStyle.Render("  " + strings.Repeat("─", 50)))
		fmt.Println()
	}

	filter := newFilter(opts.Filter)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				return
			}
			var ev events.Event
			if err := json.Unmarshal(msg, &ev); err == nil && !filter(ev.Type) {
				continue
			}
			if opts.JSON {
				fmt.Println(string(msg))
			} else {
				renderEvent(os.Stdout, msg)
			}
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sig:
		if !opts.JSON {
			fmt.Println()
			fmt.Println(dimStyle.Render("  disconnecting..."))
		}
		_ = conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"),
			time.Now().Add(1*time.Second),
		)
		return nil
	case <-done:
		return nil
	}
}

// newFilter accepts every type when names is empty.
func newFilter(names []string) func(events.Type) bool {
	if len(names) == 0 {
		return func(events.Type) bool { return true }
	}
	set := make(map[events.Type]bool, len(names))
	for _, n := range names {
		set[events.Type(strings.TrimSpace(n))] = true
	}
	return func(t events.Type) bool { return set[t] }
}

// renderEvent prints one event in a human-friendly format. Unrecognized
// types fall back to indented JSON so nothing is lost.
func renderEvent(w io.Writer, raw []byte) {
	var ev events.Event
	if err := json.Unmarshal(raw, &ev); err != nil {
		fmt.Fprintf(w, "  %s\n", string(raw))
		return
	}

	ts := dimStyle.Render(formatEventTime(ev.TS))
	str := func(k string) string { s, _ := ev.Data[k].(string); return s }
	num := func(k string) float64 { f, _ := ev.Data[k].(float64); return f }

	switch ev.Type {
	case events.TypeHeartbeat:
		state := str("state")
		uptime := formatDuration(time.Duration(num("uptime_seconds")) * time.Second)
		fmt.Fprintf(w, "  %s %s  %s  up %s\n", ts, dimStyle.Render("heartbeat"), stateStyle(state).Render(state), dimStyle.Render(uptime))

	case events.TypeState:
		from, to := str("from"), str("to")
		fmt.Fprintf(w, "  %s %s  %s %s %s\n", ts, boldStyle.Render("STATE"),
			stateStyle(from).Render(from), dimStyle.Render("->"), stateStyle(to).Render(to))

	case events.TypeHandshake:
		fmt.Fprintf(w, "  %s %s  %s at %s  %s\n", ts, okStyle.Render("HANDSHAKE"),
			boldStyle.Render(str("iridium")), str("at"), dimStyle.Render(fmt.Sprintf("%.0f km", num("distance_km"))))

	case events.TypeBlackoutStart:
		fmt.Fprintf(w, "  %s %s  at %s\n", ts, warnStyle.Render("BLACKOUT"), str("at"))

	case events.TypeBlackoutEnd:
		dur := formatDuration(time.Duration(num("duration_sec") * float64(time.Second)))
		fmt.Fprintf(w, "  %s %s  at %s after %s\n", ts, okStyle.Render("RESTORED"), str("at"), dur)

	case events.TypeRunStarted:
		fmt.Fprintf(w, "\n  %s %s  %s  %s -> %s, %s, %.0f iridium\n", ts, accentStyle.Render("RUN"),
			str("run_id"), str("start"), str("end"), str("mode"), num("iridium"))

	case events.TypeRunCompleted:
		fmt.Fprintf(w, "  %s %s  %s  %.0f handshakes, %.0f blackouts\n\n", ts, okStyle.Render("DONE"),
			str("run_id"), num("handshakes"), num("blackouts"))

	case events.TypeRunFailed:
		fmt.Fprintf(w, "  %s %s  %s  %s\n\n", ts, errorStyle.Render("FAILED"), str("run_id"), str("error"))

	default:
		fmt.Fprintf(w, "  %s %s  %s%s\n", ts, formatLevel(ev.Level), component(ev.Component), messageOf(ev))
	}
}

func component(c string) string {
	if c == "" {
		return ""
	}
	return dimStyle.Render("["+c+"] ")
}

// messageOf renders the message plus data for events without a dedicated
// layout.
func messageOf(ev events.Event) string {
	msg := ev.Message
	if msg == "" {
		msg = string(ev.Type)
	}
	if len(ev.Data) == 0 {
		return msg
	}
	b, err := json.Marshal(ev.Data)
	if err != nil {
		return msg
	}
	return msg + " " + dimStyle.Render(string(b))
}

// formatEventTime shortens an RFC 3339 timestamp to local wall time.
func formatEventTime(ts string) string {
	t, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		if len(ts) > 10 {
			return ts[:10]
		}
		return padRight(ts, 8)
	}
	return t.Local().Format("15:04:05")
}

// formatLevel returns a colored, fixed-width level label.
func formatLevel(level events.Level) string {
	switch level {
	case events.LevelInfo:
		return okStyle.Render("INFO ")
	case events.LevelWarn:
		return warnStyle.Render("WARN ")
	case events.LevelError:
		return errorStyle.Render("ERROR")
	default:
		return dimStyle.Render(padRight(string(level), 5))
	}
}
