package ctl

import (
	"fmt"
	"strings"
	"time"
)

// StatusResponse mirrors the JSON returned by GET /api/status.
type StatusResponse struct {
	Name          string `json:"name"`
	State         string `json:"state"`
	UptimeSeconds int64  `json:"uptime_seconds"`
	DataRoot      string `json:"data_root"`
	Model         string `json:"model"`
	ActiveRuns    int    `json:"active_runs"`
	StoredRuns    int    `json:"stored_runs"`
	MaxRuns       int    `json:"max_runs"`
	WSClients     int    `json:"ws_clients"`
}

// Status fetches the daemon status and prints a formatted summary.
func Status(baseURL string, jsonOutput bool) error {
	baseURL = strings.TrimRight(baseURL, "/")

	var s StatusResponse
	if err := getJSON(baseURL, "/api/status", &s); err != nil {
		return err
	}
	if jsonOutput {
		return printJSON(s)
	}

	uptime := formatDuration(time.Duration(s.UptimeSeconds) * time.Second)

	fmt.Println()
	fmt.Println(header("SATVIZ DAEMON STATUS", 38))
	fmt.Println(field("Daemon", s.Name))
	fmt.Println(field("State", stateStyle(s.State).Render(s.State)))
	fmt.Println(field("Uptime", uptime))
	fmt.Println(field("Propagator", s.Model))
	fmt.Println(field("Runs", fmt.Sprintf("%d active, %d stored (max %d)", s.ActiveRuns, s.StoredRuns, s.MaxRuns)))
	fmt.Println(field("Watchers", s.WSClients))
	fmt.Println(field("Data", s.DataRoot))
	fmt.Println(field("Host", baseURL))
	fmt.Println()

	return nil
}
