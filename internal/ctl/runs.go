package ctl

import (
	"fmt"
	"os"
	"strings"
)

// Runs lists the simulations the daemon still holds, newest first.
func Runs(baseURL string, jsonOutput bool) error {
	baseURL = strings.TrimRight(baseURL, "/")

	var resp struct {
		Simulations []runView `json:"simulations"`
	}
	if err := getJSON(baseURL, "/api/simulations", &resp); err != nil {
		return err
	}
	if jsonOutput {
		return printJSON(resp)
	}

	fmt.Println()
	fmt.Println(header("SIMULATIONS", 50))
	if len(resp.Simulations) == 0 {
		fmt.Println("  No simulations yet.")
		fmt.Println()
		return nil
	}

	t := newTable("ID", "Status", "Submitted", "Result")
	for _, r := range resp.Simulations {
		result := r.Error
		if r.Summary != nil {
			result = RenderSummary(*r.Summary)
		}
		t.Row(r.ID, statusStyle(r.Status).Render(r.Status), r.SubmittedAt.UTC().Format("2006-01-02 15:04:05Z"), result)
	}
	fmt.Println(indent(t.Render()))
	fmt.Println()
	return nil
}

// Run shows one simulation. maxRows limits the handshake and blackout
// tables.
func Run(baseURL, id string, maxRows int, jsonOutput bool) error {
	baseURL = strings.TrimRight(baseURL, "/")
	if id == "" {
		return fmt.Errorf("run id required")
	}

	var v runView
	if err := getJSON(baseURL, "/api/simulations/"+id, &v); err != nil {
		return err
	}
	if jsonOutput {
		return printJSON(v)
	}

	if v.Results == nil {
		fmt.Println()
		fmt.Println(header("SIMULATION "+v.ID, 56))
		fmt.Println(field("Status", statusStyle(v.Status).Render(v.Status)))
		if v.Error != "" {
			fmt.Println(field("Error", errorStyle.Render(v.Error)))
		}
		fmt.Println()
		return nil
	}
	RenderResults(os.Stdout, v.Results, maxRows)
	return nil
}
