package ctl

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// Health checks daemon liveness and prints the component checks from
// GET /healthz.
func Health(baseURL string, jsonOutput bool) error {
	baseURL = strings.TrimRight(baseURL, "/")

	req, err := http.NewRequest(http.MethodGet, baseURL+"/healthz", nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	resp, err := httpClient.Do(req)
	if err != nil {
		if jsonOutput {
			return printJSON(map[string]any{"healthy": false, "url": baseURL, "error": err.Error()})
		}
		return err
	}
	defer resp.Body.Close()

	var body struct {
		Healthy bool                      `json:"healthy"`
		Checks  map[string]map[string]any `json:"checks"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return fmt.Errorf("decoding health response (HTTP %d): %w", resp.StatusCode, err)
	}

	if jsonOutput {
		return printJSON(map[string]any{"healthy": body.Healthy, "url": baseURL, "checks": body.Checks})
	}

	fmt.Println()
	if body.Healthy {
		fmt.Printf("  %s  beacond is healthy at %s\n", okStyle.Render("HEALTHY"), dimStyle.Render(baseURL))
	} else {
		fmt.Printf("  %s  beacond returned HTTP %d at %s\n", errorStyle.Render("UNHEALTHY"), resp.StatusCode, dimStyle.Render(baseURL))
	}

	names := make([]string, 0, len(body.Checks))
	for n := range body.Checks {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		c := body.Checks[n]
		mark := okStyle.Render("ok  ")
		if ok, _ := c["ok"].(bool); !ok {
			mark = errorStyle.Render("FAIL")
		}
		detail := ""
		if e, ok := c["error"].(string); ok {
			detail = e
		} else if fresh, ok := c["fresh"].(bool); ok && !fresh {
			detail = warnStyle.Render("stale")
		}
		fmt.Printf("    %s %s %s\n", mark, padRight(n, 24), detail)
	}
	fmt.Println()

	return nil
}
