package ctl

import (
	"fmt"
	"strings"

	"github.com/jaivanshchawla/Satviz/internal/iridium"
)

// Iridium shows the element cache state of every configured dataset.
func Iridium(baseURL string, jsonOutput bool) error {
	baseURL = strings.TrimRight(baseURL, "/")

	var resp struct {
		Selected     []string              `json:"selected"`
		RefreshHours int                   `json:"refresh_hours"`
		Fallback     bool                  `json:"fallback"`
		Datasets     []iridium.CacheStatus `json:"datasets"`
	}
	if err := getJSON(baseURL, "/api/iridium", &resp); err != nil {
		return err
	}
	if jsonOutput {
		return printJSON(resp)
	}

	fmt.Println()
	fmt.Println(header("IRIDIUM ELEMENT CACHE", 50))
	selected := "all"
	if len(resp.Selected) > 0 {
		selected = strings.Join(resp.Selected, ", ")
	}
	fmt.Println(field("Selected", selected))
	fmt.Println(field("Max age", fmt.Sprintf("%dh", resp.RefreshHours)))
	fmt.Println(field("Fallback", resp.Fallback))
	fmt.Println()

	if len(resp.Datasets) == 0 {
		fmt.Println(dimStyle.Render("  No on-disk cache for this source."))
		fmt.Println()
		return nil
	}

	t := newTable("Dataset", "Status", "Age", "Satellites", "URL")
	for _, d := range resp.Datasets {
		status, age := errorStyle.Render("NOT CACHED"), "-"
		if d.Cached {
			status = warnStyle.Render("STALE")
			if d.Fresh {
				status = okStyle.Render("FRESH")
			}
			age = fmt.Sprintf("%.1fh", d.AgeHours)
		}
		t.Row(d.Dataset, status, age, fmt.Sprint(d.Satellites), d.URL)
	}
	fmt.Println(indent(t.Render()))
	fmt.Println()
	return nil
}
