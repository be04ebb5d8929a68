// Package ctl implements the client-side commands for beaconctl and the
// terminal rendering shared with beaconsim. It talks to a running beacond
// over HTTP and WebSocket. Styling goes through lipgloss, which drops
// colors on its own when stdout is not a terminal.
package ctl

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205"))

	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	boldStyle   = lipgloss.NewStyle().Bold(true)
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("46"))
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("226"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	accentStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))

	headerCellStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39")).
			Padding(0, 1)
	cellStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")).
			Padding(0, 1)
)

// stateStyle picks the color for a daemon state.
func stateStyle(state string) lipgloss.Style {
	switch state {
	case "IDLE":
		return okStyle
	case "SIMULATING":
		return accentStyle
	case "BOOTING":
		return dimStyle
	default:
		return lipgloss.NewStyle()
	}
}

// statusStyle picks the color for a run status.
func statusStyle(status string) lipgloss.Style {
	switch status {
	case "completed":
		return okStyle
	case "running":
		return accentStyle
	case "failed":
		return errorStyle
	default:
		return lipgloss.NewStyle()
	}
}

// header returns a section title with a rule underneath.
func header(title string, width int) string {
	return "  " + titleStyle.Render(title) + "\n" + dimStyle.Render("  "+strings.Repeat("─", width))
}

// field renders one "label: value" line.
func field(label string, value any) string {
	return fmt.Sprintf("  %s %v", dimStyle.Render(padRight(label+":", 14)), value)
}

// newTable builds a bordered table with the shared header and cell styles.
func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(dimStyle).
		Headers(headers...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerCellStyle
			}
			return cellStyle
		})
}

// indent prefixes every line of block with two spaces.
func indent(block string) string {
	lines := strings.Split(block, "\n")
	for i, l := range lines {
		lines[i] = "  " + l
	}
	return strings.Join(lines, "\n")
}

// padRight pads s with spaces to reach the given width.
func padRight(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}

// formatDuration renders a duration as a compact human string like
// "2h 14m 8s" or "45s".
func formatDuration(d time.Duration) string {
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	if h > 0 {
		return fmt.Sprintf("%dh %dm %ds", h, m, s)
	}
	if m > 0 {
		return fmt.Sprintf("%dm %ds", m, s)
	}
	return fmt.Sprintf("%ds", s)
}

// formatMillis renders a Unix millisecond timestamp in UTC.
func formatMillis(ms int64) string {
	return time.UnixMilli(ms).UTC().Format("2006-01-02 15:04:05Z")
}
