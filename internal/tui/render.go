package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/1broseidon/intellihide/internal/intellihide"
	"github.com/1broseidon/intellihide/internal/ipc"
)

var (
	connectedDot    = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Render("●")
	disconnectedDot = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Render("●")

	statusBarStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("235")).
			Foreground(lipgloss.Color("250")).
			Padding(0, 1)

	bodyStyle = lipgloss.NewStyle().
			Padding(1, 2)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			Width(22)

	showingStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42"))
	hidingStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214"))

	footerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("250")).
			Padding(0, 1)

	helpStyle = lipgloss.NewStyle().
			Padding(0, 1)
)

// renderStatusBar renders the daemon connection status bar.
func renderStatusBar(status *ipc.StatusData, err error, width int) string {
	var text string
	switch {
	case err != nil:
		text = disconnectedDot + " daemon not running"
	case status == nil:
		text = disconnectedDot + " connecting..."
	default:
		parts := []string{connectedDot + " daemon connected"}
		if status.DockClass != "" {
			parts = append(parts, "dock:"+status.DockClass)
		}
		parts = append(parts, "presenter:"+status.PresenterMode)
		parts = append(parts, "up "+(time.Duration(status.UptimeSeconds)*time.Second).String())
		text = strings.Join(parts, "  ")
	}
	return statusBarStyle.Width(width).Render(text)
}

func renderBody(status *ipc.StatusData, width int) string {
	if status == nil {
		return bodyStyle.Width(width).Render("No status yet.")
	}

	visibility := showingStyle.Render(status.Visibility)
	if status.Visibility == intellihide.StatusHidden.String() {
		visibility = hidingStyle.Render(status.Visibility)
	}
	focus := status.FocusApp
	if focus == "" {
		focus = "-"
	}

	rows := []struct {
		label string
		value string
	}{
		{"dock", visibility},
		{"suspended", onOff(status.Suspended)},
		{"only active window", onOff(status.RestrictedToActiveWindow) + " (config " + onOff(status.OnlyActiveWindow) + ")"},
		{"grab polling", onOff(status.Polling)},
		{"focused app", focus},
		{"decisions", fmt.Sprintf("%d (%d shown, %d hidden)", status.Recomputes, status.Shows, status.Hides)},
	}

	lines := make([]string, 0, len(rows))
	for _, row := range rows {
		lines = append(lines, labelStyle.Render(row.label)+row.value)
	}
	return bodyStyle.Width(width).Render(strings.Join(lines, "\n"))
}

func renderFooter(lastAction string, width int) string {
	if lastAction == "" {
		return footerStyle.Width(width).Render(" ")
	}
	return footerStyle.Width(width).Render("last action: " + lastAction)
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}
