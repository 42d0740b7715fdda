package ui

import (
	"github.com/charmbracelet/lipgloss"

	"focusflow/internal/tasks"
	"focusflow/internal/view"
)

var (
	colorMuted   = lipgloss.AdaptiveColor{Light: "#6B7280", Dark: "#9CA3AF"}
	colorHigh    = lipgloss.AdaptiveColor{Light: "#DC2626", Dark: "#FF6B6B"}
	colorMedium  = lipgloss.AdaptiveColor{Light: "#B45309", Dark: "#FBBF24"}
	colorLow     = lipgloss.AdaptiveColor{Light: "#065F46", Dark: "#7EE2B8"}
	colorToday   = lipgloss.AdaptiveColor{Light: "#0070F3", Dark: "#79C0FF"}
	colorOverdue = colorHigh
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true)
	mutedStyle = lipgloss.NewStyle().Foreground(colorMuted)
	warnStyle  = lipgloss.NewStyle().Foreground(colorHigh).Bold(true)
	doneStyle  = lipgloss.NewStyle().Foreground(colorMuted).Strikethrough(true)
	badgeStyle = lipgloss.NewStyle().Padding(0, 1)
)

func priorityBadge(p tasks.Priority) string {
	c := colorMedium
	switch p {
	case tasks.PriorityHigh:
		c = colorHigh
	case tasks.PriorityLow:
		c = colorLow
	}
	return badgeStyle.Foreground(c).Render(p.Label())
}

func dueBadge(label string, status view.DueStatus) string {
	switch status {
	case view.DueToday:
		return badgeStyle.Foreground(colorToday).Bold(true).Render(label)
	case view.DueOverdue:
		return badgeStyle.Foreground(colorOverdue).Bold(true).Render(label)
	}
	return badgeStyle.Render(label)
}

// flag renders a bulk action label, dimmed when the action is disabled.
func flag(label string, enabled bool) string {
	if enabled {
		return "[" + label + "]"
	}
	return mutedStyle.Render("(" + label + ")")
}
