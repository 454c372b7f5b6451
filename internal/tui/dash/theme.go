// Package dash implements the hookctl dashboard TUI: subscriptions, their
// recent deliveries, and a trigger form with a live signature preview.
package dash

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/mattjoyce/hookctl/internal/client"
)

// Theme centralizes all styling for the dashboard.
type Theme struct {
	// Delivery status badges
	StatusCompleted    lipgloss.Style
	StatusPendingRetry lipgloss.Style
	StatusFailed       lipgloss.Style
	StatusInProgress   lipgloss.Style
	StatusOther        lipgloss.Style

	// UI elements
	Pane        lipgloss.Style
	FocusedPane lipgloss.Style
	Title       lipgloss.Style
	Label       lipgloss.Style
	Dim         lipgloss.Style
	Code        lipgloss.Style
	Success     lipgloss.Style
	Error       lipgloss.Style
}

func badge(bg string) lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color("#FFFFFF")).
		Background(lipgloss.Color(bg)).
		Bold(true).
		Padding(0, 1)
}

func NewDefaultTheme() Theme {
	purple := lipgloss.Color("#874BFD")

	return Theme{
		StatusCompleted:    badge("#4CAF50"),
		StatusPendingRetry: badge("#FFA726"),
		StatusFailed:       badge("#F44336"),
		StatusInProgress:   badge("#2196F3"),
		StatusOther:        badge("#9E9E9E"),

		Pane: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1),
		FocusedPane: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(purple).
			Padding(0, 1),
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")),
		Label:   lipgloss.NewStyle().Foreground(lipgloss.Color("#61AFEF")),
		Dim:     lipgloss.NewStyle().Foreground(lipgloss.Color("#888888")),
		Code:    lipgloss.NewStyle().Foreground(lipgloss.Color("#E5C07B")),
		Success: lipgloss.NewStyle().Foreground(lipgloss.Color("#4CAF50")),
		Error:   lipgloss.NewStyle().Foreground(lipgloss.Color("#F44336")),
	}
}

// BadgeStyle picks the badge style for a delivery status.
func (t Theme) BadgeStyle(s client.Status) lipgloss.Style {
	switch s {
	case client.StatusCompleted:
		return t.StatusCompleted
	case client.StatusPendingRetry:
		return t.StatusPendingRetry
	case client.StatusFailed:
		return t.StatusFailed
	case client.StatusInProgress:
		return t.StatusInProgress
	default:
		return t.StatusOther
	}
}

// Badge renders s as a coloured label.
func (t Theme) Badge(s client.Status) string {
	return t.BadgeStyle(s).Render(s.Label())
}
