package tui

import (
	"examguard/types"

	"github.com/charmbracelet/lipgloss"
)

// Color palette
const (
	colorPrimary   = "#7D56F4"
	colorSuccess   = "#04B575"
	colorWarning   = "#FFA500"
	colorError     = "#FF0000"
	colorInfo      = "#626262"
	colorHighlight = "#FAFAFA"
	colorBorder    = "#874BFD"
)

var (
	TitleStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color(colorPrimary)).
		MarginTop(1).
		MarginBottom(1)

	StatusStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color(colorSuccess))

	ErrorStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color(colorError))

	InfoStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color(colorInfo))

	BoxStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(colorBorder)).
		Padding(1, 2)

	HighlightStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color(colorHighlight)).
		Background(lipgloss.Color(colorPrimary)).
		Padding(0, 1)

	TabStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color(colorInfo)).
		Padding(0, 1)

	riskHighStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color(colorError))

	riskMediumStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color(colorWarning))

	riskLowStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color(colorSuccess))
)

// RiskStyle colors a line by its risk tier.
func RiskStyle(level types.RiskLevel) lipgloss.Style {
	switch level {
	case types.RiskHigh:
		return riskHighStyle
	case types.RiskMedium:
		return riskMediumStyle
	default:
		return riskLowStyle
	}
}
