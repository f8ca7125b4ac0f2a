package cli

import "github.com/charmbracelet/lipgloss"

var (
	colorSuccess = lipgloss.AdaptiveColor{Light: "#15803D", Dark: "#4ADE80"}
	colorWarning = lipgloss.AdaptiveColor{Light: "#B45309", Dark: "#FBBF24"}
	colorError   = lipgloss.AdaptiveColor{Light: "#B91C1C", Dark: "#F87171"}
	colorMuted   = lipgloss.AdaptiveColor{Light: "#6B7280", Dark: "#9CA3AF"}
	colorAccent  = lipgloss.AdaptiveColor{Light: "#0E7490", Dark: "#22D3EE"}
)

var (
	SuccessStyle = lipgloss.NewStyle().Foreground(colorSuccess)
	WarningStyle = lipgloss.NewStyle().Foreground(colorWarning)
	ErrorStyle   = lipgloss.NewStyle().Bold(true).Foreground(colorError)
	MutedStyle   = lipgloss.NewStyle().Foreground(colorMuted)
	VersionStyle = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
	LabelStyle   = lipgloss.NewStyle().Width(14).Foreground(colorMuted)
)
