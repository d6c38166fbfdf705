// Package ui renders operator-facing console output.
package ui

import "github.com/charmbracelet/lipgloss"

// Color palette
// - Accent (soft purple #A78BFA): file paths
// - Muted (gray): labels, skipped files
// - Failures are marked with a symbol, not a color

var (
	// Accent style for file paths
	Accent = lipgloss.NewStyle().Foreground(lipgloss.Color("#A78BFA"))

	// Muted style for labels and secondary info
	Muted = lipgloss.NewStyle().Foreground(lipgloss.Color("#6C7086"))

	// Bold style for emphasis
	Bold = lipgloss.NewStyle().Bold(true)
)
