package tui

import (
	"github.com/charmbracelet/lipgloss"
)

var (
	accentCyan  = lipgloss.Color("#00FFFF")
	accentGreen = lipgloss.Color("#39FF14")
	accentRed   = lipgloss.Color("#FF3B3B")
	accentAmber = lipgloss.Color("#FFB000")
	dimWhite    = lipgloss.Color("#B0B0B0")

	titleStyle = lipgloss.NewStyle().
			Foreground(accentCyan).
			Bold(true).
			Padding(0, 1)

	labelStyle = lipgloss.NewStyle().
			Foreground(dimWhite)

	doneStyle = lipgloss.NewStyle().
			Foreground(accentGreen).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(accentRed).
			Bold(true)

	retryStyle = lipgloss.NewStyle().
			Foreground(accentAmber)

	footerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#626262")).
			Padding(1, 0, 0, 1)
)
