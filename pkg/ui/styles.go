package ui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/pterm/pterm"
)

const (
	symbolStart   = "❯"
	symbolDone    = "✔"
	symbolSkipped = "↓"
	symbolFailed  = "✖"
)

var (
	ErrorColor   = lipgloss.AdaptiveColor{Light: "#D70000", Dark: "#FF5F5F"}
	MutedColor   = lipgloss.AdaptiveColor{Light: "#8A8A8A", Dark: "#6C6C6C"}
	DetailsColor = lipgloss.AdaptiveColor{Light: "#5F5F87", Dark: "#AFAFD7"}

	ErrorStyle = lipgloss.NewStyle().
			Foreground(ErrorColor).
			Bold(true)

	MutedStyle = lipgloss.NewStyle().
			Foreground(MutedColor)

	DetailsStyle = lipgloss.NewStyle().
			Foreground(DetailsColor)

	BannerStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ErrorColor).
			Padding(0, 1)
)

// step status styles
var (
	startStyle   = pterm.NewStyle(pterm.FgYellow)
	doneStyle    = pterm.NewStyle(pterm.FgGreen)
	skippedStyle = pterm.NewStyle(pterm.FgGray)
	failedStyle  = pterm.NewStyle(pterm.FgRed, pterm.Bold)
)
