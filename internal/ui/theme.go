// Package ui renders the assistant's terminal output and prompts.
package ui

import "github.com/charmbracelet/lipgloss"

var (
	red     = lipgloss.Color("1")
	green   = lipgloss.Color("2")
	yellow  = lipgloss.Color("3")
	blue    = lipgloss.Color("4")
	magenta = lipgloss.Color("5")
	cyan    = lipgloss.AdaptiveColor{Light: "4", Dark: "6"}
	gray    = lipgloss.Color("8")
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Italic(true)
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)

	bannerStyle = lipgloss.NewStyle().Bold(true).Foreground(cyan)
	statusStyle = lipgloss.NewStyle().Bold(true).Foreground(blue)
	greenText   = lipgloss.NewStyle().Bold(true).Foreground(green)
	yellowText  = lipgloss.NewStyle().Foreground(yellow)
	redText     = lipgloss.NewStyle().Foreground(red)
	dimText     = lipgloss.NewStyle().Foreground(gray)
)
