package ui

import "github.com/charmbracelet/lipgloss"

// RenderPanel boxes body in a rounded border of the given color.
func RenderPanel(body string, color lipgloss.TerminalColor) string {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(color).
		Bold(true).
		Padding(0, 1).
		Render(body)
}
