package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// Column is a table column with an optional foreground color.
type Column struct {
	Title string
	Color lipgloss.TerminalColor
}

// RenderTable draws a titled table with lines between rows.
func RenderTable(title string, columns []Column, rows [][]string) string {
	headers := make([]string, len(columns))
	for i, c := range columns {
		headers[i] = c.Title
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(gray)).
		BorderRow(true).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			if col < len(columns) && columns[col].Color != nil {
				return cellStyle.Foreground(columns[col].Color)
			}
			return cellStyle
		})

	var b strings.Builder
	if title != "" {
		rendered := t.Render()
		width := lipgloss.Width(rendered)
		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, titleStyle.Render(title)))
		b.WriteString("\n")
		b.WriteString(rendered)
		return b.String()
	}
	return t.Render()
}
