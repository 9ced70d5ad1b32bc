package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"incident-assistant/internal/store"
)

const (
	defaultWidth = 100
	separator    = "------------------------------------------------------------"
)

// Console writes the chat transcript: result tables, panels and the
// markdown suggestion.
type Console struct {
	out     io.Writer
	width   int
	mdStyle string
}

type ConsoleOption func(*Console)

// WithMarkdownStyle sets the glamour style ("auto", "dark", "light", "notty").
func WithMarkdownStyle(style string) ConsoleOption {
	return func(c *Console) { c.mdStyle = style }
}

func WithWidth(width int) ConsoleOption {
	return func(c *Console) {
		if width > 0 {
			c.width = width
		}
	}
}

func NewConsole(out io.Writer, opts ...ConsoleOption) *Console {
	c := &Console{out: out, width: defaultWidth, mdStyle: "auto"}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *Console) println(s string) {
	fmt.Fprintln(c.out, s)
}

func (c *Console) Banner() {
	title := bannerStyle.Render("AI Incident Assistant Ready")
	c.println(RenderPanel(lipgloss.JoinVertical(lipgloss.Left, title, "Type 'exit' to quit."), blue))
}

func (c *Console) Status(msg string) {
	c.println("\n" + statusStyle.Render(msg))
}

// Running announces a new agent run.
func (c *Console) Running() {
	c.println("\n" + greenText.Render("Running agent...") + "\n")
}

func (c *Console) Progress(msg string) {
	c.println(yellowText.Render(msg))
}

func (c *Console) Warn(msg string) {
	c.println(yellowText.Render("warning: " + msg))
}

func (c *Console) Error(msg string) {
	c.println(redText.Render(msg))
}

// KnowledgeResults prints the "Knowledge Base Results" table.
func (c *Console) KnowledgeResults(articles []store.KnowledgeArticle) {
	columns := []Column{
		{Title: "Number", Color: cyan},
		{Title: "Short Description", Color: green},
		{Title: "Category", Color: magenta},
		{Title: "Author", Color: yellow},
	}

	rows := make([][]string, 0, len(articles))
	for _, kb := range articles {
		rows = append(rows, []string{
			orDefault(kb.Number, "N/A"),
			orDefault(kb.ShortDescription, "No description"),
			orDefault(store.Deref(kb.Category), "Unknown"),
			orDefault(store.Deref(kb.Author), "N/A"),
		})
	}
	if len(rows) == 0 {
		rows = append(rows, []string{"-", "No KB articles found", "-", "-"})
	}

	c.println(RenderTable("Knowledge Base Results", columns, rows))
}

// IncidentResults prints the "Related Incidents" table.
func (c *Console) IncidentResults(incidents []store.Incident) {
	columns := []Column{
		{Title: "Number", Color: cyan},
		{Title: "Short Description", Color: green},
		{Title: "State", Color: yellow},
	}

	rows := make([][]string, 0, len(incidents))
	for _, inc := range incidents {
		rows = append(rows, []string{
			orDefault(inc.Number, "N/A"),
			orDefault(inc.ShortDescription, "No description"),
			orDefault(inc.State, "Unknown"),
		})
	}
	if len(rows) == 0 {
		rows = append(rows, []string{"-", "No incidents found", "-"})
	}

	c.println(RenderTable("Related Incidents", columns, rows))
}

func (c *Console) Suggestion(text string) {
	md := RenderMarkdown("💡 **Suggested Fix:**\n\n"+text, c.mdStyle, c.width-4)
	c.println(RenderPanel(md, green))
}

func (c *Console) Notice(msg string) {
	c.println(RenderPanel(msg, yellow))
}

func (c *Console) Success(msg string) {
	c.println(RenderPanel(msg, green))
}

// FinalResponse prints the end-of-run panel and the separator line.
func (c *Console) FinalResponse(text string) {
	c.println(RenderPanel(text, cyan))
	c.println("\n" + dimText.Render(separator) + "\n")
}

func (c *Console) Goodbye() {
	c.println(redText.Render("Exiting chat..."))
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
