package ui

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"incident-assistant/internal/store"
)

func TestRenderTable(t *testing.T) {
	out := RenderTable("Mock Email Sent",
		[]Column{{Title: "Field", Color: cyan}, {Title: "Value"}},
		[][]string{{"To", "support@example.com"}, {"Subject", "New Incident INC1"}},
	)

	for _, want := range []string{"Mock Email Sent", "Field", "Value", "support@example.com", "New Incident INC1"} {
		assert.Contains(t, out, want)
	}
}

func TestConsole_KnowledgeResults(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(&buf, WithMarkdownStyle("notty"))

	c.KnowledgeResults([]store.KnowledgeArticle{
		{Number: "KB0001", ShortDescription: "Reset VPN password", Category: store.StringPtr("Network")},
	})
	out := buf.String()
	assert.Contains(t, out, "Knowledge Base Results")
	assert.Contains(t, out, "KB0001")
	assert.Contains(t, out, "Network")
	// missing author falls back to N/A
	assert.Contains(t, out, "N/A")
}

func TestConsole_EmptyResultsUsePlaceholders(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(&buf)

	c.KnowledgeResults(nil)
	c.IncidentResults(nil)

	assert.Contains(t, buf.String(), "No KB articles found")
	assert.Contains(t, buf.String(), "No incidents found")
	assert.Contains(t, buf.String(), "Related Incidents")
}

func TestConsole_SuggestionAndFinal(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(&buf, WithMarkdownStyle("notty"), WithWidth(80))

	c.Suggestion("Restart the **VPN client** and see KB0001.")
	c.FinalResponse("Glad it helped! No escalation needed.")

	out := buf.String()
	assert.Contains(t, out, "Suggested Fix")
	assert.Contains(t, out, "KB0001")
	assert.Contains(t, out, "Glad it helped! No escalation needed.")
	assert.Contains(t, out, separator)
}

func TestRenderMarkdown_PlainText(t *testing.T) {
	out := RenderMarkdown("hello world", "notty", 40)
	assert.Contains(t, out, "hello world")
}
