package llmsynthesis

import (
	"encoding/json"
	"fmt"
	"strings"
)

// FallbackSuggestion is used when the model returns no text.
const FallbackSuggestion = "I couldn't find a suggested fix for this issue. " +
	"Consider creating an incident so the support team can investigate."

func BuildPrompt(input *Input) string {
	var parts []string

	parts = append(parts, fmt.Sprintf("User issue: %q", input.UserQuery))

	parts = append(parts, "\nRelated Knowledge Base entries:")
	parts = append(parts, toJSON(input.KBResults))

	parts = append(parts, "\nRelated Incidents:")
	parts = append(parts, toJSON(input.IncidentResults))

	parts = append(parts, "")
	parts = append(parts, "- Include KB numbers that mention the topic even if not exact matches.")
	parts = append(parts, "- Suggest clear next steps or escalation guidance.")

	return strings.Join(parts, "\n")
}

func toJSON(v interface{}) string {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil || string(raw) == "null" {
		return "[]"
	}
	return string(raw)
}
