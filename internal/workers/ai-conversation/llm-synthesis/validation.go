package llmsynthesis

import (
	"incident-assistant/internal/common/errors"
	"incident-assistant/internal/common/validation"
)

var inputSchema = validation.MustCompile(TaskType, `{
  "type": "object",
  "required": ["user_query"],
  "properties": {
    "user_query": {"type": "string", "minLength": 1},
    "kb_results": {"type": ["array", "null"], "items": {"type": "object"}},
    "incident_results": {"type": ["array", "null"], "items": {"type": "object"}}
  }
}`)

// ParseInput validates raw job variables.
func ParseInput(vars map[string]interface{}) (*Input, error) {
	input := &Input{}
	if err := inputSchema.Bind(vars, input); err != nil {
		return nil, errors.NewValidationError(err.Error())
	}
	return input, nil
}
