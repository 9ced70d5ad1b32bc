package searchincidents

import (
	"incident-assistant/internal/common/errors"
	"incident-assistant/internal/common/validation"
)

var inputSchema = validation.MustCompile(TaskType, `{
  "type": "object",
  "properties": {
    "short_description_contains": {"type": ["string", "null"], "maxLength": 500},
    "limit": {"type": ["integer", "null"], "minimum": 0}
  }
}`)

// ParseInput validates raw tool arguments or job variables.
func ParseInput(vars map[string]interface{}) (*Input, error) {
	var input Input
	if err := inputSchema.Bind(vars, &input); err != nil {
		return nil, errors.NewValidationError(err.Error())
	}
	return &input, nil
}
