package searchknowledgebase

import (
	"incident-assistant/internal/common/errors"
	"incident-assistant/internal/common/validation"
)

const inputSchemaJSON = `{
  "type": "object",
  "properties": {
    "short_description_contains": {"type": ["string", "null"], "maxLength": 500},
    "limit": {"type": ["integer", "null"], "minimum": 0}
  }
}`

var inputSchema = validation.MustCompile(TaskType, inputSchemaJSON)

// ParseInput validates raw tool arguments or job variables.
func ParseInput(vars map[string]interface{}) (*Input, error) {
	input := &Input{}
	if err := inputSchema.Bind(vars, input); err != nil {
		return nil, errors.NewValidationError(err.Error())
	}
	return input, nil
}
