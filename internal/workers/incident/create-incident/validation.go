package createincident

import (
	"fmt"
	"time"

	"incident-assistant/internal/common/errors"
	"incident-assistant/internal/common/validation"
)

var inputSchema = validation.MustCompile(TaskType, `{
  "type": "object",
  "required": ["number", "opened", "short_description", "description"],
  "properties": {
    "number": {"type": "string", "minLength": 1, "maxLength": 32},
    "opened": {"type": "string", "minLength": 1},
    "short_description": {"type": "string", "minLength": 1, "maxLength": 512},
    "description": {"type": "string"},
    "state": {"type": "string", "enum": ["New", "In Progress", "On Hold", "Closed"]},
    "assigned_to": {"type": ["string", "null"], "maxLength": 128}
  }
}`)

// ParseInput validates raw tool arguments or job variables.
func ParseInput(vars map[string]interface{}) (*Input, error) {
	input := &Input{}
	if err := inputSchema.Bind(vars, input); err != nil {
		return nil, errors.NewValidationError(err.Error())
	}
	return input, nil
}

// Zone-less layouts are read as local time.
var localLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseOpened accepts RFC 3339 or ISO 8601 without a zone offset. Fractional
// seconds are allowed in either form.
func ParseOpened(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, errors.NewValidationError(fmt.Sprintf("opened: %q is not an ISO 8601 timestamp", s))
}
