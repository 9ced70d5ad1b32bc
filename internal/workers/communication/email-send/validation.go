package emailsend

import (
	"fmt"
	"strings"

	"incident-assistant/internal/common/errors"
	"incident-assistant/internal/common/validation"
)

var inputSchema = validation.MustCompile(TaskType, `{
  "type": "object",
  "required": ["to", "subject", "body"],
  "properties": {
    "to": {"type": "array", "minItems": 1, "items": {"type": "string", "minLength": 3, "maxLength": 255}},
    "subject": {"type": "string", "maxLength": 500},
    "body": {"type": "string"},
    "cc": {"type": ["array", "null"], "items": {"type": "string"}},
    "bcc": {"type": ["array", "null"], "items": {"type": "string"}},
    "from": {"type": "string", "maxLength": 255}
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

func validateEmailAddresses(input *Input) error {
	if len(input.To) == 0 {
		return fmt.Errorf("at least one 'to' address is required")
	}
	fields := []struct {
		name  string
		addrs []string
	}{{"to", input.To}, {"cc", input.Cc}, {"bcc", input.Bcc}}

	for _, f := range fields {
		for _, addr := range f.addrs {
			if !validation.ValidateEmail(strings.TrimSpace(addr)) {
				return fmt.Errorf("invalid '%s' email address: %s", f.name, addr)
			}
		}
	}
	if input.From != "" && !validation.ValidateEmail(input.From) {
		return fmt.Errorf("invalid 'from' email address: %s", input.From)
	}
	return nil
}
