package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const incidentSchema = `{
  "type": "object",
  "required": ["number", "short_description"],
  "properties": {
    "number": {"type": "string", "minLength": 1},
    "short_description": {"type": "string", "minLength": 1},
    "state": {"type": "string", "enum": ["New", "In Progress", "On Hold", "Closed"]}
  }
}`

func TestSchema_Validate(t *testing.T) {
	schema := MustCompile("create_incident", incidentSchema)
	assert.Equal(t, "create_incident", schema.Name())

	tests := []struct {
		name      string
		input     interface{}
		valid     bool
		badFields []string
	}{
		{
			name:  "valid map",
			input: map[string]interface{}{"number": "INC1", "short_description": "VPN down"},
			valid: true,
		},
		{
			name: "valid struct",
			input: struct {
				Number           string `json:"number"`
				ShortDescription string `json:"short_description"`
				State            string `json:"state"`
			}{"INC1", "VPN down", "On Hold"},
			valid: true,
		},
		{
			name:      "missing required",
			input:     map[string]interface{}{"number": "INC1"},
			valid:     false,
			badFields: []string{"(root)"},
		},
		{
			name:      "bad enum",
			input:     map[string]interface{}{"number": "INC1", "short_description": "x", "state": "Resolved"},
			valid:     false,
			badFields: []string{"state"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := schema.Validate(tt.input)
			assert.Equal(t, tt.valid, res.Valid, res.Error())
			for _, f := range tt.badFields {
				assert.True(t, res.HasErrors(f), "expected error on %s: %v", f, res.GetErrorMessages())
			}
			if tt.valid {
				assert.Empty(t, res.Error())
			}
		})
	}
}

func TestCompile_InvalidSchema(t *testing.T) {
	_, err := Compile("broken", `{"type": 12}`)
	require.Error(t, err)
	assert.Panics(t, func() { MustCompile("broken", `{`) })
}

func TestValidateEmail(t *testing.T) {
	assert.True(t, ValidateEmail("support@example.com"))
	assert.False(t, ValidateEmail("not-an-email"))
	assert.False(t, ValidateEmail("a@b"))
}

func TestSchema_Bind(t *testing.T) {
	schema := MustCompile("create_incident", incidentSchema)

	var out struct {
		Number           string `json:"number"`
		ShortDescription string `json:"short_description"`
	}
	err := schema.Bind(map[string]interface{}{"number": "INC9", "short_description": "printer jam", "extra": 1}, &out)
	require.NoError(t, err)
	assert.Equal(t, "INC9", out.Number)
	assert.Equal(t, "printer jam", out.ShortDescription)

	err = schema.Bind(nil, &out)
	require.Error(t, err)
	res, ok := err.(*ValidationResult)
	require.True(t, ok)
	assert.False(t, res.Valid)
}
