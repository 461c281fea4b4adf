package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const personSchema = `{
	"type": "object",
	"required": ["name"],
	"properties": {
		"name": {"type": "string", "minLength": 1},
		"age": {"type": "integer", "minimum": 0},
		"tags": {"type": "array", "items": {"type": "string"}}
	}
}`

func TestSchema_Validate(t *testing.T) {
	schema := MustCompileSchema(personSchema)

	tests := []struct {
		name       string
		document   interface{}
		wantValid  bool
		wantFields []string
	}{
		{
			name:      "valid document",
			document:  map[string]interface{}{"name": "alice", "age": 30, "tags": []interface{}{"a"}},
			wantValid: true,
		},
		{
			name:      "missing required field",
			document:  map[string]interface{}{"age": 3},
			wantValid: false,
		},
		{
			name:       "wrong nested type",
			document:   map[string]interface{}{"name": "bob", "tags": []interface{}{1}},
			wantValid:  false,
			wantFields: []string{"tags.0"},
		},
		{
			name:       "not an object",
			document:   []interface{}{"x"},
			wantValid:  false,
			wantFields: []string{"(root)"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := schema.Validate(tt.document)
			assert.Equal(t, tt.wantValid, result.Valid)
			for _, field := range tt.wantFields {
				assert.True(t, result.HasErrors(field), "expected error on %s, got %v", field, result.GetErrorMessages())
			}
		})
	}
}

func TestValidateDocument(t *testing.T) {
	result, err := ValidateDocument(`{"type":"object"}`, map[string]interface{}{"a": 1})
	require.NoError(t, err)
	assert.True(t, result.Valid)

	result, err = ValidateDocument(`{"type":"object"}`, "text")
	require.NoError(t, err)
	assert.False(t, result.Valid)
	assert.NotEmpty(t, result.GetErrorMessages())

	_, err = ValidateDocument(`{"type": 12}`, nil)
	assert.Error(t, err)
}

func TestValidationResult_GetErrorsForField(t *testing.T) {
	vr := &ValidationResult{Errors: []ValidationError{
		{Field: "user", Message: "bad"},
		{Field: "user.name", Message: "too short"},
		{Field: "username", Message: "other"},
	}}

	assert.Len(t, vr.GetErrorsForField("user"), 2)
	assert.Equal(t, []string{"user: bad", "user.name: too short", "username: other"}, vr.GetErrorMessages())
}
