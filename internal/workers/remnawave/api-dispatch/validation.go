package apidispatch

import "remnawave-workers/internal/common/validation"

// inputSchema describes the job variables. A job names its route at the top
// level, per item, or both.
const inputSchema = `{
	"type": "object",
	"properties": {
		"resource":      {"type": "string", "minLength": 1},
		"operation":     {"type": "string", "minLength": 1},
		"action":        {"type": "string", "minLength": 1},
		"credentialsId": {"type": "string"},
		"batchId":       {"type": "string", "minLength": 1},
		"items": {
			"type": "array",
			"items": {"type": "object"}
		}
	},
	"anyOf": [
		{"required": ["action"]},
		{"required": ["resource", "operation"]},
		{"required": ["items"]}
	]
}`

var compiledInputSchema = validation.MustCompileSchema(inputSchema)

func GetInputSchema() *validation.Schema {
	return compiledInputSchema
}

// GetInputSchemaJSON returns the raw schema document.
func GetInputSchemaJSON() string {
	return inputSchema
}
