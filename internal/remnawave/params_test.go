package remnawave

import (
	"testing"

	"remnawave-workers/internal/common/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve_Defaults(t *testing.T) {
	params, err := Resolve(mustRoute("users", "getAll"), map[string]interface{}{})
	require.NoError(t, err)

	assert.Equal(t, float64(0), params.Number("start"))
	assert.Equal(t, float64(25), params.Number("size"))
	assert.False(t, params.Bool("returnAll"))

	params, err = Resolve(mustRoute("users", "get"), map[string]interface{}{"identifierValue": "abc"})
	require.NoError(t, err)
	assert.Equal(t, "uuid", params.String("identifierType"))
}

func TestResolve_Coercion(t *testing.T) {
	params, err := Resolve(mustRoute("users", "getAll"), map[string]interface{}{
		"start":     "50",
		"limit":     float64(10),
		"returnAll": "TRUE",
	})
	require.NoError(t, err)
	assert.Equal(t, float64(50), params.Number("start"))
	assert.Equal(t, float64(10), params.Number("size"))
	assert.True(t, params.Bool("returnAll"))

	params, err = Resolve(mustRoute("users", "get"), map[string]interface{}{
		"identifierType":  "telegram-id",
		"identifierValue": float64(123456789),
	})
	require.NoError(t, err)
	assert.Equal(t, "123456789", params.String("identifierValue"))
}

func TestResolve_Aliases(t *testing.T) {
	params, err := Resolve(mustRoute("users", "update"), map[string]interface{}{
		"updateUuid":   "u-1",
		"updateFields": `{"status":"ACTIVE"}`,
	})
	require.NoError(t, err)
	assert.Equal(t, "u-1", params.String("uuid"))
	assert.Equal(t, map[string]interface{}{"status": "ACTIVE"}, params.Object("fields"))

	params, err = Resolve(mustRoute("users", "delete"), map[string]interface{}{"deleteIdentifierValue": "u-2"})
	require.NoError(t, err)
	assert.Equal(t, "u-2", params.String("uuid"))

	params, err = Resolve(mustRoute("users", "revoke"), map[string]interface{}{"revokeUuid": "u-3"})
	require.NoError(t, err)
	assert.Equal(t, "u-3", params.String("uuid"))
}

func TestResolve_ValidationErrors(t *testing.T) {
	tests := []struct {
		name      string
		route     *Route
		record    map[string]interface{}
		wantParam string
		wantRaw   interface{}
		contains  string
	}{
		{
			name:      "missing required uuid",
			route:     mustRoute("users", "delete"),
			record:    map[string]interface{}{},
			wantParam: "uuid",
			contains:  "parameter is required",
		},
		{
			name:      "blank string counts as missing",
			route:     mustRoute("users", "get"),
			record:    map[string]interface{}{"identifierValue": "   "},
			wantParam: "identifierValue",
			contains:  "parameter is required",
		},
		{
			name:      "malformed JSON string",
			route:     mustRoute("users", "create"),
			record:    map[string]interface{}{"fields": `{"username": "bob"`},
			wantParam: "fields",
			wantRaw:   `{"username": "bob"`,
			contains:  "invalid JSON",
		},
		{
			name:      "JSON array is not an object",
			route:     mustRoute("users", "create"),
			record:    map[string]interface{}{"fields": `[1,2]`},
			wantParam: "fields",
			wantRaw:   `[1,2]`,
			contains:  "expected JSON object",
		},
		{
			name:      "unknown identifier type",
			route:     mustRoute("users", "get"),
			record:    map[string]interface{}{"identifierType": "phone", "identifierValue": "1"},
			wantParam: "identifierType",
			wantRaw:   "phone",
			contains:  "identifier type must be one of",
		},
		{
			name:      "non numeric size",
			route:     mustRoute("users", "getAll"),
			record:    map[string]interface{}{"size": "lots"},
			wantParam: "size",
			wantRaw:   "lots",
			contains:  "expected number",
		},
		{
			name:      "non boolean returnAll",
			route:     mustRoute("users", "getAll"),
			record:    map[string]interface{}{"returnAll": "yes"},
			wantParam: "returnAll",
			wantRaw:   "yes",
			contains:  "expected boolean",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Resolve(tt.route, tt.record)
			require.Error(t, err)
			assert.True(t, errors.IsValidation(err))

			stdErr, ok := errors.AsStandardError(err)
			require.True(t, ok)
			assert.Equal(t, tt.wantParam, stdErr.Metadata["parameter"])
			assert.Equal(t, tt.route.Name(), stdErr.Metadata["route"])
			assert.Contains(t, stdErr.Message, tt.route.Name())
			assert.Contains(t, stdErr.Message, tt.contains)
			if tt.wantRaw != nil {
				assert.Equal(t, tt.wantRaw, stdErr.Metadata["rawValue"])
			}
		})
	}
}

func TestResolve_ObjectAndStringJSONMatch(t *testing.T) {
	route := mustRoute("users", "create")

	fromString, err := Resolve(route, map[string]interface{}{
		"fields": `{"username":"alice","trafficLimitBytes":1024,"tags":["a"]}`,
	})
	require.NoError(t, err)

	fromObject, err := Resolve(route, map[string]interface{}{
		"fields": map[string]interface{}{
			"username":          "alice",
			"trafficLimitBytes": float64(1024),
			"tags":              []interface{}{"a"},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, fromString.Object("fields"), fromObject.Object("fields"))
}
