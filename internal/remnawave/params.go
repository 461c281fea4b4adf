package remnawave

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"remnawave-workers/internal/common/errors"
	"remnawave-workers/internal/common/validation"
)

var objectSchema = validation.MustCompileSchema(`{"type": "object"}`)

// Params holds the typed parameter values of one record. Strings are string,
// numbers float64, booleans bool and JSON parameters map[string]interface{}.
type Params map[string]interface{}

func (p Params) String(name string) string {
	s, _ := p[name].(string)
	return s
}

func (p Params) Number(name string) float64 {
	n, _ := p[name].(float64)
	return n
}

func (p Params) Bool(name string) bool {
	b, _ := p[name].(bool)
	return b
}

func (p Params) Object(name string) map[string]interface{} {
	m, _ := p[name].(map[string]interface{})
	return m
}

// Resolve reads every parameter the route declares from record. It fails with
// a validation error before anything is sent when a required parameter is
// missing or a value cannot be coerced to its declared type.
func Resolve(route *Route, record map[string]interface{}) (Params, error) {
	params := make(Params, len(route.Params))

	for _, spec := range route.Params {
		raw, found := lookupParam(record, spec)
		if !found {
			if spec.Required {
				return nil, errors.NewValidationError(spec.Name, nil, "parameter is required").InRoute(route.Name())
			}
			if spec.Default != nil {
				params[spec.Name] = spec.Default
			}
			continue
		}

		value, err := coerce(spec, raw)
		if err != nil {
			return nil, errors.NewValidationError(spec.Name, raw, err.Error()).InRoute(route.Name())
		}
		params[spec.Name] = value
	}

	return params, nil
}

// lookupParam returns the first non-empty value under the name or an alias.
func lookupParam(record map[string]interface{}, spec ParamSpec) (interface{}, bool) {
	names := append([]string{spec.Name}, spec.Aliases...)
	for _, name := range names {
		v, ok := record[name]
		if !ok || v == nil {
			continue
		}
		if s, isString := v.(string); isString && strings.TrimSpace(s) == "" {
			continue
		}
		return v, true
	}
	return nil, false
}

func coerce(spec ParamSpec, raw interface{}) (interface{}, error) {
	switch spec.Type {
	case ParamString:
		return coerceString(raw)
	case ParamNumber:
		return coerceNumber(raw)
	case ParamBoolean:
		return coerceBool(raw)
	case ParamJSON:
		return coerceObject(raw)
	case ParamIdentifierType:
		s, err := coerceString(raw)
		if err != nil {
			return nil, err
		}
		if _, ok := identifierTypes[s]; !ok {
			return nil, fmt.Errorf("identifier type must be one of %s", strings.Join(IdentifierTypes(), ", "))
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unsupported parameter type %q", spec.Type)
	}
}

func coerceString(raw interface{}) (string, error) {
	switch v := raw.(type) {
	case string:
		return v, nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	case int:
		return strconv.Itoa(v), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case json.Number:
		return v.String(), nil
	case bool:
		return strconv.FormatBool(v), nil
	default:
		return "", fmt.Errorf("expected string, got %T", raw)
	}
}

func coerceNumber(raw interface{}) (float64, error) {
	switch v := raw.(type) {
	case float64:
		return v, nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case json.Number:
		return v.Float64()
	case string:
		n, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, fmt.Errorf("expected number, got %q", v)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("expected number, got %T", raw)
	}
}

func coerceBool(raw interface{}) (bool, error) {
	switch v := raw.(type) {
	case bool:
		return v, nil
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "true":
			return true, nil
		case "false":
			return false, nil
		}
		return false, fmt.Errorf("expected boolean, got %q", v)
	default:
		return false, fmt.Errorf("expected boolean, got %T", raw)
	}
}

// coerceObject accepts a decoded object or a JSON string holding one.
func coerceObject(raw interface{}) (map[string]interface{}, error) {
	value := raw
	if s, ok := raw.(string); ok {
		var parsed interface{}
		if err := json.Unmarshal([]byte(s), &parsed); err != nil {
			return nil, fmt.Errorf("invalid JSON: %v", err)
		}
		value = parsed
	}

	if result := objectSchema.Validate(value); !result.Valid {
		return nil, fmt.Errorf("expected JSON object: %s", strings.Join(result.GetErrorMessages(), "; "))
	}

	obj, ok := value.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("expected JSON object, got %T", value)
	}
	return obj, nil
}

func formatNumber(n float64) string {
	return strconv.FormatFloat(n, 'f', -1, 64)
}
