package remnawave

import (
	"remnawave-workers/internal/common/errors"
)

// Endpoint is the per-batch request context: base URL and the fixed header
// set. It is built once from Credentials and only read afterwards.
type Endpoint struct {
	baseURL string
	headers map[string]string
}

func NewEndpoint(creds Credentials) Endpoint {
	return Endpoint{
		baseURL: creds.BaseURL,
		headers: map[string]string{
			"Authorization": "Bearer " + creds.APIKey,
			"Content-Type":  "application/json",
		},
	}
}

// BaseURL returns the trimmed panel address.
func (e Endpoint) BaseURL() string {
	return e.baseURL
}

// Headers returns a copy of the fixed header set.
func (e Endpoint) Headers() map[string]string {
	out := make(map[string]string, len(e.headers))
	for k, v := range e.headers {
		out[k] = v
	}
	return out
}

// RequestPlan is one concrete HTTP call.
type RequestPlan struct {
	Method  string
	URL     string
	Headers map[string]string
	// Body is nil for routes without a payload.
	Body map[string]interface{}
}

// Plan builds the request for key from resolved params. It performs no I/O.
func Plan(key RouteKey, params Params, endpoint Endpoint) (*RequestPlan, error) {
	route, ok := Lookup(key)
	if !ok {
		return nil, errors.NewConfigurationError(key.String())
	}
	return planRoute(route, params, endpoint), nil
}

func planRoute(route *Route, params Params, endpoint Endpoint) *RequestPlan {
	plan := &RequestPlan{
		Method:  route.Method,
		URL:     endpoint.baseURL + route.Path(params),
		Headers: endpoint.Headers(),
	}
	if route.Body != nil {
		plan.Body = route.Body(params)
	}
	return plan
}
