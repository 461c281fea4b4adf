package remnawave

import (
	"context"
	"sync"

	commonhttp "remnawave-workers/internal/common/http"
)

// fakeTransport records every request and answers through respond.
type fakeTransport struct {
	mu      sync.Mutex
	calls   []commonhttp.Request
	respond func(req commonhttp.Request) (interface{}, error)
}

func (f *fakeTransport) Do(_ context.Context, req commonhttp.Request) (interface{}, error) {
	f.mu.Lock()
	f.calls = append(f.calls, req)
	f.mu.Unlock()
	if f.respond == nil {
		return map[string]interface{}{"response": map[string]interface{}{}}, nil
	}
	return f.respond(req)
}

func (f *fakeTransport) Calls() []commonhttp.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]commonhttp.Request, len(f.calls))
	copy(out, f.calls)
	return out
}

func testEndpoint() Endpoint {
	return NewEndpoint(NewCredentials("https://panel.example.com/api//", "secret-key"))
}

func mustRoute(resource, operation string) *Route {
	route, ok := Lookup(RouteKey{resource, operation})
	if !ok {
		panic("missing route " + resource + "." + operation)
	}
	return route
}
