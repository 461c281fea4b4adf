package remnawave

import (
	"net/url"
	"testing"

	"remnawave-workers/internal/common/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func planFor(t *testing.T, resource, operation string, record map[string]interface{}) *RequestPlan {
	t.Helper()
	key := RouteKey{resource, operation}
	route := mustRoute(resource, operation)
	params, err := Resolve(route, record)
	require.NoError(t, err)
	plan, err := Plan(key, params, testEndpoint())
	require.NoError(t, err)
	return plan
}

func TestPlan_UserLookupPaths(t *testing.T) {
	tests := []struct {
		identifierType string
		value          string
		wantURL        string
	}{
		{"uuid", "0b7c6f2e", "https://panel.example.com/api/users/0b7c6f2e"},
		{"short-uuid", "abc123", "https://panel.example.com/api/users/by-short-uuid/abc123"},
		{"id", "42", "https://panel.example.com/api/users/by-id/42"},
		{"username", "alice", "https://panel.example.com/api/users/by-username/alice"},
		{"telegram-id", "987654", "https://panel.example.com/api/users/by-telegram-id/987654"},
		{"email", "a@b.io", "https://panel.example.com/api/users/by-email/a@b.io"},
	}

	for _, tt := range tests {
		t.Run(tt.identifierType, func(t *testing.T) {
			plan := planFor(t, "users", "get", map[string]interface{}{
				"identifierType":  tt.identifierType,
				"identifierValue": tt.value,
			})
			assert.Equal(t, "GET", plan.Method)
			assert.Equal(t, tt.wantURL, plan.URL)
			assert.Nil(t, plan.Body)
			if tt.identifierType == "uuid" {
				assert.NotContains(t, plan.URL, "by-")
			}
		})
	}
}

func TestPlan_EscapesPathValues(t *testing.T) {
	plan := planFor(t, "users", "get", map[string]interface{}{
		"identifierType":  "username",
		"identifierValue": "a/b c",
	})
	assert.Equal(t, "https://panel.example.com/api/users/by-username/a%2Fb%20c", plan.URL)
}

func TestPlan_Pagination(t *testing.T) {
	tests := []struct {
		name      string
		record    map[string]interface{}
		wantStart string
		wantSize  string
		hasSize   bool
	}{
		{
			name:      "defaults",
			record:    map[string]interface{}{},
			wantStart: "0",
			wantSize:  "25",
			hasSize:   true,
		},
		{
			name:      "explicit page",
			record:    map[string]interface{}{"start": 100, "size": 50, "returnAll": false},
			wantStart: "100",
			wantSize:  "50",
			hasSize:   true,
		},
		{
			name:      "return all omits size",
			record:    map[string]interface{}{"start": 10, "size": 50, "returnAll": true},
			wantStart: "10",
			hasSize:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan := planFor(t, "users", "getAll", tt.record)
			u, err := url.Parse(plan.URL)
			require.NoError(t, err)

			assert.Equal(t, "/api/users", u.Path)
			query := u.Query()
			assert.Equal(t, tt.wantStart, query.Get("start"))
			_, sizeSent := query["size"]
			assert.Equal(t, tt.hasSize, sizeSent)
			_, limitSent := query["limit"]
			assert.False(t, limitSent)
			if tt.hasSize {
				assert.Equal(t, tt.wantSize, query.Get("size"))
			}
		})
	}
}

func TestPlan_BodiesFromStringAndObjectAreIdentical(t *testing.T) {
	fromString := planFor(t, "users", "update", map[string]interface{}{
		"uuid":   "u-1",
		"fields": `{"status":"DISABLED","trafficLimitBytes":0}`,
	})
	fromObject := planFor(t, "users", "update", map[string]interface{}{
		"uuid": "u-1",
		"fields": map[string]interface{}{
			"status":            "DISABLED",
			"trafficLimitBytes": float64(0),
		},
	})

	assert.Equal(t, "PATCH", fromString.Method)
	assert.Equal(t, "https://panel.example.com/api/users/u-1", fromString.URL)
	assert.Equal(t, fromString.Body, fromObject.Body)
}

func TestPlan_BodyIsShallowCopy(t *testing.T) {
	fields := map[string]interface{}{"username": "alice"}
	route := mustRoute("users", "create")
	params, err := Resolve(route, map[string]interface{}{"fields": fields})
	require.NoError(t, err)

	plan, err := Plan(route.Key, params, testEndpoint())
	require.NoError(t, err)

	plan.Body["injected"] = true
	assert.NotContains(t, fields, "injected")
	assert.NotContains(t, params.Object("fields"), "injected")
}

func TestPlan_UserActionsSendEmptyObject(t *testing.T) {
	tests := map[string]string{
		"revoke":       "https://panel.example.com/api/users/u-9/actions/revoke",
		"disable":      "https://panel.example.com/api/users/u-9/actions/disable",
		"enable":       "https://panel.example.com/api/users/u-9/actions/enable",
		"resetTraffic": "https://panel.example.com/api/users/u-9/actions/reset-traffic",
	}

	for operation, wantURL := range tests {
		t.Run(operation, func(t *testing.T) {
			plan := planFor(t, "users", operation, map[string]interface{}{"uuid": "u-9"})
			assert.Equal(t, "POST", plan.Method)
			assert.Equal(t, wantURL, plan.URL)
			require.NotNil(t, plan.Body)
			assert.Empty(t, plan.Body)
		})
	}
}

func TestPlan_DeviceRoutes(t *testing.T) {
	plan := planFor(t, "hwid", "delete", map[string]interface{}{"userUuid": "u-1", "hwid": "dev-7"})
	assert.Equal(t, "POST", plan.Method)
	assert.Equal(t, "https://panel.example.com/api/hwid/devices/delete", plan.URL)
	assert.Equal(t, map[string]interface{}{"userUuid": "u-1", "hwid": "dev-7"}, plan.Body)

	plan = planFor(t, "hwid", "getForUser", map[string]interface{}{"userUuid": "u-1"})
	assert.Equal(t, "GET", plan.Method)
	assert.Equal(t, "https://panel.example.com/api/hwid/devices/u-1", plan.URL)

	plan = planFor(t, "hwid", "deleteAllForUser", map[string]interface{}{"userUuid": "u-1"})
	assert.Equal(t, "DELETE", plan.Method)
	assert.Equal(t, "https://panel.example.com/api/hwid/devices/u-1/all", plan.URL)
	assert.Nil(t, plan.Body)

	plan = planFor(t, "hwid", "getAll", map[string]interface{}{})
	assert.Equal(t, "https://panel.example.com/api/hwid/devices", plan.URL)
}

func TestPlan_FixedHeaders(t *testing.T) {
	plan := planFor(t, "users", "delete", map[string]interface{}{"uuid": "u-1"})
	assert.Equal(t, map[string]string{
		"Authorization": "Bearer secret-key",
		"Content-Type":  "application/json",
	}, plan.Headers)

	plan.Headers["Authorization"] = "tampered"
	assert.Equal(t, "Bearer secret-key", testEndpoint().Headers()["Authorization"])
}

func TestPlan_UnknownRoute(t *testing.T) {
	_, err := Plan(RouteKey{"nodes", "restart"}, Params{}, testEndpoint())
	require.Error(t, err)
	assert.True(t, errors.IsConfiguration(err))
	assert.Contains(t, errors.MessageOf(err), "nodes.restart")
}
