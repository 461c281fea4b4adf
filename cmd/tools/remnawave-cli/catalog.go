package main

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"remnawave-workers/internal/common/errors"
	"remnawave-workers/internal/remnawave"
	apidispatch "remnawave-workers/internal/workers/remnawave/api-dispatch"
	"remnawave-workers/pkg/registry"
)

const activityID = "remnawave-api-dispatch"

var outputSchema = map[string]interface{}{
	"type": "object",
	"properties": map[string]interface{}{
		"batchId":   map[string]interface{}{"type": "string"},
		"results":   map[string]interface{}{"type": "array", "items": map[string]interface{}{"type": "object"}},
		"succeeded": map[string]interface{}{"type": "integer"},
		"failed":    map[string]interface{}{"type": "integer"},
	},
}

// buildCatalog renders the route table as an activity registry.
func buildCatalog(version string, now time.Time) (*registry.ActivityRegistry, error) {
	var inputSchema map[string]interface{}
	if err := json.Unmarshal([]byte(apidispatch.GetInputSchemaJSON()), &inputSchema); err != nil {
		return nil, fmt.Errorf("failed to decode input schema: %w", err)
	}

	actionsByKey := make(map[remnawave.RouteKey][]string)
	for action, key := range remnawave.Actions() {
		actionsByKey[key] = append(actionsByKey[key], action)
	}

	routes := remnawave.Routes()
	operations := make([]registry.Operation, 0, len(routes))
	for _, route := range routes {
		actions := actionsByKey[route.Key]
		sort.Strings(actions)

		params := make([]registry.Parameter, 0, len(route.Params))
		for _, p := range route.Params {
			params = append(params, registry.Parameter{
				Name:     p.Name,
				Aliases:  p.Aliases,
				Type:     string(p.Type),
				Required: p.Required,
				Default:  p.Default,
			})
		}

		operations = append(operations, registry.Operation{
			Resource:  route.Key.Resource,
			Operation: route.Key.Operation,
			Actions:   actions,
			Method:    route.Method,
			Params:    params,
			Paginated: route.Pagination,
		})
	}

	defaults := apidispatch.DefaultConfig()
	return &registry.ActivityRegistry{
		Version:     version,
		LastUpdated: now.UTC().Format(time.RFC3339),
		Activities: []registry.Activity{
			{
				ID:                   activityID,
				DisplayName:          "Remnawave API Dispatch",
				Description:          "Runs user and HWID device calls against the Remnawave panel API",
				Category:             "remnawave",
				Version:              version,
				TaskType:             apidispatch.TaskType,
				ImplementationStatus: "completed",
				InputSchema:          inputSchema,
				OutputSchema:         outputSchema,
				ErrorCodes: []string{
					string(errors.ErrCodeValidation),
					string(errors.ErrCodeConfiguration),
					string(errors.ErrCodeNotFound),
					string(errors.ErrCodeAPI),
					string(errors.ErrCodeInputParsingFailed),
					string(errors.ErrCodeCredentialsUnavailable),
					string(errors.ErrCodeBatchAborted),
				},
				Timeout:    defaults.Timeout.String(),
				Retries:    errors.GetRetryCount(errors.ErrCodeCredentialsUnavailable),
				Operations: operations,
				Tags:       []string{"remnawave", "users", "hwid"},
			},
		},
	}, nil
}

// checkCatalog compares a stored registry with the live route table.
func checkCatalog(stored *registry.ActivityRegistry) error {
	if err := stored.Validate(); err != nil {
		return err
	}

	activity, ok := stored.Find(activityID)
	if !ok {
		return fmt.Errorf("activity %s not found", activityID)
	}

	listed := make(map[string]registry.Operation, len(activity.Operations))
	for _, op := range activity.Operations {
		listed[op.Resource+"."+op.Operation] = op
	}

	for _, route := range remnawave.Routes() {
		op, ok := listed[route.Name()]
		if !ok {
			return fmt.Errorf("route %s missing from registry", route.Name())
		}
		if op.Method != route.Method {
			return fmt.Errorf("route %s: registry method %s, table method %s", route.Name(), op.Method, route.Method)
		}
		delete(listed, route.Name())
	}

	for name := range listed {
		return fmt.Errorf("registry lists unknown route %s", name)
	}
	return nil
}
