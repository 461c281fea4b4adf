// pkg/registry/registry.go
package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

func LoadRegistry(path string) (*ActivityRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var reg ActivityRegistry
	err = json.Unmarshal(data, &reg)
	return &reg, err
}

// SaveRegistry writes reg as indented JSON, creating the directory if needed.
func SaveRegistry(reg *ActivityRegistry, path string) error {
	data, err := json.MarshalIndent(reg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal registry: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write registry file: %w", err)
	}
	return nil
}

// Find returns the activity with the given id.
func (r *ActivityRegistry) Find(id string) (*Activity, bool) {
	for i := range r.Activities {
		if r.Activities[i].ID == id {
			return &r.Activities[i], true
		}
	}
	return nil, false
}

// Validate checks required fields and uniqueness of activity ids and of the
// operations and action names inside each activity.
func (r *ActivityRegistry) Validate() error {
	if len(r.Activities) == 0 {
		return fmt.Errorf("registry contains no activities")
	}

	ids := make(map[string]bool)
	for _, activity := range r.Activities {
		if activity.ID == "" {
			return fmt.Errorf("activity missing required field: ID")
		}
		if ids[activity.ID] {
			return fmt.Errorf("duplicate activity ID: %s", activity.ID)
		}
		ids[activity.ID] = true

		if activity.DisplayName == "" {
			return fmt.Errorf("activity %s missing required field: DisplayName", activity.ID)
		}
		if activity.TaskType == "" {
			return fmt.Errorf("activity %s missing required field: TaskType", activity.ID)
		}
		if activity.Category == "" {
			return fmt.Errorf("activity %s missing required field: Category", activity.ID)
		}
		if err := validateOperations(activity); err != nil {
			return err
		}
	}
	return nil
}

func validateOperations(activity Activity) error {
	ops := make(map[string]bool)
	actions := make(map[string]bool)
	for _, op := range activity.Operations {
		name := op.Resource + "." + op.Operation
		if op.Resource == "" || op.Operation == "" {
			return fmt.Errorf("activity %s has an operation without resource or operation", activity.ID)
		}
		if ops[name] {
			return fmt.Errorf("activity %s: duplicate operation %s", activity.ID, name)
		}
		ops[name] = true

		if op.Method == "" {
			return fmt.Errorf("activity %s: operation %s missing method", activity.ID, name)
		}
		for _, action := range op.Actions {
			if actions[action] {
				return fmt.Errorf("activity %s: action %s mapped twice", activity.ID, action)
			}
			actions[action] = true
		}
	}
	return nil
}
