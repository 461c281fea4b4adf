// pkg/registry/schema.go
package registry

type ActivityRegistry struct {
	Version     string     `json:"version"`
	LastUpdated string     `json:"lastUpdated"`
	Activities  []Activity `json:"activities"`
}

type Activity struct {
	ID                   string                 `json:"id"`
	DisplayName          string                 `json:"displayName"`
	Description          string                 `json:"description"`
	Category             string                 `json:"category"`
	Version              string                 `json:"version"`
	TaskType             string                 `json:"taskType"`
	ImplementationStatus string                 `json:"implementationStatus"`
	InputSchema          map[string]interface{} `json:"inputSchema"`
	OutputSchema         map[string]interface{} `json:"outputSchema"`
	ErrorCodes           []string               `json:"errorCodes"`
	Timeout              string                 `json:"timeout"`
	Retries              int                    `json:"retries"`
	Operations           []Operation            `json:"operations,omitempty"`
	Tags                 []string               `json:"tags"`
}

// Operation is one remote call an activity can make.
type Operation struct {
	Resource  string      `json:"resource"`
	Operation string      `json:"operation"`
	Actions   []string    `json:"actions,omitempty"`
	Method    string      `json:"method"`
	Params    []Parameter `json:"params"`
	Paginated bool        `json:"paginated,omitempty"`
}

type Parameter struct {
	Name     string      `json:"name"`
	Aliases  []string    `json:"aliases,omitempty"`
	Type     string      `json:"type"`
	Required bool        `json:"required"`
	Default  interface{} `json:"default,omitempty"`
}
