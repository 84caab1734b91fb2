package domain

import (
	"time"

	"github.com/google/uuid"
)

// Step is a single node in a workflow DAG: a call to one tool, with an
// input mapping describing where each tool parameter's value comes from.
type Step struct {
	// Key is the opaque, workflow-unique string used in reference
	// expressions ("step_1.output"), in topological tie-breaking, and as
	// the persisted "id" field of the step's JSON shape.
	Key string `json:"id"`

	// UUID is a storage primary key, distinct from Key; it has no role in
	// reference expressions and is never required on a hand-authored
	// workflow file.
	UUID uuid.UUID `json:"uuid,omitempty"`

	Name   string `json:"name"`
	ToolID string `json:"tool_id"`

	// InputMapping maps a tool input parameter name to a reference
	// expression: "$input.<path>", "<step_key>.<path>", or a bare literal.
	InputMapping map[string]string `json:"input_mapping"`

	CreatedAt time.Time `json:"created_at"`
}

// NewStep creates a new step identified by key, calling the given tool.
func NewStep(key, name, toolID string, inputMapping map[string]string) *Step {
	if inputMapping == nil {
		inputMapping = map[string]string{}
	}
	return &Step{
		Key:          key,
		UUID:         uuid.New(),
		Name:         name,
		ToolID:       toolID,
		InputMapping: inputMapping,
		CreatedAt:    time.Now().UTC(),
	}
}
