package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Workflow is a named DAG of steps connected by edges.
type Workflow struct {
	ID          uuid.UUID       `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	InputSchema json.RawMessage `json:"input_schema,omitempty"`
	Steps       []Step          `json:"steps"`
	Edges       []Edge          `json:"edges"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// NewWorkflow creates an empty workflow ready to accept steps and edges.
func NewWorkflow(name, description string) *Workflow {
	now := time.Now().UTC()
	return &Workflow{
		ID:          uuid.New(),
		Name:        name,
		Description: description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// StepByKey returns the step with the given Step.Key, or false if absent.
func (w *Workflow) StepByKey(key string) (Step, bool) {
	for _, s := range w.Steps {
		if s.Key == key {
			return s, true
		}
	}
	return Step{}, false
}

// AddStep appends a step and bumps UpdatedAt.
func (w *Workflow) AddStep(s Step) {
	w.Steps = append(w.Steps, s)
	w.UpdatedAt = time.Now().UTC()
}

// AddEdge appends an edge and bumps UpdatedAt.
func (w *Workflow) AddEdge(e Edge) {
	w.Edges = append(w.Edges, e)
	w.UpdatedAt = time.Now().UTC()
}
