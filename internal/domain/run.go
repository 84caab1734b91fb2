package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// RunStatus is the lifecycle state of a workflow run.
type RunStatus string

const (
	RunStatusPending RunStatus = "PENDING"
	RunStatusRunning RunStatus = "RUNNING"
	RunStatusSuccess RunStatus = "SUCCESS"
	RunStatusFailed  RunStatus = "FAILED"
)

// Run is one execution of a workflow against a set of user inputs, carrying
// the StepResult of every step attempted during that execution.
type Run struct {
	ID         uuid.UUID       `json:"id"`
	WorkflowID uuid.UUID       `json:"workflow_id"`
	Status     RunStatus       `json:"status"`
	UserInputs json.RawMessage `json:"user_inputs,omitempty"`
	Error      *string         `json:"error,omitempty"`

	StartedAt  *time.Time `json:"started_at,omitempty"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`

	StepResults []StepResult `json:"step_results"`
}

// NewRun creates a pending run for the given workflow and user inputs.
func NewRun(workflowID uuid.UUID, userInputs json.RawMessage) *Run {
	return &Run{
		ID:         uuid.New(),
		WorkflowID: workflowID,
		Status:     RunStatusPending,
		UserInputs: userInputs,
		CreatedAt:  time.Now().UTC(),
	}
}

// Start marks the run as running.
func (r *Run) Start() {
	now := time.Now().UTC()
	r.Status = RunStatusRunning
	r.StartedAt = &now
}

// Complete marks the run as having finished every step successfully.
func (r *Run) Complete() {
	now := time.Now().UTC()
	r.Status = RunStatusSuccess
	r.FinishedAt = &now
}

// Fail marks the run as failed, recording the terminal error message.
func (r *Run) Fail(err string) {
	now := time.Now().UTC()
	r.Status = RunStatusFailed
	r.Error = &err
	r.FinishedAt = &now
}

// DurationMs returns the wall-clock duration of the run, or nil if it has
// not yet finished.
func (r *Run) DurationMs() *int64 {
	if r.StartedAt == nil || r.FinishedAt == nil {
		return nil
	}
	ms := r.FinishedAt.Sub(*r.StartedAt).Milliseconds()
	return &ms
}
