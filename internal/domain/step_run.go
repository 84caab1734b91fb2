package domain

import (
	"time"

	"github.com/google/uuid"
)

// StepStatus is the lifecycle state of a single step's execution within a
// run.
type StepStatus string

const (
	StepStatusPending StepStatus = "PENDING"
	StepStatusRunning StepStatus = "RUNNING"
	StepStatusSuccess StepStatus = "SUCCESS"
	StepStatusFailed  StepStatus = "FAILED"
	StepStatusSkipped StepStatus = "SKIPPED"
)

// StepResult records the outcome of executing one step within one run.
type StepResult struct {
	ID     uuid.UUID  `json:"id"`
	StepID string     `json:"step_id"` // Step.Key
	Status StepStatus `json:"status"`

	Output interface{} `json:"output,omitempty"`
	Error  string      `json:"error,omitempty"`
	// ErrorKind is set alongside Error for a failed step, giving the
	// machine-readable taxonomy of what went wrong.
	ErrorKind ErrorKind `json:"error_kind,omitempty"`

	StartedAt  *time.Time `json:"started_at,omitempty"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

// NewStepResult creates a pending result for the given step.
func NewStepResult(stepID string) *StepResult {
	return &StepResult{
		ID:     uuid.New(),
		StepID: stepID,
		Status: StepStatusPending,
	}
}

// Start marks the step as running.
func (sr *StepResult) Start() {
	now := time.Now().UTC()
	sr.Status = StepStatusRunning
	sr.StartedAt = &now
}

// Complete marks the step as successful, recording its output.
func (sr *StepResult) Complete(output interface{}) {
	now := time.Now().UTC()
	sr.Status = StepStatusSuccess
	sr.Output = output
	sr.FinishedAt = &now
}

// Fail marks the step as failed, recording the error and its kind.
func (sr *StepResult) Fail(err error, kind ErrorKind) {
	now := time.Now().UTC()
	sr.Status = StepStatusFailed
	sr.Error = err.Error()
	sr.ErrorKind = kind
	sr.FinishedAt = &now
}

// Skip marks the step as skipped because an upstream dependency failed or
// the run was cancelled before the step could start.
func (sr *StepResult) Skip() {
	sr.Status = StepStatusSkipped
}
