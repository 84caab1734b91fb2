package domain_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/flowcraft/dagengine/internal/domain"
)

func TestStepResult_Lifecycle(t *testing.T) {
	sr := domain.NewStepResult("step_1")
	assert.Equal(t, domain.StepStatusPending, sr.Status)

	sr.Start()
	assert.Equal(t, domain.StepStatusRunning, sr.Status)
	assert.NotNil(t, sr.StartedAt)

	sr.Complete(map[string]interface{}{"ok": true})
	assert.Equal(t, domain.StepStatusSuccess, sr.Status)
	assert.NotNil(t, sr.FinishedAt)
}

func TestStepResult_Fail(t *testing.T) {
	sr := domain.NewStepResult("step_1")
	sr.Start()
	sr.Fail(errors.New("boom"), domain.ErrorKindDispatch)
	assert.Equal(t, domain.StepStatusFailed, sr.Status)
	assert.Equal(t, "boom", sr.Error)
	assert.Equal(t, domain.ErrorKindDispatch, sr.ErrorKind)
}

func TestStepResult_Skip(t *testing.T) {
	sr := domain.NewStepResult("step_1")
	sr.Skip()
	assert.Equal(t, domain.StepStatusSkipped, sr.Status)
}
