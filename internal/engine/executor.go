// Package engine executes a validated workflow's steps in deterministic
// topological order, one at a time, resolving each step's input, dispatching
// its tool call, and recording the resulting StepResult.
package engine

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/flowcraft/dagengine/internal/dispatch"
	"github.com/flowcraft/dagengine/internal/domain"
	"github.com/flowcraft/dagengine/internal/graph"
	"github.com/flowcraft/dagengine/internal/state"
)

var tracer = otel.Tracer("dagengine/engine")

// ToolResolver looks up a tool definition by ID. Runtime credentials are
// resolved separately through a CredentialLookup.
type ToolResolver interface {
	Get(id string) (domain.ToolDefinition, bool)
}

// CredentialLookup resolves the runtime secret for a tool, if any.
type CredentialLookup func(toolID string) dispatch.Credentials

// Option configures an Executor.
type Option func(*Executor)

// WithLogger overrides the executor's slog.Logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Executor) { e.logger = logger }
}

// WithCredentialLookup supplies a function to resolve per-tool auth secrets.
func WithCredentialLookup(fn CredentialLookup) Option {
	return func(e *Executor) { e.credentials = fn }
}

// WithOnStepComplete registers a callback invoked after each step finishes,
// whether it succeeded, failed, or was skipped.
func WithOnStepComplete(fn func(domain.StepResult)) Option {
	return func(e *Executor) { e.onStepComplete = fn }
}

// Executor runs one workflow's steps in sequence.
type Executor struct {
	tools          ToolResolver
	dispatcher     *dispatch.Dispatcher
	logger         *slog.Logger
	credentials    CredentialLookup
	onStepComplete func(domain.StepResult)
}

// New creates an Executor backed by the given tool registry.
func New(tools ToolResolver, opts ...Option) *Executor {
	e := &Executor{
		tools:      tools,
		dispatcher: dispatch.New(),
		logger:     slog.Default(),
		credentials: func(string) dispatch.Credentials {
			return dispatch.Credentials{}
		},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute validates the workflow, then runs every step in deterministic
// topological order, resolving step inputs against userInputs (run.UserInputs
// is only checked against wf.InputSchema), recording each StepResult onto
// run. Execution stops dispatching new steps as soon as one step fails or
// the context is cancelled; steps not yet started are marked SKIPPED.
func (e *Executor) Execute(ctx context.Context, wf *domain.Workflow, run *domain.Run, userInputs map[string]interface{}) error {
	ctx, span := tracer.Start(ctx, "workflow.execute", trace.WithAttributes(
		attribute.String("workflow.id", wf.ID.String()),
		attribute.String("run.id", run.ID.String()),
	))
	defer span.End()

	edges, err := graph.Validate(wf, e.tools)
	if err != nil {
		run.Fail(err.Error())
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	if err := domain.ValidateInputSchema(run.UserInputs, wf.InputSchema); err != nil {
		run.Fail(err.Error())
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	order := graph.TopologicalOrder(wf.Steps, edges)
	stepByKey := make(map[string]domain.Step, len(wf.Steps))
	for _, s := range wf.Steps {
		stepByKey[s.Key] = s
	}

	run.Start()
	store := state.NewStore(userInputs)

	failed := false
	for i, stepKey := range order {
		step := stepByKey[stepKey]

		if failed || ctx.Err() != nil {
			result := domain.NewStepResult(step.Key)
			result.Skip()
			run.StepResults = append(run.StepResults, *result)
			e.notify(*result)
			continue
		}

		result := e.executeStep(ctx, step, store)
		run.StepResults = append(run.StepResults, *result)
		e.notify(*result)

		if result.Status == domain.StepStatusFailed {
			failed = true
		} else {
			store.RecordOutput(step.Key, result.Output)
		}

		e.logger.Info("step finished",
			"run_id", run.ID.String(),
			"step_id", step.Key,
			"status", string(result.Status),
			"position", i+1,
			"total", len(order),
		)
	}

	if !failed && len(run.StepResults) > 0 && run.StepResults[len(run.StepResults)-1].Status == domain.StepStatusSkipped {
		failed = true // cancelled between steps: later steps were skipped
	}
	if failed {
		msg := "one or more steps failed"
		if ctx.Err() != nil {
			msg = (&domain.CancellationError{}).Error()
		}
		for _, r := range run.StepResults {
			if r.Status == domain.StepStatusFailed {
				msg = r.Error
				break
			}
		}
		run.Fail(msg)
		span.SetStatus(codes.Error, msg)
		return &stepFailureError{message: msg}
	}

	run.Complete()
	return nil
}

// executeStep resolves one step's input, dispatches its tool call, and
// returns the completed StepResult. It never returns a nil *StepResult.
func (e *Executor) executeStep(ctx context.Context, step domain.Step, store *state.Store) *domain.StepResult {
	ctx, span := tracer.Start(ctx, "workflow.step", trace.WithAttributes(
		attribute.String("step.id", step.Key),
		attribute.String("step.tool_id", step.ToolID),
	))
	defer span.End()

	result := domain.NewStepResult(step.Key)
	result.Start()

	if ctx.Err() != nil {
		result.Fail(&domain.CancellationError{}, domain.ErrorKindCancellation)
		span.RecordError(ctx.Err())
		return result
	}

	tool, ok := e.tools.Get(step.ToolID)
	if !ok {
		err := &domain.ValidationError{Reason: "unknown_tool", Detail: step.ToolID, Path: []string{step.Key}}
		result.Fail(err, domain.ErrorKindValidation)
		span.RecordError(err)
		return result
	}

	input, err := store.ResolveMapping(step.InputMapping)
	if err != nil {
		result.Fail(err, domain.ErrorKindState)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return result
	}

	creds := e.credentials(tool.ID)
	dispatchResult, err := e.dispatcher.Dispatch(ctx, tool, input, creds)
	if ctx.Err() != nil {
		result.Fail(&domain.CancellationError{}, domain.ErrorKindCancellation)
		span.RecordError(ctx.Err())
		return result
	}
	if err != nil {
		kind := errorKindOf(err)
		result.Fail(err, kind)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return result
	}

	result.Complete(dispatchResult.Output)
	span.SetAttributes(attribute.Int("http.status_code", dispatchResult.StatusCode))
	return result
}

func (e *Executor) notify(result domain.StepResult) {
	if e.onStepComplete != nil {
		e.onStepComplete(result)
	}
}

func errorKindOf(err error) domain.ErrorKind {
	switch err.(type) {
	case *domain.StateResolutionError:
		return domain.ErrorKindState
	case *domain.TemplateError:
		return domain.ErrorKindTemplate
	case *domain.ExtractionError:
		return domain.ErrorKindExtraction
	case *domain.DispatchError:
		return domain.ErrorKindDispatch
	default:
		return domain.ErrorKindDispatch
	}
}

type stepFailureError struct{ message string }

func (e *stepFailureError) Error() string { return e.message }
