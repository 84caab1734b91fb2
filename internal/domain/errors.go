package domain

import "fmt"

// ErrorKind classifies a failed StepResult for machine consumption.
type ErrorKind string

const (
	ErrorKindValidation   ErrorKind = "validation"
	ErrorKindState        ErrorKind = "state_resolution"
	ErrorKindTemplate     ErrorKind = "template"
	ErrorKindDispatch     ErrorKind = "dispatch"
	ErrorKindExtraction   ErrorKind = "extraction"
	ErrorKindCancellation ErrorKind = "cancellation"
)

// ValidationError describes a structural or reference problem found while
// validating a workflow graph, before any step executes.
type ValidationError struct {
	Reason string // e.g. "duplicate_step_id", "cycle", "unreachable_reference", "unknown_tool"
	Detail string
	Path   []string // cycle path or reference chain, when applicable
}

func (e *ValidationError) Error() string {
	if len(e.Path) > 0 {
		return fmt.Sprintf("workflow validation failed (%s): %s %v", e.Reason, e.Detail, e.Path)
	}
	return fmt.Sprintf("workflow validation failed (%s): %s", e.Reason, e.Detail)
}

func (e *ValidationError) ErrorKind() ErrorKind { return ErrorKindValidation }

// StateResolutionError is raised when a reference expression in a step's
// input mapping cannot be resolved against user input or prior step output.
type StateResolutionError struct {
	InputName  string
	Expression string
	Reason     string
}

func (e *StateResolutionError) Error() string {
	return fmt.Sprintf("cannot resolve %q (%s): %s", e.InputName, e.Expression, e.Reason)
}

func (e *StateResolutionError) ErrorKind() ErrorKind { return ErrorKindState }

// TemplateError wraps a strict template rendering failure: a {{key}}
// placeholder with no matching value.
type TemplateError struct {
	Name string
	Path string // dotted location of the offending placeholder within the root value
}

func (e *TemplateError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("template key not found: %q", e.Name)
	}
	return fmt.Sprintf("template key not found: %q at %s", e.Name, e.Path)
}

func (e *TemplateError) ErrorKind() ErrorKind { return ErrorKindTemplate }

// PathError is raised by the path traverser when a dotted path cannot be
// navigated against a value.
type PathError struct {
	Path    string
	Segment string
	Reason  string
}

func (e *PathError) Error() string {
	return fmt.Sprintf("path error at %q (segment %q): %s", e.Path, e.Segment, e.Reason)
}

// DispatchError is raised by the HTTP dispatcher for a network failure,
// non-2xx response, or response parse failure.
type DispatchError struct {
	ToolID string
	URL    string
	Status int // 0 if the network call never completed
	Reason string
}

func (e *DispatchError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("dispatch to %s (%s) failed with status %d: %s", e.ToolID, e.URL, e.Status, e.Reason)
	}
	return fmt.Sprintf("dispatch to %s (%s) failed: %s", e.ToolID, e.URL, e.Reason)
}

func (e *DispatchError) ErrorKind() ErrorKind { return ErrorKindDispatch }

// ExtractionError is raised when strict response extraction misses a
// dotted path in a parsed response body.
type ExtractionError struct {
	Field string
	Path  string
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("response extraction failed for %q at path %q", e.Field, e.Path)
}

func (e *ExtractionError) ErrorKind() ErrorKind { return ErrorKindExtraction }

// CancellationError marks a step as failed because the run was cancelled
// while the step was executing or about to execute.
type CancellationError struct{}

func (e *CancellationError) Error() string { return "run cancelled" }

func (e *CancellationError) ErrorKind() ErrorKind { return ErrorKindCancellation }

// ValidationFieldError wraps a single field-level validation failure,
// distinct from graph ValidationError. The input schema check in
// validation.go reports through InputValidationError, not this type.
type ValidationFieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e ValidationFieldError) Error() string {
	return e.Message
}

// NewValidationFieldError creates a new field-level validation error.
func NewValidationFieldError(field, message string) ValidationFieldError {
	return ValidationFieldError{Field: field, Message: message}
}
