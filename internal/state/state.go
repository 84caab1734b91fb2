// Package state resolves a step's declared input mapping against the two
// sources of truth available at execution time: the run's user inputs and
// the outputs already recorded for earlier steps.
package state

import (
	"strings"

	"github.com/flowcraft/dagengine/internal/domain"
	"github.com/flowcraft/dagengine/internal/pathutil"
)

// Store is the read side of a run's accumulated state: the original user
// inputs, plus one output value per step that has completed so far.
type Store struct {
	UserInputs  map[string]interface{}
	StepOutputs map[string]interface{} // keyed by Step.Key
}

// NewStore creates an empty store seeded with the run's user inputs.
func NewStore(userInputs map[string]interface{}) *Store {
	return &Store{
		UserInputs:  userInputs,
		StepOutputs: make(map[string]interface{}),
	}
}

// RecordOutput saves a completed step's output for later reference.
func (s *Store) RecordOutput(stepKey string, output interface{}) {
	s.StepOutputs[stepKey] = output
}

// Resolve evaluates a single reference expression:
//   - "$input.<path>"   -> dotted path into UserInputs
//   - "<step_key>.<path>" -> dotted path into that step's recorded output
//   - anything else      -> returned as a literal string
func (s *Store) Resolve(expression string) (interface{}, error) {
	if rest, ok := cutPrefix(expression, "$input."); ok {
		val, err := pathutil.GetOrError(s.UserInputs, rest)
		if err != nil {
			return nil, &domain.StateResolutionError{Expression: expression, Reason: err.Error()}
		}
		return val, nil
	}
	if expression == "$input" {
		return s.UserInputs, nil
	}

	if stepKey, rest, ok := splitStepReference(expression); ok {
		output, known := s.StepOutputs[stepKey]
		if !known {
			return nil, &domain.StateResolutionError{
				Expression: expression,
				Reason:     "referenced step has not produced output yet",
			}
		}
		val, err := pathutil.GetOrError(output, rest)
		if err != nil {
			return nil, &domain.StateResolutionError{Expression: expression, Reason: err.Error()}
		}
		return val, nil
	}

	return expression, nil
}

// ResolveMapping resolves every value in a step's input mapping, returning
// the fully resolved input name -> value map ready for dispatch.
func (s *Store) ResolveMapping(mapping map[string]string) (map[string]interface{}, error) {
	resolved := make(map[string]interface{}, len(mapping))
	for name, expr := range mapping {
		val, err := s.Resolve(expr)
		if err != nil {
			if stateErr, ok := err.(*domain.StateResolutionError); ok {
				stateErr.InputName = name
			}
			return nil, err
		}
		resolved[name] = val
	}
	return resolved, nil
}

func cutPrefix(s, prefix string) (string, bool) {
	if !strings.HasPrefix(s, prefix) {
		return "", false
	}
	return s[len(prefix):], true
}

// splitStepReference splits "step_key.rest.of.path" into its step key and
// remaining path. A bare identifier with no dot, or one starting with
// "$input", is not a step reference.
func splitStepReference(expression string) (stepKey, rest string, ok bool) {
	if strings.HasPrefix(expression, "$input") {
		return "", "", false
	}
	idx := strings.Index(expression, ".")
	if idx < 0 {
		return "", "", false
	}
	return expression[:idx], expression[idx+1:], true
}
