// Package graph validates a workflow's step/edge structure and produces a
// deterministic execution order for it: edge inference from data-flow
// references, structural validation (duplicate/empty IDs, unknown tools,
// unreachable references, cycles), and Kahn's-algorithm topological sort
// with lexicographic tie-breaking.
package graph

import (
	"regexp"
	"sort"
	"strings"

	"github.com/flowcraft/dagengine/internal/domain"
)

// referencePattern matches a leading identifier segment followed by a dot
// and at least one more character, e.g. "step_1.output.id" but not
// "$input.name" (that prefix is excluded explicitly) and not a bare literal
// with no dot.
var referencePattern = regexp.MustCompile(`^([A-Za-z_][A-Za-z0-9_]*)\..+`)

// InferredStepID extracts the referenced step key from a reference
// expression, or returns ("", false) if the expression does not reference
// a step (it is a $input reference or a bare literal).
func InferredStepID(expression string) (string, bool) {
	if strings.HasPrefix(expression, "$input") {
		return "", false
	}
	m := referencePattern.FindStringSubmatch(expression)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// InferEdges scans every step's input mapping for step-reference
// expressions and returns the edges implied by them, independent of any
// edge the caller declared explicitly.
func InferEdges(steps []domain.Step) []domain.Edge {
	var inferred []domain.Edge
	for _, step := range steps {
		names := make([]string, 0, len(step.InputMapping))
		for name := range step.InputMapping {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			if from, ok := InferredStepID(step.InputMapping[name]); ok {
				inferred = append(inferred, domain.Edge{From: from, To: step.Key})
			}
		}
	}
	return inferred
}

// Resolver looks up a tool definition by ID.
type Resolver interface {
	Get(id string) (domain.ToolDefinition, bool)
}

// Validate runs the full structural validation pass over a workflow:
//  1. reject duplicate or empty step keys
//  2. reject steps referencing an unknown tool
//  3. reject a declared edge whose endpoint names a step that doesn't exist
//  4. merge inferred edges (from input-mapping references) into the
//     workflow's declared edges, deduplicated
//  5. reject a step-reference whose target step is not a transitive
//     predecessor (unreachable reference)
//  6. reject a cycle, reporting the full cycle path
//
// On success it returns the merged edge list (declared + inferred).
func Validate(wf *domain.Workflow, tools Resolver) ([]domain.Edge, error) {
	seen := make(map[string]bool, len(wf.Steps))
	for _, s := range wf.Steps {
		if s.Key == "" {
			return nil, &domain.ValidationError{Reason: "empty_step_id", Detail: "step has an empty id"}
		}
		if seen[s.Key] {
			return nil, &domain.ValidationError{Reason: "duplicate_step_id", Detail: s.Key}
		}
		seen[s.Key] = true
		if tools != nil {
			tool, ok := tools.Get(s.ToolID)
			if !ok {
				return nil, &domain.ValidationError{Reason: "unknown_tool", Detail: s.ToolID, Path: []string{s.Key}}
			}
			if err := tool.Validate(); err != nil {
				return nil, err
			}
		}
	}

	for _, e := range wf.Edges {
		if !seen[e.From] {
			return nil, &domain.ValidationError{Reason: "unknown_edge_endpoint", Detail: e.From, Path: []string{e.From, e.To}}
		}
		if !seen[e.To] {
			return nil, &domain.ValidationError{Reason: "unknown_edge_endpoint", Detail: e.To, Path: []string{e.From, e.To}}
		}
	}

	merged := mergeEdges(wf.Edges, InferEdges(wf.Steps))

	predecessors := buildPredecessorIndex(merged)
	if err := checkReachability(wf.Steps, predecessors, seen); err != nil {
		return nil, err
	}

	if path, ok := findCycle(wf.Steps, merged); ok {
		return nil, &domain.ValidationError{Reason: "cycle", Detail: "workflow graph contains a cycle", Path: path}
	}

	return merged, nil
}

func mergeEdges(declared, inferred []domain.Edge) []domain.Edge {
	key := func(e domain.Edge) string { return e.From + "->" + e.To }
	seen := make(map[string]bool, len(declared)+len(inferred))
	var merged []domain.Edge
	for _, e := range declared {
		k := key(e)
		if !seen[k] {
			seen[k] = true
			merged = append(merged, e)
		}
	}
	for _, e := range inferred {
		k := key(e)
		if !seen[k] {
			seen[k] = true
			merged = append(merged, e)
		}
	}
	return merged
}

func buildPredecessorIndex(edges []domain.Edge) map[string]map[string]bool {
	direct := make(map[string][]string)
	for _, e := range edges {
		direct[e.To] = append(direct[e.To], e.From)
	}

	var collect func(stepKey string, visited map[string]bool) map[string]bool
	collect = func(stepKey string, visited map[string]bool) map[string]bool {
		result := make(map[string]bool)
		for _, parent := range direct[stepKey] {
			if visited[parent] {
				continue // guards against infinite recursion on a cycle; cycle itself is reported separately
			}
			result[parent] = true
			visited[parent] = true
			for anc := range collect(parent, visited) {
				result[anc] = true
			}
		}
		return result
	}

	out := make(map[string]map[string]bool, len(direct))
	for stepKey := range direct {
		out[stepKey] = collect(stepKey, map[string]bool{stepKey: true})
	}
	return out
}

// checkReachability verifies that every step-reference expression in every
// step's input mapping names a step that is a transitive predecessor of the
// referencing step.
func checkReachability(steps []domain.Step, predecessors map[string]map[string]bool, known map[string]bool) error {
	for _, step := range steps {
		names := make([]string, 0, len(step.InputMapping))
		for name := range step.InputMapping {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			expr := step.InputMapping[name]
			refStep, ok := InferredStepID(expr)
			if !ok {
				continue
			}
			if !known[refStep] {
				return &domain.ValidationError{
					Reason: "unreachable_reference",
					Detail: expr,
					Path:   []string{step.Key, refStep},
				}
			}
			if !predecessors[step.Key][refStep] {
				return &domain.ValidationError{
					Reason: "unreachable_reference",
					Detail: "referenced step is not a predecessor of " + step.Key,
					Path:   []string{step.Key, refStep},
				}
			}
		}
	}
	return nil
}

// findCycle runs a three-colour depth-first search over the graph, looking
// for a back edge. White (unvisited) = absent from state; grey (on stack)
// = state[id] == 1; black (done) = state[id] == 2. A back edge to a grey
// node indicates a cycle, whose path is reconstructed from the DFS stack.
func findCycle(steps []domain.Step, edges []domain.Edge) ([]string, bool) {
	adjacency := make(map[string][]string, len(steps))
	for _, e := range edges {
		adjacency[e.From] = append(adjacency[e.From], e.To)
	}
	for from := range adjacency {
		sort.Strings(adjacency[from])
	}

	state := make(map[string]int, len(steps))
	var stack []string
	var cyclePath []string

	var dfs func(id string) bool
	dfs = func(id string) bool {
		state[id] = 1
		stack = append(stack, id)
		for _, next := range adjacency[id] {
			switch state[next] {
			case 1:
				cyclePath = append(append([]string{}, stack...), next)
				return true
			case 2:
				continue
			default:
				if dfs(next) {
					return true
				}
			}
		}
		stack = stack[:len(stack)-1]
		state[id] = 2
		return false
	}

	keys := make([]string, 0, len(steps))
	for _, s := range steps {
		keys = append(keys, s.Key)
	}
	sort.Strings(keys)

	for _, id := range keys {
		if state[id] == 0 {
			if dfs(id) {
				return cyclePath, true
			}
		}
	}
	return nil, false
}
