package graph

import (
	"sort"

	"github.com/flowcraft/dagengine/internal/domain"
)

// TopologicalOrder returns the step keys of steps in a deterministic
// topological order: Kahn's algorithm over in-degree, breaking ties between
// simultaneously-ready steps by ascending lexicographic step key. Callers
// must pass a validated, acyclic edge set (graph.Validate's cycle check
// must have already passed) — TopologicalOrder does not itself detect
// cycles; a cyclic input simply yields an order shorter than len(steps).
func TopologicalOrder(steps []domain.Step, edges []domain.Edge) []string {
	inDegree := make(map[string]int, len(steps))
	children := make(map[string][]string, len(steps))
	for _, s := range steps {
		inDegree[s.Key] = 0
	}
	for _, e := range edges {
		inDegree[e.To]++
		children[e.From] = append(children[e.From], e.To)
	}
	for from := range children {
		sort.Strings(children[from])
	}

	ready := make([]string, 0, len(steps))
	for _, s := range steps {
		if inDegree[s.Key] == 0 {
			ready = append(ready, s.Key)
		}
	}
	sort.Strings(ready)

	order := make([]string, 0, len(steps))
	for len(ready) > 0 {
		sort.Strings(ready)
		next := ready[0]
		ready = ready[1:]
		order = append(order, next)

		for _, child := range children[next] {
			inDegree[child]--
			if inDegree[child] == 0 {
				ready = append(ready, child)
			}
		}
	}
	return order
}
