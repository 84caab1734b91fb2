package domain

// Edge is a directed dependency between two steps, identified by their
// Step.Key rather than their UUID: "From must complete before To starts."
//
// Edges may be declared explicitly by the caller or inferred from data-flow
// references in a step's InputMapping; the validator merges both into the
// one deduplicated edge list it returns (Workflow.Edges itself is left as
// declared), so the two origins are indistinguishable afterward.
type Edge struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// NewEdge creates an edge from one step key to another.
func NewEdge(from, to string) Edge {
	return Edge{From: from, To: to}
}
