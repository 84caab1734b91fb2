package graph_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowcraft/dagengine/internal/domain"
	"github.com/flowcraft/dagengine/internal/graph"
)

type fakeResolver struct{ ids map[string]bool }

func (f fakeResolver) Get(id string) (domain.ToolDefinition, bool) {
	if f.ids[id] {
		return domain.ToolDefinition{ID: id}, true
	}
	return domain.ToolDefinition{}, false
}

func newResolver(ids ...string) fakeResolver {
	m := make(map[string]bool, len(ids))
	for _, id := range ids {
		m[id] = true
	}
	return fakeResolver{ids: m}
}

func TestInferredStepID(t *testing.T) {
	tests := []struct {
		expr    string
		want    string
		inferOK bool
	}{
		{"$input.name", "", false},
		{"$input", "", false},
		{"step_1.output.id", "step_1", true},
		{"literal value", "", false},
		{"step_1", "", false},
	}
	for _, tt := range tests {
		got, ok := graph.InferredStepID(tt.expr)
		assert.Equal(t, tt.inferOK, ok, tt.expr)
		if ok {
			assert.Equal(t, tt.want, got, tt.expr)
		}
	}
}

func TestValidate_DiamondWithInference(t *testing.T) {
	wf := &domain.Workflow{
		Steps: []domain.Step{
			{Key: "start", ToolID: "t"},
			{Key: "left", ToolID: "t", InputMapping: map[string]string{"x": "start.output.value"}},
			{Key: "right", ToolID: "t", InputMapping: map[string]string{"x": "start.output.value"}},
			{Key: "join", ToolID: "t", InputMapping: map[string]string{
				"a": "left.output.value",
				"b": "right.output.value",
			}},
		},
	}
	edges, err := graph.Validate(wf, newResolver("t"))
	require.NoError(t, err)
	assert.Len(t, edges, 4)

	order := graph.TopologicalOrder(wf.Steps, edges)
	require.Equal(t, []string{"start", "left", "right", "join"}, order)
}

func TestValidate_Cycle(t *testing.T) {
	wf := &domain.Workflow{
		Steps: []domain.Step{
			{Key: "a", ToolID: "t", InputMapping: map[string]string{"x": "b.output.value"}},
			{Key: "b", ToolID: "t", InputMapping: map[string]string{"x": "a.output.value"}},
		},
	}
	_, err := graph.Validate(wf, newResolver("t"))
	require.Error(t, err)
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "cycle", verr.Reason)
	assert.NotEmpty(t, verr.Path)
}

func TestValidate_UnreachableReference(t *testing.T) {
	wf := &domain.Workflow{
		Steps: []domain.Step{
			{Key: "a", ToolID: "t"},
			{Key: "b", ToolID: "t", InputMapping: map[string]string{"x": "c.output.value"}},
		},
	}
	_, err := graph.Validate(wf, newResolver("t"))
	require.Error(t, err)
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "unreachable_reference", verr.Reason)
}

func TestValidate_DuplicateStepID(t *testing.T) {
	wf := &domain.Workflow{
		Steps: []domain.Step{
			{Key: "a", ToolID: "t"},
			{Key: "a", ToolID: "t"},
		},
	}
	_, err := graph.Validate(wf, newResolver("t"))
	require.Error(t, err)
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "duplicate_step_id", verr.Reason)
}

func TestValidate_UnknownEdgeEndpoint(t *testing.T) {
	wf := &domain.Workflow{
		Steps: []domain.Step{{Key: "a", ToolID: "t"}},
		Edges: []domain.Edge{{From: "a", To: "phantom"}},
	}
	_, err := graph.Validate(wf, newResolver("t"))
	require.Error(t, err)
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "unknown_edge_endpoint", verr.Reason)
}

func TestValidate_UnknownTool(t *testing.T) {
	wf := &domain.Workflow{
		Steps: []domain.Step{{Key: "a", ToolID: "missing"}},
	}
	_, err := graph.Validate(wf, newResolver("t"))
	require.Error(t, err)
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "unknown_tool", verr.Reason)
}

func TestTopologicalOrder_DeterministicTieBreak(t *testing.T) {
	steps := []domain.Step{{Key: "c"}, {Key: "a"}, {Key: "b"}}
	order := graph.TopologicalOrder(steps, nil)
	assert.Equal(t, []string{"a", "b", "c"}, order)
}
