package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowcraft/dagengine/internal/domain"
)

func TestToolDefinition_Validate(t *testing.T) {
	t.Run("legacy tool with no request is always valid", func(t *testing.T) {
		tool := domain.ToolDefinition{ID: "t", Path: "/x"}
		assert.NoError(t, tool.Validate())
	})

	t.Run("structured tool with disjoint path/query params and satisfied placeholders is valid", func(t *testing.T) {
		tool := domain.ToolDefinition{
			ID: "t", Path: "/widgets/{id}",
			Request: &domain.RequestSpec{PathParams: []string{"id"}, QueryParams: []string{"limit"}},
		}
		assert.NoError(t, tool.Validate())
	})

	t.Run("path_params overlapping query_params is rejected", func(t *testing.T) {
		tool := domain.ToolDefinition{
			ID: "t", Path: "/widgets/{id}",
			Request: &domain.RequestSpec{PathParams: []string{"id"}, QueryParams: []string{"id"}},
		}
		err := tool.Validate()
		require.Error(t, err)
		var verr *domain.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "path_query_param_overlap", verr.Reason)
	})

	t.Run("path_params name missing from path is rejected", func(t *testing.T) {
		tool := domain.ToolDefinition{
			ID: "t", Path: "/widgets",
			Request: &domain.RequestSpec{PathParams: []string{"id"}},
		}
		err := tool.Validate()
		require.Error(t, err)
		var verr *domain.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "path_param_not_in_path", verr.Reason)
	})
}
