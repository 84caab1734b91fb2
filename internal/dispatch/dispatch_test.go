package dispatch_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowcraft/dagengine/internal/dispatch"
	"github.com/flowcraft/dagengine/internal/domain"
)

func TestLegacyDispatch_GETListResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "5", r.URL.Query().Get("limit"))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode([]map[string]interface{}{{"id": 1}, {"id": 2}, {"id": 3}})
	}))
	defer srv.Close()

	tool := domain.ToolDefinition{
		ID: "list_items", BaseURL: srv.URL, Method: "GET", Path: "/items",
		Parameters: []string{"limit"},
	}
	d := dispatch.New()
	result, err := d.Dispatch(context.Background(), tool, map[string]interface{}{"limit": 5}, dispatch.Credentials{})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, result.StatusCode)
	out, ok := result.Output.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, 3, out["count"])
	items, ok := out["items"].([]interface{})
	require.True(t, ok)
	assert.Len(t, items, 3)
}

func TestStructuredDispatch_POSTTypePreservingBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/repos/acme/widgets/issues", r.URL.Path)
		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Bug", body["title"])
		assert.Equal(t, []interface{}{"bug", "urgent"}, body["labels"])

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"data": map[string]interface{}{"number": float64(7), "html_url": "http://x/7"},
		})
	}))
	defer srv.Close()

	tool := domain.ToolDefinition{
		ID: "create_issue", BaseURL: srv.URL, Method: "POST", Path: "/repos/{owner}/{repo}/issues",
		Request: &domain.RequestSpec{
			PathParams: []string{"owner", "repo"},
			Body: map[string]interface{}{
				"title":  "{{title}}",
				"labels": "{{labels}}",
			},
		},
		ResponseExtract: &domain.ResponseExtractSpec{
			Fields: map[string]string{
				"issue_number": "data.number",
				"issue_url":    "data.html_url",
			},
			Strict: true,
		},
	}

	input := map[string]interface{}{
		"owner":  "acme",
		"repo":   "widgets",
		"title":  "Bug",
		"labels": []interface{}{"bug", "urgent"},
	}

	d := dispatch.New()
	result, err := d.Dispatch(context.Background(), tool, input, dispatch.Credentials{})
	require.NoError(t, err)
	out := result.Output.(map[string]interface{})
	assert.Equal(t, float64(7), out["issue_number"])
	assert.Equal(t, "http://x/7", out["issue_url"])
}

func TestStructuredDispatch_ResponseExtractionStrictMiss(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"data": map[string]interface{}{}})
	}))
	defer srv.Close()

	tool := domain.ToolDefinition{
		ID: "t", BaseURL: srv.URL, Method: "GET", Path: "/x",
		Request: &domain.RequestSpec{},
		ResponseExtract: &domain.ResponseExtractSpec{
			Fields: map[string]string{"missing_field": "data.nope"},
			Strict: true,
		},
	}

	d := dispatch.New()
	_, err := d.Dispatch(context.Background(), tool, map[string]interface{}{}, dispatch.Credentials{})
	require.Error(t, err)
	var eerr *domain.ExtractionError
	require.ErrorAs(t, err, &eerr)
	assert.Equal(t, "missing_field", eerr.Field)
}

func TestDispatch_NonSuccessStatusIsDispatchError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"not found"}`))
	}))
	defer srv.Close()

	tool := domain.ToolDefinition{ID: "t", BaseURL: srv.URL, Method: "GET", Path: "/missing"}
	d := dispatch.New()
	_, err := d.Dispatch(context.Background(), tool, map[string]interface{}{}, dispatch.Credentials{})
	require.Error(t, err)
	var derr *domain.DispatchError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, http.StatusNotFound, derr.Status)
}

func TestDispatch_AuthHeaderAppliedWhenCredentialPresent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer secret-token", r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	tool := domain.ToolDefinition{
		ID: "t", BaseURL: srv.URL, Method: "GET", Path: "/x",
		Auth: domain.ToolAuth{Type: domain.AuthTypeBearer},
	}
	d := dispatch.New()
	_, err := d.Dispatch(context.Background(), tool, map[string]interface{}{}, dispatch.Credentials{Value: "secret-token"})
	require.NoError(t, err)
}

func TestDispatch_NonJSONBodyWrappedUnderTextKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte("pong"))
	}))
	defer srv.Close()

	tool := domain.ToolDefinition{
		ID: "t", BaseURL: srv.URL, Method: "GET", Path: "/ping",
		Request: &domain.RequestSpec{},
		ResponseExtract: &domain.ResponseExtractSpec{
			Fields: map[string]string{"reply": "text"},
		},
	}
	d := dispatch.New()
	result, err := d.Dispatch(context.Background(), tool, map[string]interface{}{}, dispatch.Credentials{})
	require.NoError(t, err)
	out := result.Output.(map[string]interface{})
	assert.Equal(t, "pong", out["reply"])
}

func TestStructuredDispatch_NonStrictExtractionMissYieldsNilField(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"data": map[string]interface{}{}})
	}))
	defer srv.Close()

	tool := domain.ToolDefinition{
		ID: "t", BaseURL: srv.URL, Method: "GET", Path: "/x",
		Request: &domain.RequestSpec{},
		ResponseExtract: &domain.ResponseExtractSpec{
			Fields: map[string]string{"missing_field": "data.nope"},
			Strict: false,
		},
	}
	d := dispatch.New()
	result, err := d.Dispatch(context.Background(), tool, map[string]interface{}{}, dispatch.Credentials{})
	require.NoError(t, err)
	out := result.Output.(map[string]interface{})
	val, ok := out["missing_field"]
	assert.True(t, ok)
	assert.Nil(t, val)
}

func TestStructuredDispatch_QueryParamSequenceExpandsAndNullOmitted(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, []string{"a", "b"}, r.URL.Query()["tags"])
		assert.False(t, r.URL.Query().Has("cursor"))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	tool := domain.ToolDefinition{
		ID: "t", BaseURL: srv.URL, Method: "GET", Path: "/x",
		Request: &domain.RequestSpec{QueryParams: []string{"tags", "cursor"}},
	}
	d := dispatch.New()
	input := map[string]interface{}{
		"tags":   []interface{}{"a", "b"},
		"cursor": nil,
	}
	_, err := d.Dispatch(context.Background(), tool, input, dispatch.Credentials{})
	require.NoError(t, err)
}

func TestStructuredDispatch_UnresolvedHeaderPlaceholderDropped(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("X-Trace-Id"))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	tool := domain.ToolDefinition{
		ID: "t", BaseURL: srv.URL, Method: "GET", Path: "/x",
		Request: &domain.RequestSpec{Headers: map[string]string{"X-Trace-Id": "{{trace_id}}"}},
	}
	d := dispatch.New()
	_, err := d.Dispatch(context.Background(), tool, map[string]interface{}{}, dispatch.Credentials{})
	require.NoError(t, err)
}

func TestDispatch_AuthHeaderSkippedWhenCredentialEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	tool := domain.ToolDefinition{
		ID: "t", BaseURL: srv.URL, Method: "GET", Path: "/x",
		Auth: domain.ToolAuth{Type: domain.AuthTypeBearer},
	}
	d := dispatch.New()
	_, err := d.Dispatch(context.Background(), tool, map[string]interface{}{}, dispatch.Credentials{})
	require.NoError(t, err)
}
