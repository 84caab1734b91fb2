// Package dispatch makes the HTTP call a tool definition describes,
// resolving a step's resolved input into a request via one of two
// strategies (legacy flat-input, or structured path/query/header/body),
// and extracting named fields back out of the response.
package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/flowcraft/dagengine/internal/domain"
	"github.com/flowcraft/dagengine/internal/pathutil"
	"github.com/flowcraft/dagengine/internal/render"
)

// Credentials carries the runtime secret for a tool's auth type. An empty
// Value means "no secret configured" — the dispatcher skips the auth
// header rather than sending one empty or malformed.
type Credentials struct {
	Value string
}

// Dispatcher executes tool calls over HTTP.
type Dispatcher struct {
	Client *http.Client
}

// New creates a Dispatcher with a default 30s timeout, matching the
// teacher's HTTPAdapter default.
func New() *Dispatcher {
	return &Dispatcher{Client: &http.Client{Timeout: 30 * time.Second}}
}

// Result is the outcome of a successful dispatch.
type Result struct {
	StatusCode int
	Output     interface{} // extracted fields when response_extract is set; otherwise the decoded body, a sequence wrapped as {items, count}
	DurationMs int64
}

// Dispatch routes to the structured or legacy strategy depending on
// whether the tool definition carries a RequestSpec.
func (d *Dispatcher) Dispatch(ctx context.Context, tool domain.ToolDefinition, input map[string]interface{}, creds Credentials) (*Result, error) {
	if tool.UsesStructuredDispatch() {
		return d.structuredDispatch(ctx, tool, input, creds)
	}
	return d.legacyDispatch(ctx, tool, input, creds)
}

// legacyDispatch sends the whole input map as query parameters (GET/DELETE)
// or a JSON body (POST/PUT/PATCH), after substituting any {name} path
// placeholders from input and removing those names from what remains.
func (d *Dispatcher) legacyDispatch(ctx context.Context, tool domain.ToolDefinition, input map[string]interface{}, creds Credentials) (*Result, error) {
	remaining := make(map[string]interface{}, len(input))
	for k, v := range input {
		remaining[k] = v
	}

	path := tool.Path
	for name, val := range input {
		placeholder := "{" + name + "}"
		if strings.Contains(path, placeholder) {
			path = strings.ReplaceAll(path, placeholder, fmt.Sprintf("%v", val))
			delete(remaining, name)
		}
	}

	reqURL := strings.TrimRight(tool.BaseURL, "/") + path
	method := strings.ToUpper(tool.Method)
	if method == "" {
		method = http.MethodGet
	}

	var body io.Reader
	if method == http.MethodGet || method == http.MethodDelete {
		values := url.Values{}
		for name, val := range remaining {
			values.Set(name, fmt.Sprintf("%v", val))
		}
		if encoded := values.Encode(); encoded != "" {
			reqURL += "?" + encoded
		}
	} else {
		payload, err := json.Marshal(remaining)
		if err != nil {
			return nil, &domain.DispatchError{ToolID: tool.ID, URL: reqURL, Reason: "failed to encode body: " + err.Error()}
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, body)
	if err != nil {
		return nil, &domain.DispatchError{ToolID: tool.ID, URL: reqURL, Reason: err.Error()}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	applyAuth(req, tool.Auth, creds)

	start := time.Now()
	resp, rawBody, err := d.do(req)
	duration := time.Since(start).Milliseconds()
	if err != nil {
		return nil, &domain.DispatchError{ToolID: tool.ID, URL: reqURL, Reason: err.Error()}
	}

	decoded := decodeBody(resp, rawBody)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &domain.DispatchError{ToolID: tool.ID, URL: reqURL, Status: resp.StatusCode, Reason: fmt.Sprintf("%v", decoded)}
	}

	return &Result{StatusCode: resp.StatusCode, Output: wrapSequence(decoded), DurationMs: duration}, nil
}

// structuredDispatch builds the request from the tool's RequestSpec: named
// inputs become path or query parameters, named headers are rendered from
// templates, and the body is rendered as a template against the *full*
// resolved input map (path_params/query_params consumption does not remove
// a name from what the body template may still reference).
func (d *Dispatcher) structuredDispatch(ctx context.Context, tool domain.ToolDefinition, input map[string]interface{}, creds Credentials) (*Result, error) {
	spec := tool.Request

	path := tool.Path
	for _, name := range spec.PathParams {
		val, ok := input[name]
		if !ok {
			return nil, &domain.StateResolutionError{InputName: name, Reason: "missing path parameter"}
		}
		path = strings.ReplaceAll(path, "{"+name+"}", url.PathEscape(fmt.Sprintf("%v", val)))
	}

	reqURL := strings.TrimRight(tool.BaseURL, "/") + path
	values := url.Values{}
	for _, name := range spec.QueryParams {
		val, ok := input[name]
		if !ok || val == nil {
			continue
		}
		if seq, isSeq := val.([]interface{}); isSeq {
			for _, item := range seq {
				values.Add(name, fmt.Sprintf("%v", item))
			}
			continue
		}
		values.Set(name, fmt.Sprintf("%v", val))
	}
	if encoded := values.Encode(); encoded != "" {
		reqURL += "?" + encoded
	}

	var body io.Reader
	if spec.Body != nil {
		rendered, err := render.Render(spec.Body, input, render.Options{Strict: true})
		if err != nil {
			return nil, err
		}
		payload, err := json.Marshal(rendered)
		if err != nil {
			return nil, &domain.DispatchError{ToolID: tool.ID, URL: reqURL, Reason: "failed to encode body: " + err.Error()}
		}
		body = bytes.NewReader(payload)
	}

	method := strings.ToUpper(tool.Method)
	if method == "" {
		method = http.MethodGet
	}
	req, err := http.NewRequestWithContext(ctx, method, reqURL, body)
	if err != nil {
		return nil, &domain.DispatchError{ToolID: tool.ID, URL: reqURL, Reason: err.Error()}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for name, tmpl := range spec.Headers {
		rendered, err := render.Render(tmpl, input, render.Options{Strict: false})
		if err != nil {
			return nil, err
		}
		value := fmt.Sprintf("%v", rendered)
		if strings.Contains(value, "{{") {
			continue
		}
		req.Header.Set(name, value)
	}
	applyAuth(req, tool.Auth, creds)

	start := time.Now()
	resp, rawBody, err := d.do(req)
	duration := time.Since(start).Milliseconds()
	if err != nil {
		return nil, &domain.DispatchError{ToolID: tool.ID, URL: reqURL, Reason: err.Error()}
	}

	decoded := decodeBody(resp, rawBody)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &domain.DispatchError{ToolID: tool.ID, URL: reqURL, Status: resp.StatusCode, Reason: fmt.Sprintf("%v", decoded)}
	}

	output, err := extractResponse(decoded, tool.ResponseExtract)
	if err != nil {
		return nil, err
	}

	return &Result{StatusCode: resp.StatusCode, Output: output, DurationMs: duration}, nil
}

func (d *Dispatcher) do(req *http.Request) (*http.Response, []byte, error) {
	resp, err := d.Client.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp, nil, err
	}
	return resp, raw, nil
}

func decodeBody(resp *http.Response, raw []byte) interface{} {
	if len(raw) == 0 {
		return nil
	}
	contentType := resp.Header.Get("Content-Type")
	if strings.Contains(contentType, "application/json") || json.Valid(raw) {
		var decoded interface{}
		if err := json.Unmarshal(raw, &decoded); err == nil {
			return decoded
		}
	}
	return map[string]interface{}{"text": string(raw)}
}

// wrapSequence applies the default response shape when no response_extract
// spec narrows the body: a sequence body is wrapped as {items, count} so a
// step can reference "count" or "items" directly; anything else passes
// through unchanged.
func wrapSequence(decoded interface{}) interface{} {
	seq, ok := decoded.([]interface{})
	if !ok {
		return decoded
	}
	return map[string]interface{}{"items": seq, "count": len(seq)}
}

// extractResponse pulls named fields out of a decoded response body per
// the tool's response_extract spec. In strict mode a missing path is a
// fatal *domain.ExtractionError; otherwise the field resolves to nil rather
// than being omitted, so a downstream reference to it resolves cleanly.
func extractResponse(decoded interface{}, spec *domain.ResponseExtractSpec) (interface{}, error) {
	if spec == nil || len(spec.Fields) == 0 {
		return wrapSequence(decoded), nil
	}
	out := make(map[string]interface{}, len(spec.Fields))
	for field, path := range spec.Fields {
		val, err := pathutil.GetOrError(decoded, path)
		if err != nil {
			if spec.Strict {
				return nil, &domain.ExtractionError{Field: field, Path: path}
			}
			out[field] = nil
			continue
		}
		out[field] = val
	}
	return out, nil
}

func applyAuth(req *http.Request, auth domain.ToolAuth, creds Credentials) {
	if creds.Value == "" {
		return
	}
	switch auth.Type {
	case domain.AuthTypeBearer:
		req.Header.Set("Authorization", "Bearer "+creds.Value)
	case domain.AuthTypeBasic:
		req.Header.Set("Authorization", "Basic "+creds.Value)
	case domain.AuthTypeAPIKey:
		header := auth.HeaderName
		if header == "" {
			header = "X-Api-Key"
		}
		req.Header.Set(header, creds.Value)
	}
}
