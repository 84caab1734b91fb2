package domain

import "strings"

// AuthType identifies how a tool's credentials are attached to a request.
type AuthType string

const (
	AuthTypeNone   AuthType = "none"
	AuthTypeAPIKey AuthType = "api_key"
	AuthTypeBearer AuthType = "bearer"
	AuthTypeBasic  AuthType = "basic"
)

// IsValid reports whether the auth type is one of the known kinds.
func (t AuthType) IsValid() bool {
	switch t {
	case AuthTypeNone, AuthTypeAPIKey, AuthTypeBearer, AuthTypeBasic:
		return true
	}
	return false
}

// ToolAuth describes how a tool authenticates its calls. Secret values
// themselves are never stored on the definition; they are looked up at
// dispatch time from per-tool runtime credentials.
type ToolAuth struct {
	Type       AuthType `json:"type" yaml:"type"`
	HeaderName string   `json:"header_name,omitempty" yaml:"auth_header,omitempty"`
}

// RequestSpec is the structured-path request shape: which resolved input
// names fill path parameters, query parameters, headers, and the templated
// body. Its presence on a ToolDefinition selects the structured dispatch
// path over the legacy flat-input path.
type RequestSpec struct {
	PathParams  []string          `json:"path_params,omitempty" yaml:"path_params,omitempty"`
	QueryParams []string          `json:"query_params,omitempty" yaml:"query_params,omitempty"`
	Headers     map[string]string `json:"headers,omitempty" yaml:"headers,omitempty"`
	Body        interface{}       `json:"body,omitempty" yaml:"body,omitempty"`
}

// ResponseExtractSpec declares which dotted paths of a tool's response body
// become named step outputs, and whether a miss is fatal.
type ResponseExtractSpec struct {
	Fields map[string]string `json:"fields,omitempty" yaml:"fields,omitempty"`
	Strict bool              `json:"strict,omitempty" yaml:"strict,omitempty"`
}

// ToolDefinition describes one callable HTTP tool: its endpoint, its
// authentication, and how to map step input to request and response back
// to step output. Definitions are typically loaded in bulk from YAML by
// internal/registry and looked up by ID at dispatch time.
type ToolDefinition struct {
	ID      string   `json:"id" yaml:"id"`
	Name    string   `json:"name" yaml:"name"`
	BaseURL string   `json:"base_url" yaml:"base_url"`
	Method  string   `json:"method" yaml:"method"`
	Path    string   `json:"path" yaml:"path"`
	Auth    ToolAuth `json:"auth" yaml:"auth"`

	// Legacy path fields: used when Request is nil. Parameters lists the
	// flat input names accepted; the dispatcher places each either in the
	// path (by {name} substitution), the query string, or a JSON body,
	// depending on the HTTP method.
	Parameters []string `json:"parameters,omitempty" yaml:"parameters,omitempty"`

	// Structured path fields: used when Request is non-nil.
	Request         *RequestSpec         `json:"request,omitempty" yaml:"request,omitempty"`
	ResponseExtract *ResponseExtractSpec `json:"response_extract,omitempty" yaml:"response_extract,omitempty"`
}

// UsesStructuredDispatch reports whether this tool's request must be built
// by the structured dispatch path rather than the legacy flat path.
func (t *ToolDefinition) UsesStructuredDispatch() bool {
	return t.Request != nil
}

// Validate checks the structural invariants of a structured RequestSpec:
// path_params and query_params must be disjoint, and every path_params name
// must appear as a "{name}" placeholder in Path. Legacy-path tools (no
// Request) have nothing to check.
func (t *ToolDefinition) Validate() error {
	if t.Request == nil {
		return nil
	}
	pathParams := make(map[string]bool, len(t.Request.PathParams))
	for _, name := range t.Request.PathParams {
		if !strings.Contains(t.Path, "{"+name+"}") {
			return &ValidationError{Reason: "path_param_not_in_path", Detail: name, Path: []string{t.ID}}
		}
		pathParams[name] = true
	}
	for _, name := range t.Request.QueryParams {
		if pathParams[name] {
			return &ValidationError{Reason: "path_query_param_overlap", Detail: name, Path: []string{t.ID}}
		}
	}
	return nil
}
