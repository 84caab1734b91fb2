// Package registry holds the set of tool definitions a workflow may call,
// loaded in bulk from YAML files the way the teacher's block registry is.
package registry

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/flowcraft/dagengine/internal/domain"
	"gopkg.in/yaml.v3"
)

// Registry is an in-memory lookup of tool definitions by ID.
type Registry struct {
	tools map[string]domain.ToolDefinition
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{tools: make(map[string]domain.ToolDefinition)}
}

// Register adds or replaces a tool definition.
func (r *Registry) Register(tool domain.ToolDefinition) {
	r.tools[tool.ID] = tool
}

// Get looks up a tool definition by ID.
func (r *Registry) Get(id string) (domain.ToolDefinition, bool) {
	t, ok := r.tools[id]
	return t, ok
}

// List returns every registered tool, sorted by ID.
func (r *Registry) List() []domain.ToolDefinition {
	out := make([]domain.ToolDefinition, 0, len(r.tools))
	for _, t := range r.tools {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Loader reads tool definitions from one or more directories of YAML files.
type Loader struct {
	directories []string
}

// NewLoader creates a Loader over the given directories.
func NewLoader(directories ...string) *Loader {
	return &Loader{directories: directories}
}

// LoadAll parses every *.yaml/*.yml file found (recursively) under the
// loader's directories and returns them registered in one Registry, sorted
// by ID within each directory for deterministic load order.
func (l *Loader) LoadAll() (*Registry, error) {
	reg := New()
	for _, dir := range l.directories {
		defs, err := l.loadFromDirectory(dir)
		if err != nil {
			return nil, err
		}
		for _, def := range defs {
			reg.Register(def)
		}
	}
	return reg, nil
}

func (l *Loader) loadFromDirectory(dir string) ([]domain.ToolDefinition, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		if ext == ".yaml" || ext == ".yml" {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking tool registry directory %s: %w", dir, err)
	}
	sort.Strings(paths)

	defs := make([]domain.ToolDefinition, 0, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading tool definition %s: %w", path, err)
		}
		var def domain.ToolDefinition
		if err := yaml.Unmarshal(data, &def); err != nil {
			return nil, fmt.Errorf("parsing tool definition %s: %w", path, err)
		}
		if def.ID == "" {
			return nil, fmt.Errorf("tool definition %s has no id", path)
		}
		if err := def.Validate(); err != nil {
			return nil, fmt.Errorf("tool definition %s is invalid: %w", path, err)
		}
		defs = append(defs, def)
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].ID < defs[j].ID })
	return defs, nil
}
