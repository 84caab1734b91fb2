// Package pathutil traverses dotted paths ("items.0.name") over the plain
// interface{} trees produced by decoding JSON into interface{}: maps become
// map[string]interface{}, sequences become []interface{}, segments that
// parse as a non-negative integer index into a sequence, anything else
// indexes into a map.
package pathutil

import (
	"strconv"
	"strings"

	"github.com/flowcraft/dagengine/internal/domain"
)

// Get navigates value along path, returning the located value and true, or
// nil and false if the path does not resolve. An empty path returns value
// unchanged.
func Get(value interface{}, path string) (interface{}, bool) {
	path = strings.TrimPrefix(path, "$.")
	path = strings.TrimPrefix(path, "$")
	path = strings.TrimPrefix(path, ".")
	if path == "" {
		return value, true
	}

	segments := strings.Split(path, ".")
	current := value
	for _, seg := range segments {
		if seg == "" {
			return nil, false
		}
		next, ok := step(current, seg)
		if !ok {
			return nil, false
		}
		current = next
	}
	return current, true
}

// GetOrError is Get, returning a *domain.PathError describing the first
// segment that failed to resolve.
func GetOrError(value interface{}, path string) (interface{}, error) {
	trimmed := strings.TrimPrefix(strings.TrimPrefix(path, "$."), "$")
	trimmed = strings.TrimPrefix(trimmed, ".")
	if trimmed == "" {
		return value, nil
	}

	segments := strings.Split(trimmed, ".")
	current := value
	for _, seg := range segments {
		next, ok := step(current, seg)
		if !ok {
			return nil, &domain.PathError{Path: path, Segment: seg, Reason: "not found"}
		}
		current = next
	}
	return current, nil
}

func step(current interface{}, seg string) (interface{}, bool) {
	switch c := current.(type) {
	case map[string]interface{}:
		v, ok := c[seg]
		return v, ok
	case []interface{}:
		idx, err := strconv.Atoi(seg)
		if err != nil || idx < 0 || idx >= len(c) {
			return nil, false
		}
		return c[idx], true
	default:
		return nil, false
	}
}
