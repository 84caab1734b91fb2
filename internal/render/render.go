// Package render expands {{key}} placeholders inside an interface{} tree
// (map/sequence/scalar), resolving each placeholder against a flat
// map[string]interface{} of named values.
//
// A string that is *exactly* one placeholder ("{{count}}") is replaced with
// the resolved value itself, preserving its type (a number stays a number,
// an object stays an object). A string containing a placeholder among other
// text ("id-{{count}}") has the resolved value stringified (JSON-encoded if
// it is not already a scalar) and substituted in place.
package render

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"

	"github.com/flowcraft/dagengine/internal/domain"
	"github.com/flowcraft/dagengine/internal/pathutil"
)

var placeholderPattern = regexp.MustCompile(`\{\{\s*([^{}]+?)\s*\}\}`)
var exactPlaceholderPattern = regexp.MustCompile(`^\{\{\s*([^{}]+?)\s*\}\}$`)

// Options controls rendering behavior.
type Options struct {
	// Strict, when true, turns a missing placeholder key into a
	// *domain.TemplateError instead of leaving the {{key}} placeholder
	// text in place verbatim.
	Strict bool
}

// Render walks value, expanding every {{key}} placeholder found in any
// string against data, and returns the resulting tree.
func Render(value interface{}, data map[string]interface{}, opts Options) (interface{}, error) {
	return renderAt(value, data, opts, "$")
}

func renderAt(value interface{}, data map[string]interface{}, opts Options, path string) (interface{}, error) {
	switch v := value.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(v))
		for key, item := range v {
			rendered, err := renderAt(item, data, opts, path+"."+key)
			if err != nil {
				return nil, err
			}
			out[key] = rendered
		}
		return out, nil
	case []interface{}:
		out := make([]interface{}, len(v))
		for i, item := range v {
			rendered, err := renderAt(item, data, opts, fmt.Sprintf("%s.%d", path, i))
			if err != nil {
				return nil, err
			}
			out[i] = rendered
		}
		return out, nil
	case string:
		return renderString(v, data, opts, path)
	default:
		return value, nil
	}
}

func renderString(s string, data map[string]interface{}, opts Options, path string) (interface{}, error) {
	if m := exactPlaceholderPattern.FindStringSubmatch(s); m != nil {
		val, found := resolve(m[1], data)
		if !found {
			if opts.Strict {
				return nil, &domain.TemplateError{Name: m[1], Path: path}
			}
			return s, nil
		}
		return val, nil
	}

	missing := ""
	result := placeholderPattern.ReplaceAllStringFunc(s, func(match string) string {
		name := placeholderPattern.FindStringSubmatch(match)[1]
		val, found := resolve(name, data)
		if !found {
			if opts.Strict && missing == "" {
				missing = name
			}
			return match
		}
		return stringify(val)
	})
	if missing != "" {
		return nil, &domain.TemplateError{Name: missing, Path: path}
	}
	return result, nil
}

func resolve(name string, data map[string]interface{}) (interface{}, bool) {
	return pathutil.Get(data, name)
}

func stringify(val interface{}) string {
	switch v := val.(type) {
	case string:
		return v
	case nil:
		return ""
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(b)
	}
}
