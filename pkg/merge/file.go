package merge

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v2"
)

// Extensions lists the accepted file name suffixes.
var Extensions = []string{".yaml", ".yml"}

func accepted(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range Extensions {
		if ext == e {
			return true
		}
	}
	return false
}

// ParseFile reads a fragment from r. name is only used for the extension
// check. All failures wrap ErrUnreadable.
func ParseFile(name string, r io.Reader) (Fragment, error) {
	if !accepted(name) {
		return nil, fmt.Errorf("%w: unsupported file type %q", ErrUnreadable, filepath.Ext(name))
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}
	return Parse(data)
}

// Parse decodes a YAML (or JSON) document into a fragment.
func Parse(data []byte) (Fragment, error) {
	var doc interface{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}
	if doc == nil {
		return Fragment{}, nil
	}
	m, ok := normalize(doc).(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: document is not a mapping", ErrUnreadable)
	}
	return Fragment(m), nil
}

// normalize turns the map[interface{}]interface{} values produced by yaml.v2
// into map[string]any so fragments encode as JSON.
func normalize(v interface{}) interface{} {
	switch t := v.(type) {
	case map[interface{}]interface{}:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[fmt.Sprint(k)] = normalize(val)
		}
		return out
	case []interface{}:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = normalize(val)
		}
		return out
	}
	return v
}
