// Package expander substitutes {{key}} placeholders with values taken from
// the execution data bag.
package expander

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/viant/procflow/runtime/evaluator"
)

const (
	openMarker  = "{{"
	closeMarker = "}}"
)

// Expand walks value and replaces placeholders inside every string. Maps and
// slices are copied; other values are returned as is.
func Expand(value interface{}, data map[string]interface{}) interface{} {
	switch actual := value.(type) {
	case string:
		return ExpandString(actual, data)
	case map[string]interface{}:
		ret := make(map[string]interface{}, len(actual))
		for k, v := range actual {
			ret[k] = Expand(v, data)
		}
		return ret
	case map[string]string:
		ret := make(map[string]string, len(actual))
		for k, v := range actual {
			ret[k] = Text(v, data)
		}
		return ret
	case []interface{}:
		ret := make([]interface{}, len(actual))
		for i, v := range actual {
			ret[i] = Expand(v, data)
		}
		return ret
	case []string:
		ret := make([]string, len(actual))
		for i, v := range actual {
			ret[i] = Text(v, data)
		}
		return ret
	}
	return value
}

// ExpandString expands placeholders in text. When text consists of a single
// placeholder the referenced value is returned with its original type.
func ExpandString(text string, data map[string]interface{}) interface{} {
	if key, ok := singlePlaceholder(text); ok {
		value, found := evaluator.Resolve(data, key)
		if !found {
			return ""
		}
		return value
	}
	return Text(text, data)
}

// Text expands placeholders in text, always returning a string. Missing keys
// expand to an empty string; unterminated placeholders are kept verbatim.
func Text(text string, data map[string]interface{}) string {
	if !strings.Contains(text, openMarker) {
		return text
	}
	builder := strings.Builder{}
	rest := text
	for {
		start := strings.Index(rest, openMarker)
		if start == -1 {
			builder.WriteString(rest)
			break
		}
		end := strings.Index(rest[start+len(openMarker):], closeMarker)
		if end == -1 {
			builder.WriteString(rest)
			break
		}
		builder.WriteString(rest[:start])
		key := strings.TrimSpace(rest[start+len(openMarker) : start+len(openMarker)+end])
		if value, ok := evaluator.Resolve(data, key); ok {
			builder.WriteString(format(value))
		}
		rest = rest[start+len(openMarker)+end+len(closeMarker):]
	}
	return builder.String()
}

// Placeholders returns keys referenced by text
func Placeholders(text string) []string {
	var keys []string
	rest := text
	for {
		start := strings.Index(rest, openMarker)
		if start == -1 {
			return keys
		}
		end := strings.Index(rest[start+len(openMarker):], closeMarker)
		if end == -1 {
			return keys
		}
		keys = append(keys, strings.TrimSpace(rest[start+len(openMarker):start+len(openMarker)+end]))
		rest = rest[start+len(openMarker)+end+len(closeMarker):]
	}
}

func singlePlaceholder(text string) (string, bool) {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, openMarker) || !strings.HasSuffix(trimmed, closeMarker) {
		return "", false
	}
	inner := trimmed[len(openMarker) : len(trimmed)-len(closeMarker)]
	if strings.Contains(inner, openMarker) || strings.Contains(inner, closeMarker) {
		return "", false
	}
	return strings.TrimSpace(inner), true
}

func format(value interface{}) string {
	switch actual := value.(type) {
	case nil:
		return ""
	case string:
		return actual
	case map[string]interface{}, []interface{}:
		if data, err := json.Marshal(actual); err == nil {
			return string(data)
		}
	}
	return fmt.Sprintf("%v", value)
}
