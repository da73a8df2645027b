package criteria

import (
	"strings"

	"github.com/viant/procflow/service/dao"
)

// Match returns true when every parameter matches the field value returned by
// fields. Unknown parameter names are ignored; names compare case-insensitively.
func Match(fields map[string]string, parameters []*dao.Parameter) bool {
	for _, parameter := range parameters {
		if parameter == nil {
			continue
		}
		actual, ok := lookup(fields, parameter.Name)
		if !ok {
			continue
		}
		values := parameter.Values()
		if len(values) == 0 {
			continue
		}
		matched := false
		for _, value := range values {
			if value == actual {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	return true
}

func lookup(fields map[string]string, name string) (string, bool) {
	if value, ok := fields[name]; ok {
		return value, true
	}
	for key, value := range fields {
		if strings.EqualFold(key, name) {
			return value, true
		}
	}
	return "", false
}
