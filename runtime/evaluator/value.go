package evaluator

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/viant/toolbox"
)

// Resolve looks up a dotted path in data. An exact key match wins over a
// nested walk so that flat keys such as "order.total" stay addressable.
func Resolve(data map[string]interface{}, name string) (interface{}, bool) {
	if data == nil || name == "" {
		return nil, false
	}
	if value, ok := data[name]; ok {
		return value, true
	}
	var current interface{} = data
	for _, segment := range strings.Split(name, ".") {
		next, ok := child(current, segment)
		if !ok {
			return nil, false
		}
		current = next
	}
	return current, true
}

func child(value interface{}, key string) (interface{}, bool) {
	switch actual := value.(type) {
	case map[string]interface{}:
		ret, ok := actual[key]
		return ret, ok
	case map[string]string:
		ret, ok := actual[key]
		return ret, ok
	case []interface{}:
		index, err := strconv.Atoi(key)
		if err != nil || index < 0 || index >= len(actual) {
			return nil, false
		}
		return actual[index], true
	}
	if value == nil {
		return nil, false
	}
	rValue := reflect.ValueOf(value)
	for rValue.Kind() == reflect.Ptr {
		if rValue.IsNil() {
			return nil, false
		}
		rValue = rValue.Elem()
	}
	switch rValue.Kind() {
	case reflect.Map:
		if rValue.Type().Key().Kind() != reflect.String {
			return nil, false
		}
		item := rValue.MapIndex(reflect.ValueOf(key).Convert(rValue.Type().Key()))
		if !item.IsValid() {
			return nil, false
		}
		return item.Interface(), true
	case reflect.Slice, reflect.Array:
		index, err := strconv.Atoi(key)
		if err != nil || index < 0 || index >= rValue.Len() {
			return nil, false
		}
		return rValue.Index(index).Interface(), true
	case reflect.Struct:
		field := rValue.FieldByNameFunc(func(name string) bool { return strings.EqualFold(name, key) })
		if !field.IsValid() || !field.CanInterface() {
			return nil, false
		}
		return field.Interface(), true
	}
	return nil, false
}

// Truthy reports whether value counts as true: nil, false, zero numbers,
// empty strings and empty collections are false.
func Truthy(value interface{}) bool {
	switch actual := value.(type) {
	case nil:
		return false
	case bool:
		return actual
	case string:
		return actual != "" && !strings.EqualFold(actual, "false")
	}
	if isNumber(value) {
		return toolbox.AsFloat(value) != 0
	}
	rValue := reflect.ValueOf(value)
	switch rValue.Kind() {
	case reflect.Map, reflect.Slice, reflect.Array:
		return rValue.Len() > 0
	case reflect.Ptr, reflect.Interface:
		return !rValue.IsNil()
	}
	return true
}

// Equal compares values numerically when both are numeric, otherwise by
// their string form; nil equals only nil.
func Equal(left, right interface{}) bool {
	if left == nil || right == nil {
		return left == nil && right == nil
	}
	if lBool, ok := left.(bool); ok {
		if rBool, ok := right.(bool); ok {
			return lBool == rBool
		}
	}
	if numeric(left) && numeric(right) {
		return toolbox.AsFloat(left) == toolbox.AsFloat(right)
	}
	return asString(left) == asString(right)
}

// Compare orders two values, returning false when they are not comparable.
func Compare(left, right interface{}) (int, bool) {
	if left == nil || right == nil {
		return 0, false
	}
	if numeric(left) && numeric(right) {
		l, r := toolbox.AsFloat(left), toolbox.AsFloat(right)
		switch {
		case l < r:
			return -1, true
		case l > r:
			return 1, true
		}
		return 0, true
	}
	_, lString := left.(string)
	_, rString := right.(string)
	if !lString || !rString {
		return 0, false
	}
	return strings.Compare(left.(string), right.(string)), true
}

// Contains tests substring membership for strings and element membership for
// slices and map keys.
func Contains(container, item interface{}) bool {
	switch actual := container.(type) {
	case nil:
		return false
	case string:
		return strings.Contains(actual, asString(item))
	case []string:
		for _, candidate := range actual {
			if Equal(candidate, item) {
				return true
			}
		}
		return false
	case []interface{}:
		for _, candidate := range actual {
			if Equal(candidate, item) {
				return true
			}
		}
		return false
	case map[string]interface{}:
		_, ok := actual[asString(item)]
		return ok
	}
	rValue := reflect.ValueOf(container)
	if rValue.Kind() == reflect.Slice || rValue.Kind() == reflect.Array {
		for i := 0; i < rValue.Len(); i++ {
			if Equal(rValue.Index(i).Interface(), item) {
				return true
			}
		}
	}
	return false
}

func isNumber(value interface{}) bool {
	switch value.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return true
	}
	return false
}

// numeric reports whether value is a number or a numeric string
func numeric(value interface{}) bool {
	if isNumber(value) {
		return true
	}
	if text, ok := value.(string); ok {
		if strings.TrimSpace(text) == "" {
			return false
		}
		return toolbox.CanConvertToFloat(text)
	}
	return false
}

func asString(value interface{}) string {
	switch actual := value.(type) {
	case string:
		return actual
	case fmt.Stringer:
		return actual.String()
	}
	if isNumber(value) {
		return strconv.FormatFloat(toolbox.AsFloat(value), 'f', -1, 64)
	}
	return toolbox.AsString(value)
}
