// Safe type conversion helpers for values coming back from the graph store.

package driver

import (
	"fmt"
	"time"
)

// TypeConversionError represents an error during type conversion from
// database values.
type TypeConversionError struct {
	Expected string
	Actual   string
	Field    string
}

func (e *TypeConversionError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("type conversion error for field %q: expected %s, got %s", e.Field, e.Expected, e.Actual)
	}
	return fmt.Sprintf("type conversion error: expected %s, got %s", e.Expected, e.Actual)
}

// AsString safely converts an interface{} to string.
// Returns the string and true if successful, empty string and false otherwise.
func AsString(v any) (string, bool) {
	if v == nil {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// AsInt64 safely converts an interface{} to int64.
// Returns the int64 and true if successful, 0 and false otherwise.
func AsInt64(v any) (int64, bool) {
	switch val := v.(type) {
	case int64:
		return val, true
	case int:
		return int64(val), true
	case float64:
		return int64(val), true
	default:
		return 0, false
	}
}

// AsInt safely converts an interface{} to int through AsInt64.
func AsInt(v any) (int, bool) {
	i, ok := AsInt64(v)
	return int(i), ok
}

// AsFloat64 safely converts an interface{} to float64.
func AsFloat64(v any) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case int64:
		return float64(val), true
	case int:
		return float64(val), true
	default:
		return 0, false
	}
}

// AsBool safely converts an interface{} to bool.
func AsBool(v any) (bool, bool) {
	if v == nil {
		return false, false
	}
	b, ok := v.(bool)
	return b, ok
}

// AsTime safely converts an interface{} to time.Time. RFC 3339 strings are
// accepted because some store configurations return temporal properties as
// strings.
func AsTime(v any) (time.Time, bool) {
	switch val := v.(type) {
	case time.Time:
		return val, true
	case string:
		t, err := time.Parse(time.RFC3339, val)
		if err != nil {
			return time.Time{}, false
		}
		return t, true
	default:
		return time.Time{}, false
	}
}

// AsStringSlice safely converts an interface{} to []string, accepting both
// []string and []any with string elements.
func AsStringSlice(v any) ([]string, bool) {
	switch val := v.(type) {
	case []string:
		return val, true
	case []any:
		out := make([]string, 0, len(val))
		for _, item := range val {
			s, ok := item.(string)
			if !ok {
				return nil, false
			}
			out = append(out, s)
		}
		return out, true
	default:
		return nil, false
	}
}

// AsMap safely converts an interface{} to map[string]any.
func AsMap(v any) (map[string]any, bool) {
	if v == nil {
		return nil, false
	}
	m, ok := v.(map[string]any)
	return m, ok
}
