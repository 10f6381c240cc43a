// Package values coerces loosely typed configuration values.
//
// TOML decodes integers as int64 and arrays as []any, while tests and
// callers of Set pass native Go types. Each function takes the (value, ok)
// pair returned by a store's Get so it can be applied directly:
//
//	n := values.Int(store.Get("ingest.workers"))
package values

import "time"

// String returns v if it is a string.
func String(v any, ok bool) string {
	if s, isStr := v.(string); ok && isStr {
		return s
	}
	return ""
}

// Int accepts int, int64 and whole float64 values.
func Int(v any, ok bool) int {
	if !ok {
		return 0
	}
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		if n == float64(int64(n)) {
			return int(n)
		}
	}
	return 0
}

// Float accepts any numeric value. "weight = 1" decodes as int64, so
// integers are widened.
func Float(v any, ok bool) float64 {
	if !ok {
		return 0
	}
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	}
	return 0
}

// Bool returns v if it is a bool.
func Bool(v any, ok bool) bool {
	b, isBool := v.(bool)
	return ok && isBool && b
}

// Duration accepts a time.Duration or a Go duration string such as "5m".
func Duration(v any, ok bool) time.Duration {
	if !ok {
		return 0
	}
	switch d := v.(type) {
	case time.Duration:
		return d
	case string:
		parsed, err := time.ParseDuration(d)
		if err == nil {
			return parsed
		}
	}
	return 0
}

// StringSlice accepts []string or a TOML array, keeping only its strings.
func StringSlice(v any, ok bool) []string {
	if !ok {
		return nil
	}
	switch s := v.(type) {
	case []string:
		return s
	case []any:
		out := make([]string, 0, len(s))
		for _, item := range s {
			if str, isStr := item.(string); isStr {
				out = append(out, str)
			}
		}
		return out
	}
	return nil
}

// Storable converts v to the form written to disk. Durations become
// strings so they read back through Duration.
func Storable(v any) any {
	if d, ok := v.(time.Duration); ok {
		return d.String()
	}
	return v
}
