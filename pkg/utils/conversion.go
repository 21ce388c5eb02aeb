package utils

import (
	"strconv"
	"strings"
)

// ToFloat safely converts numeric-ish values to float64.
// Handles float64, float32, int, int64, and numeric strings.
func ToFloat(val any) (float64, bool) {
	if val == nil {
		return 0, false
	}

	switch v := val.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case []byte:
		return parseFloatString(string(v))
	case string:
		return parseFloatString(v)
	default:
		return 0, false
	}
}

// parseFloatString parses a float from its string representation
func parseFloatString(s string) (float64, bool) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// IsEmptyValue reports whether a raw cell input means "clear the field".
// nil and the empty (or whitespace-only) string both clear.
func IsEmptyValue(val any) bool {
	if val == nil {
		return true
	}
	if s, ok := val.(string); ok {
		return strings.TrimSpace(s) == ""
	}
	return false
}
