package utils

import (
	"math"
	"reflect"
	"strconv"
	"strings"
)

// missingTokens are cell texts read as a missing value
var missingTokens = map[string]bool{
	"":     true,
	"na":   true,
	"n/a":  true,
	"nan":  true,
	"null": true,
	"none": true,
	"#n/a": true,
}

// ParseValue converts raw cell text to nil, int, float64, bool or string.
func ParseValue(s string) interface{} {
	// Trim whitespace first
	s = strings.TrimSpace(s)

	if missingTokens[strings.ToLower(s)] {
		return nil
	}
	// try int
	if i, err := strconv.Atoi(s); err == nil {
		return i
	}
	// try float
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	switch strings.ToLower(s) {
	case "true":
		return true
	case "false":
		return false
	}
	return s
}

// CleanHeader trims whitespace and removes all quotes from a column name.
func CleanHeader(h string) string {
	h = strings.TrimSpace(h)
	return strings.ReplaceAll(h, `"`, "")
}

// Numeric converts a cell value to float64. Missing cells yield NaN and
// ok=true; values that are not numbers yield ok=false. Booleans count as 1/0.
func Numeric(v interface{}) (float64, bool) {
	switch val := v.(type) {
	case nil:
		return math.NaN(), true
	case int:
		return float64(val), true
	case int64:
		return float64(val), true
	case float64:
		return val, true
	case float32:
		return float64(val), true
	case bool:
		if val {
			return 1, true
		}
		return 0, true
	default:
		rv := reflect.ValueOf(v)
		if rv.Kind() >= reflect.Int && rv.Kind() <= reflect.Float64 {
			return rv.Convert(reflect.TypeOf(float64(0))).Float(), true
		}
		return 0, false
	}
}
