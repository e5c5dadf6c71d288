package feed

import (
	"math"
	"strconv"
	"strings"
)

// Field is one loosely-typed slot of a positional record. The feed mixes
// numbers, numeric strings, booleans and nulls in the same column.
type Field struct {
	value any
}

// NewField wraps a decoded JSON value
func NewField(v any) Field {
	return Field{value: v}
}

// Float64 returns the value as a float64 and whether it parsed
func (f Field) Float64() (float64, bool) {
	switch v := f.value.(type) {
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, false
		}
		return v, true
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return 0, false
		}
		n, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
			return 0, false
		}
		return n, true
	case bool:
		if v {
			return 1, true
		}
		return 0, true
	default:
		return 0, false
	}
}

// Int returns the value truncated to an int, 0 when missing or unparseable
func (f Field) Int() int {
	n, ok := f.Float64()
	if !ok {
		return 0
	}
	return int(n)
}

// IntOK is Int plus whether a value was actually present
func (f Field) IntOK() (int, bool) {
	n, ok := f.Float64()
	if !ok {
		return 0, false
	}
	return int(n), true
}

// String returns the value as a trimmed string
func (f Field) String() string {
	switch v := f.value.(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return ""
	}
}

// Bool treats 1, true, "1" and "true" as set
func (f Field) Bool() bool {
	switch v := f.value.(type) {
	case bool:
		return v
	case float64:
		return v == 1
	case string:
		s := strings.ToLower(strings.TrimSpace(v))
		return s == "1" || s == "true"
	default:
		return false
	}
}
