package fieldmark

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// Values flow through the engine as plain dynamic Go values: nil, bool,
// float64, string, []interface{} and map[string]interface{} (the shapes
// produced by decoding a JSON payload), plus StyledValue from styling
// formatters.

// TextStyle carries run-level formatting flags accumulated by styling
// formatters.
type TextStyle struct {
	Bold      bool
	Italic    bool
	Underline bool
	Size      int    // half-point units are derived at emission
	Color     string // 6-hex, no leading #
}

// StyledValue pairs a value with formatting flags. Non-styling formatters
// applied after a styling formatter operate on the underlying value and
// keep the style.
type StyledValue struct {
	Value interface{}
	Style TextStyle
}

// Unwrap returns the underlying value beneath any styling wrapper.
func Unwrap(v interface{}) interface{} {
	if sv, ok := v.(StyledValue); ok {
		return sv.Value
	}
	return v
}

// IsTruthy implements the engine truthiness rule: nil, false, zero,
// empty string and empty list are falsy; everything else is truthy.
func IsTruthy(v interface{}) bool {
	switch val := Unwrap(v).(type) {
	case nil:
		return false
	case bool:
		return val
	case string:
		return val != ""
	case []interface{}:
		return len(val) > 0
	default:
		n, isNum := numericValue(val)
		if isNum {
			return n != 0
		}
		return true
	}
}

// numericValue reports the float64 form of a native numeric type.
func numericValue(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	}
	return 0, false
}

// ToNumber coerces a value to float64 deterministically: numbers pass
// through, booleans become 0/1, strings parse as decimal (else NaN),
// nil becomes 0, lists and records become NaN.
func ToNumber(v interface{}) float64 {
	v = Unwrap(v)
	if n, ok := numericValue(v); ok {
		return n
	}
	switch val := v.(type) {
	case nil:
		return 0
	case bool:
		if val {
			return 1
		}
		return 0
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil {
			return math.NaN()
		}
		return f
	default:
		return math.NaN()
	}
}

// Stringify renders a value for emission. Floats use their minimal
// decimal form; NaN and infinities take their conventional spellings;
// nil is the empty string.
func Stringify(v interface{}) string {
	v = Unwrap(v)
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case bool:
		if val {
			return "true"
		}
		return "false"
	case []interface{}:
		parts := make([]string, len(val))
		for i, e := range val {
			parts[i] = Stringify(e)
		}
		return strings.Join(parts, ", ")
	case map[string]interface{}:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = k + ": " + Stringify(val[k])
		}
		return "{" + strings.Join(parts, ", ") + "}"
	default:
		if n, ok := numericValue(v); ok {
			return FormatNumber(n)
		}
		return fmt.Sprintf("%v", v)
	}
}

// FormatNumber renders a float using its minimal decimal form.
func FormatNumber(f float64) string {
	if math.IsNaN(f) {
		return "NaN"
	}
	if math.IsInf(f, 1) {
		return "Infinity"
	}
	if math.IsInf(f, -1) {
		return "-Infinity"
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// EscapeXML escapes the five XML special characters for text emission.
func EscapeXML(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch r {
		case '&':
			b.WriteString("&amp;")
		case '<':
			b.WriteString("&lt;")
		case '>':
			b.WriteString("&gt;")
		case '"':
			b.WriteString("&quot;")
		case '\'':
			b.WriteString("&apos;")
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
