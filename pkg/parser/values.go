// Package parser turns untrusted oracle JSON into sanitized state deltas.
//
// Every function accepts values as produced by encoding/json decoding into
// an interface (map[string]any, []any, float64, string, bool, nil). Malformed
// elements are dropped individually and nothing panics. Keys are read in
// snake_case with a camelCase fallback, since models mix both.
package parser

import (
	"encoding/json"
	"math"
	"strings"
)

func asMap(raw any) (map[string]any, bool) {
	m, ok := raw.(map[string]any)
	return m, ok && m != nil
}

func asSlice(raw any) []any {
	s, _ := raw.([]any)
	return s
}

// field returns the first key present in m.
func field(m map[string]any, keys ...string) (any, bool) {
	for _, k := range keys {
		if v, ok := m[k]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

// str returns a trimmed string field. Non-strings report false.
func str(m map[string]any, keys ...string) (string, bool) {
	v, ok := field(m, keys...)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	if !ok {
		return "", false
	}
	return strings.TrimSpace(s), true
}

// strOr returns a non-empty string field or def.
func strOr(m map[string]any, def string, keys ...string) string {
	if s, ok := str(m, keys...); ok && s != "" {
		return s
	}
	return def
}

// number returns a numeric field. Strings are not coerced.
func number(m map[string]any, keys ...string) (float64, bool) {
	v, ok := field(m, keys...)
	if !ok {
		return 0, false
	}
	return toNumber(v)
}

func toNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return 0, false
		}
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

// MaxInt bounds every integer read from a response. Converting a float64
// outside the int range has no defined result.
const MaxInt = 1_000_000_000

// toInt converts f to an int clamped to [-MaxInt, MaxInt].
func toInt(f float64) int {
	return int(math.Max(-MaxInt, math.Min(MaxInt, f)))
}

// integer rounds a numeric field to the nearest int.
func integer(m map[string]any, keys ...string) (int, bool) {
	f, ok := number(m, keys...)
	if !ok {
		return 0, false
	}
	return toInt(math.Round(f)), true
}

// boolean reads a field that must be a JSON bool.
func boolean(m map[string]any, keys ...string) (bool, bool) {
	v, ok := field(m, keys...)
	if !ok {
		return false, false
	}
	b, ok := v.(bool)
	return b, ok
}

// truthy coerces any value to bool the way a loose client would:
// false, 0, "" and absence are false.
func truthy(m map[string]any, keys ...string) bool {
	v, ok := field(m, keys...)
	if !ok {
		return false
	}
	switch t := v.(type) {
	case bool:
		return t
	case string:
		return t != ""
	default:
		if f, ok := toNumber(t); ok {
			return f != 0
		}
	}
	return true
}

func stringList(raw any) []string {
	var out []string
	for _, v := range asSlice(raw) {
		if s, ok := v.(string); ok && strings.TrimSpace(s) != "" {
			out = append(out, strings.TrimSpace(s))
		}
	}
	return out
}
