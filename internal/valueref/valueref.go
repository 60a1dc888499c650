// Package valueref implements the `$name` value-reference mini-language
// that glues extractor stages to assertion stages via a run's
// stage.Context.Values map.
package valueref

import (
	"strconv"
	"strings"

	uperrors "github.com/alexisbeaulieu97/uptimer/pkg/errors"
)

// IsRef reports whether raw is a `$name` reference rather than a literal.
func IsRef(raw string) bool {
	return strings.HasPrefix(raw, "$") && len(raw) > 1
}

// Name strips the leading `$` from a reference.
func Name(raw string) string {
	return strings.TrimPrefix(raw, "$")
}

// Resolve looks up raw in values if it is a `$name` reference, otherwise
// returns raw unchanged as a literal. A missing name is reported via
// uperrors.UnresolvedValueError.
func Resolve(raw string, values map[string]any) (any, error) {
	if !IsRef(raw) {
		return raw, nil
	}
	name := Name(raw)
	v, ok := values[name]
	if !ok {
		return nil, uperrors.NewUnresolvedValueError(name)
	}
	return v, nil
}

// ResolveNumber resolves raw (literal or `$ref`) and coerces the result to
// a float64, the numeric type every assertion stage that compares numbers
// operates on.
func ResolveNumber(raw string, values map[string]any) (float64, error) {
	v, err := Resolve(raw, values)
	if err != nil {
		return 0, err
	}
	return toFloat(v)
}

// ResolveString resolves raw and coerces the result to a string.
func ResolveString(raw string, values map[string]any) (string, error) {
	v, err := Resolve(raw, values)
	if err != nil {
		return "", err
	}
	return toString(v), nil
}

func toFloat(v any) (float64, error) {
	switch t := v.(type) {
	case float64:
		return t, nil
	case float32:
		return float64(t), nil
	case int:
		return float64(t), nil
	case int64:
		return float64(t), nil
	case string:
		return strconv.ParseFloat(strings.TrimSpace(t), 64)
	default:
		return strconv.ParseFloat(toString(v), 64)
	}
}

func toString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case bool:
		return strconv.FormatBool(t)
	default:
		return ""
	}
}
