package filesystem

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"github.com/GriffinCanCode/FileMaster/internal/domain/access"
)

// params wraps the raw arguments of one tool call. Each getter accepts the
// documented key plus the legacy aliases older clients send, and reports
// malformed values as access invalid-argument errors.
type params struct {
	op  string
	raw map[string]any
}

func newParams(op string, raw map[string]any) params {
	if raw == nil {
		raw = map[string]any{}
	}
	return params{op: op, raw: raw}
}

func (p params) lookup(keys ...string) (string, any, bool) {
	for _, k := range keys {
		if v, ok := p.raw[k]; ok && v != nil {
			return k, v, true
		}
	}
	return keys[0], nil, false
}

func (p params) invalid(key, format string, args ...any) error {
	return access.InvalidArgument(p.op, "", key+": "+fmt.Sprintf(format, args...))
}

// asGiven returns the parameter as a string for audit records, whatever its
// type, or "" when absent.
func (p params) asGiven(keys ...string) string {
	_, v, ok := p.lookup(keys...)
	if !ok {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// requiredString returns a non-empty string parameter.
func (p params) requiredString(keys ...string) (string, error) {
	key, v, ok := p.lookup(keys...)
	if !ok {
		return "", p.invalid(key, "parameter required")
	}
	s, ok := v.(string)
	if !ok {
		return "", p.invalid(key, "must be a string")
	}
	if s == "" {
		return "", p.invalid(key, "must not be empty")
	}
	return s, nil
}

// optionalString returns a string parameter; absent means "".
func (p params) optionalString(keys ...string) (string, error) {
	key, v, ok := p.lookup(keys...)
	if !ok {
		return "", nil
	}
	s, ok := v.(string)
	if !ok {
		return "", p.invalid(key, "must be a string")
	}
	return s, nil
}

func (p params) optionalBool(def bool, keys ...string) (bool, error) {
	key, v, ok := p.lookup(keys...)
	if !ok {
		return def, nil
	}
	switch b := v.(type) {
	case bool:
		return b, nil
	case string:
		parsed, err := strconv.ParseBool(b)
		if err != nil {
			return false, p.invalid(key, "must be a boolean")
		}
		return parsed, nil
	default:
		return false, p.invalid(key, "must be a boolean")
	}
}

// optionalInt accepts JSON numbers (float64 or json.Number), Go integers and
// numeric strings. Fractions and negatives are rejected.
func (p params) optionalInt(def int, keys ...string) (int, error) {
	key, v, ok := p.lookup(keys...)
	if !ok {
		return def, nil
	}
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0, p.invalid(key, "must be an integer")
		}
		f = parsed
	case string:
		parsed, err := strconv.Atoi(n)
		if err != nil {
			return 0, p.invalid(key, "must be an integer")
		}
		f = float64(parsed)
	default:
		return 0, p.invalid(key, "must be an integer")
	}
	if f != math.Trunc(f) || f < 0 || f > math.MaxInt32 {
		return 0, p.invalid(key, "must be a non-negative integer")
	}
	return int(f), nil
}

// stringList accepts an array of strings or a single string.
func (p params) stringList(keys ...string) ([]string, error) {
	key, v, ok := p.lookup(keys...)
	if !ok {
		return nil, nil
	}
	switch list := v.(type) {
	case string:
		if list == "" {
			return nil, nil
		}
		return []string{list}, nil
	case []string:
		return list, nil
	case []any:
		out := make([]string, 0, len(list))
		for i, item := range list {
			s, ok := item.(string)
			if !ok {
				return nil, p.invalid(key, "element %d must be a string", i)
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, p.invalid(key, "must be an array of strings")
	}
}
