package criteria

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Accepted date layouts, tried in order. Empty string is handled separately
// (collapses to NULL semantics on date columns).
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02",
	"2006-01-02 15:04:05",
	"01/02/2006",
	"2006/01/02",
}

// coerceScalar converts a raw criteria value to the column's native type.
// Returns ok=false when the value cannot be coerced; the caller drops the
// condition in that case.
func coerceScalar(col Column, v interface{}) (interface{}, bool) {
	if v == nil {
		return nil, false
	}
	switch col.Kind {
	case KindString, KindArray:
		s, ok := v.(string)
		if !ok {
			return fmt.Sprintf("%v", v), true
		}
		return s, true
	case KindInt:
		return coerceInt(v)
	case KindFloat:
		return coerceFloat(v)
	case KindBool:
		return coerceBool(v)
	case KindDate:
		return coerceDate(v)
	case KindUUID:
		return coerceUUID(v)
	case KindEnum:
		return coerceEnum(col, v)
	}
	return nil, false
}

func coerceInt(v interface{}) (interface{}, bool) {
	switch x := v.(type) {
	case int:
		return x, true
	case int64:
		return int(x), true
	case float64:
		return int(x), true
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(x))
		if err != nil {
			return nil, false
		}
		return n, true
	}
	return nil, false
}

func coerceFloat(v interface{}) (interface{}, bool) {
	switch x := v.(type) {
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case float64:
		return x, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return nil, false
		}
		return f, true
	}
	return nil, false
}

func coerceBool(v interface{}) (interface{}, bool) {
	switch x := v.(type) {
	case bool:
		return x, true
	case string:
		switch strings.ToLower(strings.TrimSpace(x)) {
		case "true", "1", "yes":
			return true, true
		case "false", "0", "no":
			return false, true
		}
	case float64:
		return x != 0, true
	}
	return nil, false
}

func coerceDate(v interface{}) (interface{}, bool) {
	switch x := v.(type) {
	case time.Time:
		return x, true
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			// Empty string collapses to NULL semantics; handled by caller.
			return nil, true
		}
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t, true
			}
		}
	}
	return nil, false
}

func coerceUUID(v interface{}) (interface{}, bool) {
	switch x := v.(type) {
	case uuid.UUID:
		return x, true
	case string:
		id, err := uuid.Parse(strings.TrimSpace(x))
		if err != nil {
			return nil, false
		}
		return id, true
	}
	return nil, false
}

func coerceEnum(col Column, v interface{}) (interface{}, bool) {
	switch x := v.(type) {
	case int:
		return x, true
	case int64:
		return int(x), true
	case float64:
		return int(x), true
	case string:
		if n, ok := col.Enum[strings.ToLower(strings.TrimSpace(x))]; ok {
			return n, true
		}
		// Numeric strings are accepted too.
		if n, err := strconv.Atoi(strings.TrimSpace(x)); err == nil {
			return n, true
		}
	}
	return nil, false
}

// coerceList applies coerceScalar to every member of an IN/NOT_IN value.
// Members that fail coercion are skipped; an empty result drops the
// condition.
func coerceList(col Column, v interface{}) ([]interface{}, bool) {
	var raw []interface{}
	switch x := v.(type) {
	case []interface{}:
		raw = x
	case []string:
		for _, s := range x {
			raw = append(raw, s)
		}
	default:
		raw = []interface{}{v}
	}
	var out []interface{}
	for _, item := range raw {
		coerced, ok := coerceScalar(col, item)
		if !ok || coerced == nil {
			continue
		}
		out = append(out, coerced)
	}
	return out, len(out) > 0
}
