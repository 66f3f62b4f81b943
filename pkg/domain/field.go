package domain

import (
	"encoding/json"
	"fmt"
	"math"
)

// FieldKind is the semantic type of a field.
type FieldKind string

const (
	KindFloat  FieldKind = "float"
	KindInt    FieldKind = "int"
	KindString FieldKind = "string"
	KindBool   FieldKind = "bool"
)

// Field is a single named slot of a type.
type Field struct {
	Name string    `json:"name" yaml:"name" mapstructure:"name"`
	Kind FieldKind `json:"type" yaml:"type" mapstructure:"type"`
}

// ParseKind converts a type name ("float", "int", "string", "bool") to a FieldKind.
func ParseKind(s string) (FieldKind, error) {
	switch FieldKind(s) {
	case KindFloat, KindInt, KindString, KindBool:
		return FieldKind(s), nil
	case "double", "number":
		return KindFloat, nil
	case "integer":
		return KindInt, nil
	case "boolean":
		return KindBool, nil
	default:
		return "", fmt.Errorf("unsupported field type: %q", s)
	}
}

// Zero returns the zero value stored for the kind.
func (k FieldKind) Zero() any {
	switch k {
	case KindFloat:
		return float64(0)
	case KindInt:
		return int64(0)
	case KindString:
		return ""
	case KindBool:
		return false
	default:
		return nil
	}
}

// Normalize converts value to the canonical Go representation of the kind.
// Float fields are stored as float64 and int fields as int64, so callers may
// pass any numeric type (including json.Number and whole floats for ints).
func (k FieldKind) Normalize(value any) (any, error) {
	switch k {
	case KindFloat:
		switch v := value.(type) {
		case float64:
			return v, nil
		case float32:
			return float64(v), nil
		case int:
			return float64(v), nil
		case int8:
			return float64(v), nil
		case int16:
			return float64(v), nil
		case int32:
			return float64(v), nil
		case int64:
			return float64(v), nil
		case uint:
			return float64(v), nil
		case uint8:
			return float64(v), nil
		case uint16:
			return float64(v), nil
		case uint32:
			return float64(v), nil
		case uint64:
			return float64(v), nil
		case json.Number:
			f, err := v.Float64()
			if err != nil {
				return nil, fmt.Errorf("expected float, got %q", v.String())
			}
			return f, nil
		}
		return nil, fmt.Errorf("expected float, got %T", value)

	case KindInt:
		switch v := value.(type) {
		case int:
			return int64(v), nil
		case int8:
			return int64(v), nil
		case int16:
			return int64(v), nil
		case int32:
			return int64(v), nil
		case int64:
			return v, nil
		case uint8:
			return int64(v), nil
		case uint16:
			return int64(v), nil
		case uint32:
			return int64(v), nil
		case uint:
			if uint64(v) > math.MaxInt64 {
				return nil, fmt.Errorf("int overflow: %d", v)
			}
			return int64(v), nil
		case uint64:
			if v > math.MaxInt64 {
				return nil, fmt.Errorf("int overflow: %d", v)
			}
			return int64(v), nil
		case float64:
			// Whole floats come from JSON/YAML decoding.
			if v != math.Trunc(v) || math.IsInf(v, 0) {
				return nil, fmt.Errorf("expected int, got float (not a whole number)")
			}
			return int64(v), nil
		case float32:
			f := float64(v)
			if f != math.Trunc(f) || math.IsInf(f, 0) {
				return nil, fmt.Errorf("expected int, got float (not a whole number)")
			}
			return int64(f), nil
		case json.Number:
			i, err := v.Int64()
			if err != nil {
				return nil, fmt.Errorf("expected int, got %q", v.String())
			}
			return i, nil
		}
		return nil, fmt.Errorf("expected int, got %T", value)

	case KindString:
		s, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("expected string, got %T", value)
		}
		return s, nil

	case KindBool:
		b, ok := value.(bool)
		if !ok {
			return nil, fmt.Errorf("expected bool, got %T", value)
		}
		return b, nil
	}
	return nil, fmt.Errorf("unsupported field type: %q", k)
}
