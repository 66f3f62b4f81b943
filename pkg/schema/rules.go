package schema

import (
	"fmt"
	"strconv"
	"strings"
)

// Rule is a constraint on a single field value.
type Rule interface {
	// Name returns a short human-readable form (e.g. "min 0").
	Name() string
	// Validate checks if a value satisfies the rule.
	Validate(value any) error
}

// MinRule requires a numeric value >= Bound.
type MinRule struct{ Bound float64 }

func (r *MinRule) Name() string { return "min " + formatNumber(r.Bound) }

func (r *MinRule) Validate(value any) error {
	n, ok := toFloat(value)
	if !ok {
		return fmt.Errorf("expected number, got %T", value)
	}
	if n < r.Bound {
		return fmt.Errorf("must be >= %s", formatNumber(r.Bound))
	}
	return nil
}

// MaxRule requires a numeric value <= Bound.
type MaxRule struct{ Bound float64 }

func (r *MaxRule) Name() string { return "max " + formatNumber(r.Bound) }

func (r *MaxRule) Validate(value any) error {
	n, ok := toFloat(value)
	if !ok {
		return fmt.Errorf("expected number, got %T", value)
	}
	if n > r.Bound {
		return fmt.Errorf("must be <= %s", formatNumber(r.Bound))
	}
	return nil
}

// RequiredRule rejects empty strings.
type RequiredRule struct{}

func (r *RequiredRule) Name() string { return "required" }

func (r *RequiredRule) Validate(value any) error {
	s, ok := value.(string)
	if !ok {
		return fmt.Errorf("expected string, got %T", value)
	}
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("required")
	}
	return nil
}

// OneOfRule restricts a string to a fixed set of values.
type OneOfRule struct{ Values []string }

func (r *OneOfRule) Name() string { return "one of " + strings.Join(r.Values, ", ") }

func (r *OneOfRule) Validate(value any) error {
	s, ok := value.(string)
	if !ok {
		return fmt.Errorf("expected string, got %T", value)
	}
	for _, v := range r.Values {
		if s == v {
			return nil
		}
	}
	return fmt.Errorf("must be one of [%s]", strings.Join(r.Values, ", "))
}

// CustomRule applies a user-defined validation function.
type CustomRule struct {
	name     string
	validate func(any) error
}

func (r *CustomRule) Name() string { return r.name }

func (r *CustomRule) Validate(value any) error {
	return r.validate(value)
}

// --- Factory Functions ---

// Min creates a lower bound rule.
func Min(bound float64) Rule { return &MinRule{Bound: bound} }

// Max creates an upper bound rule.
func Max(bound float64) Rule { return &MaxRule{Bound: bound} }

// Required creates a non-empty string rule.
func Required() Rule { return &RequiredRule{} }

// OneOf creates a string enumeration rule.
func OneOf(values ...string) Rule { return &OneOfRule{Values: values} }

// Custom creates a rule with a user-defined function.
func Custom(name string, validate func(any) error) Rule {
	return &CustomRule{name: name, validate: validate}
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	default:
		return 0, false
	}
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
