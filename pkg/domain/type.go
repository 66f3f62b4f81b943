package domain

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
)

// ConstructHook initialises a freshly allocated instance. It may set field values.
// A returned error marks the instance Invalid; creation itself still succeeds.
type ConstructHook func(ctx context.Context, inst *Instance) error

// ValidateHook decides whether the current field values are acceptable.
// A nil return marks the instance Valid; an error marks it Invalid and
// becomes the instance Reason.
type ValidateHook func(ctx context.Context, inst *Instance) error

// DefineHook runs once, the first time an instance becomes Valid.
type DefineHook func(ctx context.Context, inst *Instance)

// UpdateHook runs when an update scope closes. It cannot veto the update.
type UpdateHook func(ctx context.Context, inst *Instance)

// TypeHooks groups the optional per-type lifecycle callbacks.
type TypeHooks struct {
	Construct ConstructHook
	Validate  ValidateHook
	Define    DefineHook
	Update    UpdateHook
}

// TypeDescriptor is the static metadata for a registered type.
// It must not be modified after registration.
type TypeDescriptor struct {
	Name        string
	Description string
	Fields      []Field
	Hooks       TypeHooks
}

// Check verifies the descriptor is well formed: a name, at least one field,
// unique field names and known kinds.
func (d *TypeDescriptor) Check() error {
	if strings.TrimSpace(d.Name) == "" {
		return fmt.Errorf("type name is required")
	}
	if len(d.Fields) == 0 {
		return fmt.Errorf("type %q: at least one field is required", d.Name)
	}
	seen := make(map[string]bool, len(d.Fields))
	for i, f := range d.Fields {
		if f.Name == "" {
			return fmt.Errorf("type %q: field %d has no name", d.Name, i)
		}
		if seen[f.Name] {
			return fmt.Errorf("type %q: duplicate field %q", d.Name, f.Name)
		}
		seen[f.Name] = true
		if _, err := ParseKind(string(f.Kind)); err != nil {
			return fmt.Errorf("type %q: field %q: %w", d.Name, f.Name, err)
		}
	}
	return nil
}

// Field returns the field with the given name.
func (d *TypeDescriptor) Field(name string) (Field, bool) {
	for _, f := range d.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Conform checks values against the field layout and returns a normalised copy.
// The key set must match the fields exactly and every value must convert to
// the field kind; otherwise the error wraps ErrFieldMismatch.
func (d *TypeDescriptor) Conform(values map[string]any) (map[string]any, error) {
	var problems []string

	out := make(map[string]any, len(d.Fields))
	for _, f := range d.Fields {
		v, ok := values[f.Name]
		if !ok {
			problems = append(problems, fmt.Sprintf("missing field %q", f.Name))
			continue
		}
		nv, err := f.Kind.Normalize(v)
		if err != nil {
			problems = append(problems, fmt.Sprintf("field %q: %v", f.Name, err))
			continue
		}
		out[f.Name] = nv
	}

	var unknown []string
	for k := range values {
		if _, ok := d.Field(k); !ok {
			unknown = append(unknown, k)
		}
	}
	sort.Strings(unknown)
	for _, k := range unknown {
		problems = append(problems, fmt.Sprintf("unknown field %q", k))
	}

	if len(problems) > 0 {
		return nil, fmt.Errorf("%w: type %s: %s", ErrFieldMismatch, d.Name, strings.Join(problems, "; "))
	}
	return out, nil
}

// CheckChanges reports whether assigning set and then adding the deltas in add
// would succeed on an instance of the type. Adapters call it before opening an
// update scope, so a rejected request leaves the instance untouched.
func (d *TypeDescriptor) CheckChanges(set map[string]any, add map[string]float64) error {
	for field, v := range set {
		f, ok := d.Field(field)
		if !ok {
			return fmt.Errorf("%w: type %s has no field %q", ErrFieldMismatch, d.Name, field)
		}
		if _, err := f.Kind.Normalize(v); err != nil {
			return fmt.Errorf("%w: field %q: %v", ErrFieldMismatch, field, err)
		}
	}
	for field, delta := range add {
		f, ok := d.Field(field)
		if !ok {
			return fmt.Errorf("%w: type %s has no field %q", ErrFieldMismatch, d.Name, field)
		}
		if err := f.Kind.CheckDelta(delta); err != nil {
			return fmt.Errorf("%w: field %q: %v", ErrFieldMismatch, field, err)
		}
	}
	return nil
}

// CheckDelta reports whether delta can be added to a value of the kind.
// Int fields only take whole deltas.
func (k FieldKind) CheckDelta(delta float64) error {
	switch k {
	case KindFloat:
		return nil
	case KindInt:
		if delta != math.Trunc(delta) || math.Abs(delta) > maxExactInt {
			return fmt.Errorf("delta %v is not a whole number", delta)
		}
		return nil
	default:
		return fmt.Errorf("%s is not numeric", k)
	}
}

// maxExactInt is the largest integer a float64 holds exactly.
const maxExactInt = 1 << 53
