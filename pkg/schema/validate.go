package schema

import (
	"context"
	"sort"

	"github.com/aretw0/hangar/pkg/domain"
)

// Schema maps field names to the rules their values must satisfy.
// Example: {"altitude": {Min(0)}, "status": {OneOf("idle", "flying")}}
type Schema map[string][]Rule

// Validate checks data against the schema. Fields are checked in name order
// and every failure is reported. Fields absent from data are skipped; the
// field layout itself is enforced by the type descriptor.
func Validate(schema Schema, data map[string]any) error {
	if len(schema) == 0 {
		return nil
	}

	keys := make([]string, 0, len(schema))
	for k := range schema {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var errs []error
	for _, key := range keys {
		value, ok := data[key]
		if !ok {
			continue
		}
		for _, rule := range schema[key] {
			if err := rule.Validate(value); err != nil {
				errs = append(errs, &ValidationError{
					Key:    key,
					Reason: err.Error(),
					Value:  value,
				})
			}
		}
	}

	if len(errs) > 0 {
		return &AggregateError{Errors: errs}
	}
	return nil
}

// Hook returns a validate hook that checks the instance fields against schema.
func Hook(schema Schema) domain.ValidateHook {
	return func(_ context.Context, inst *domain.Instance) error {
		return Validate(schema, inst.Fields)
	}
}

// Chain runs the hooks in order and stops at the first failure. Nil hooks
// are skipped.
func Chain(hooks ...domain.ValidateHook) domain.ValidateHook {
	return func(ctx context.Context, inst *domain.Instance) error {
		for _, h := range hooks {
			if h == nil {
				continue
			}
			if err := h(ctx, inst); err != nil {
				return err
			}
		}
		return nil
	}
}
