package dsl

import (
	"github.com/aretw0/hangar/pkg/domain"
	"github.com/aretw0/hangar/pkg/schema"
)

// TypeBuilder provides a fluent API for configuring a type.
type TypeBuilder struct {
	desc  domain.TypeDescriptor
	rules schema.Schema
}

func newTypeBuilder(name string) *TypeBuilder {
	return &TypeBuilder{
		desc:  domain.TypeDescriptor{Name: name},
		rules: make(schema.Schema),
	}
}

// Describe sets the human readable description.
func (t *TypeBuilder) Describe(text string) *TypeBuilder {
	t.desc.Description = text
	return t
}

// Field adds a field of the given kind with optional constraint rules.
func (t *TypeBuilder) Field(name string, kind domain.FieldKind, rules ...schema.Rule) *TypeBuilder {
	t.desc.Fields = append(t.desc.Fields, domain.Field{Name: name, Kind: kind})
	if len(rules) > 0 {
		t.rules[name] = append(t.rules[name], rules...)
	}
	return t
}

// Float adds a float field.
func (t *TypeBuilder) Float(name string, rules ...schema.Rule) *TypeBuilder {
	return t.Field(name, domain.KindFloat, rules...)
}

// Int adds an int field.
func (t *TypeBuilder) Int(name string, rules ...schema.Rule) *TypeBuilder {
	return t.Field(name, domain.KindInt, rules...)
}

// String adds a string field.
func (t *TypeBuilder) String(name string, rules ...schema.Rule) *TypeBuilder {
	return t.Field(name, domain.KindString, rules...)
}

// Bool adds a bool field.
func (t *TypeBuilder) Bool(name string, rules ...schema.Rule) *TypeBuilder {
	return t.Field(name, domain.KindBool, rules...)
}

// Construct sets the construct hook.
func (t *TypeBuilder) Construct(hook domain.ConstructHook) *TypeBuilder {
	t.desc.Hooks.Construct = hook
	return t
}

// Validate sets a custom validate hook. It runs after the field rules pass.
func (t *TypeBuilder) Validate(hook domain.ValidateHook) *TypeBuilder {
	t.desc.Hooks.Validate = hook
	return t
}

// OnDefine sets the define hook.
func (t *TypeBuilder) OnDefine(hook domain.DefineHook) *TypeBuilder {
	t.desc.Hooks.Define = hook
	return t
}

// OnUpdate sets the update hook.
func (t *TypeBuilder) OnUpdate(hook domain.UpdateHook) *TypeBuilder {
	t.desc.Hooks.Update = hook
	return t
}

// Build returns a checked copy of the descriptor. Field rules and the custom
// validate hook are combined into a single validate hook.
func (t *TypeBuilder) Build() (*domain.TypeDescriptor, error) {
	desc := t.desc
	desc.Fields = append([]domain.Field(nil), t.desc.Fields...)
	if err := desc.Check(); err != nil {
		return nil, err
	}
	if len(t.rules) > 0 {
		desc.Hooks.Validate = schema.Chain(schema.Hook(t.rules), t.desc.Hooks.Validate)
	}
	return &desc, nil
}
