package domain

import (
	"fmt"
	"strconv"

	"github.com/mitchellh/mapstructure"
)

// ID identifies an instance. IDs are assigned from a monotonically
// increasing counter and never reused.
type ID uint64

func (id ID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}

// ParseID parses the decimal form produced by ID.String.
func ParseID(s string) (ID, error) {
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid instance id %q: %w", s, err)
	}
	return ID(v), nil
}

// InstanceState tracks where an instance is in its lifecycle.
type InstanceState string

const (
	StateConstructing InstanceState = "constructing"
	StateValid        InstanceState = "valid"
	StateInvalid      InstanceState = "invalid"
)

// Instance is a live object of a registered type.
// Values handed out by the engine are snapshots; mutating them has no effect
// on the stored object.
type Instance struct {
	ID      ID             `json:"id"`
	Name    string         `json:"name,omitempty"`
	Type    string         `json:"type"`
	Fields  map[string]any `json:"fields"`
	State   InstanceState  `json:"state"`
	Reason  string         `json:"reason,omitempty"`
	Defined bool           `json:"defined"`
	Version uint64         `json:"version"`

	desc *TypeDescriptor
}

// NewInstance builds an instance of desc in the Constructing state.
// values must already be conformed to desc.
func NewInstance(desc *TypeDescriptor, id ID, name string, values map[string]any) *Instance {
	fields := make(map[string]any, len(values))
	for k, v := range values {
		fields[k] = v
	}
	return &Instance{
		ID:     id,
		Name:   name,
		Type:   desc.Name,
		Fields: fields,
		State:  StateConstructing,
		desc:   desc,
	}
}

// Descriptor returns the type descriptor, or nil for instances decoded from storage.
func (i *Instance) Descriptor() *TypeDescriptor {
	return i.desc
}

// Clone returns a deep copy of the instance.
func (i *Instance) Clone() *Instance {
	c := *i
	c.Fields = make(map[string]any, len(i.Fields))
	for k, v := range i.Fields {
		c.Fields[k] = v
	}
	return &c
}

// Label returns the name if set, otherwise the id.
func (i *Instance) Label() string {
	if i.Name != "" {
		return i.Name
	}
	return i.ID.String()
}

// Valid reports whether the instance passed validation on its current values.
func (i *Instance) Valid() bool {
	return i.State == StateValid
}

// Value returns the raw value of a field.
func (i *Instance) Value(field string) (any, bool) {
	v, ok := i.Fields[field]
	return v, ok
}

// Float returns a float field, or 0 when absent or of another kind.
func (i *Instance) Float(field string) float64 {
	f, _ := i.Fields[field].(float64)
	return f
}

// Int returns an int field, or 0 when absent or of another kind.
func (i *Instance) Int(field string) int64 {
	n, _ := i.Fields[field].(int64)
	return n
}

// Bool returns a bool field, or false when absent or of another kind.
func (i *Instance) Bool(field string) bool {
	b, _ := i.Fields[field].(bool)
	return b
}

// Set assigns a field value, converting it to the field kind.
func (i *Instance) Set(field string, value any) error {
	if i.desc == nil {
		if _, ok := i.Fields[field]; !ok {
			return fmt.Errorf("%w: unknown field %q", ErrFieldMismatch, field)
		}
		i.Fields[field] = value
		return nil
	}
	f, ok := i.desc.Field(field)
	if !ok {
		return fmt.Errorf("%w: type %s has no field %q", ErrFieldMismatch, i.Type, field)
	}
	v, err := f.Kind.Normalize(value)
	if err != nil {
		return fmt.Errorf("%w: field %q: %v", ErrFieldMismatch, field, err)
	}
	i.Fields[field] = v
	return nil
}

// Decode copies the field values into out (a pointer to a struct or map)
// using mapstructure tags.
func (i *Instance) Decode(out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
		TagName:          "mapstructure",
	})
	if err != nil {
		return fmt.Errorf("failed to create decoder: %w", err)
	}
	if err := dec.Decode(i.Fields); err != nil {
		return fmt.Errorf("failed to decode instance %s: %w", i.Label(), err)
	}
	return nil
}
