package schema

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aretw0/hangar/pkg/domain"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// Document is a declarative description of types, the instances to create
// and the field deltas to apply on every drive tick.
type Document struct {
	Types     []TypeSpec     `yaml:"types" json:"types" mapstructure:"types"`
	Instances []InstanceSpec `yaml:"instances,omitempty" json:"instances,omitempty" mapstructure:"instances"`
	Drive     []DriveSpec    `yaml:"drive,omitempty" json:"drive,omitempty" mapstructure:"drive"`
}

// TypeSpec declares a type.
type TypeSpec struct {
	Name        string      `yaml:"name" json:"name" mapstructure:"name"`
	Description string      `yaml:"description,omitempty" json:"description,omitempty" mapstructure:"description"`
	Fields      []FieldSpec `yaml:"fields" json:"fields" mapstructure:"fields"`
}

// FieldSpec declares a field and its constraints.
type FieldSpec struct {
	Name     string   `yaml:"name" json:"name" mapstructure:"name"`
	Type     string   `yaml:"type" json:"type" mapstructure:"type"`
	Min      *float64 `yaml:"min,omitempty" json:"min,omitempty" mapstructure:"min"`
	Max      *float64 `yaml:"max,omitempty" json:"max,omitempty" mapstructure:"max"`
	Required bool     `yaml:"required,omitempty" json:"required,omitempty" mapstructure:"required"`
	OneOf    []string `yaml:"one_of,omitempty" json:"one_of,omitempty" mapstructure:"one_of"`
}

// InstanceSpec declares an instance created when the document is applied.
type InstanceSpec struct {
	Type   string         `yaml:"type" json:"type" mapstructure:"type"`
	Name   string         `yaml:"name,omitempty" json:"name,omitempty" mapstructure:"name"`
	Values map[string]any `yaml:"values" json:"values" mapstructure:"values"`
}

// DriveSpec adds Delta to a numeric field of a named instance on every tick.
type DriveSpec struct {
	Instance string  `yaml:"instance" json:"instance" mapstructure:"instance"`
	Field    string  `yaml:"field" json:"field" mapstructure:"field"`
	Delta    float64 `yaml:"delta" json:"delta" mapstructure:"delta"`
}

// Format selects the document encoding.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// FormatFromPath infers the format from the file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unsupported schema extension %q (want .yaml, .yml or .json)", filepath.Ext(path))
	}
}

// Load reads, parses and checks a document file.
func Load(path string) (*Document, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema: %w", err)
	}
	doc, err := Parse(data, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if err := doc.Check(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

// Parse decodes a document. Unknown keys are rejected.
func Parse(data []byte, format Format) (*Document, error) {
	var raw map[string]any
	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("failed to parse yaml: %w", err)
		}
	case FormatJSON:
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("failed to parse json: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported format %q", format)
	}

	var doc Document
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:      &doc,
		ErrorUnused: true,
		TagName:     "mapstructure",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create decoder: %w", err)
	}
	if err := dec.Decode(raw); err != nil {
		return nil, fmt.Errorf("invalid document: %w", err)
	}
	return &doc, nil
}

// Rules returns the constraint rules declared on the type's fields.
func (t TypeSpec) Rules() Schema {
	s := make(Schema)
	for _, f := range t.Fields {
		var rules []Rule
		if f.Min != nil {
			rules = append(rules, Min(*f.Min))
		}
		if f.Max != nil {
			rules = append(rules, Max(*f.Max))
		}
		if f.Required {
			rules = append(rules, Required())
		}
		if len(f.OneOf) > 0 {
			rules = append(rules, OneOf(f.OneOf...))
		}
		if len(rules) > 0 {
			s[f.Name] = rules
		}
	}
	return s
}

// Descriptor compiles the type. Constraints become the validate hook.
func (t TypeSpec) Descriptor() (*domain.TypeDescriptor, error) {
	desc := &domain.TypeDescriptor{
		Name:        t.Name,
		Description: t.Description,
	}
	for _, f := range t.Fields {
		kind, err := domain.ParseKind(f.Type)
		if err != nil {
			return nil, fmt.Errorf("type %q: field %q: %w", t.Name, f.Name, err)
		}
		desc.Fields = append(desc.Fields, domain.Field{Name: f.Name, Kind: kind})
	}
	if err := desc.Check(); err != nil {
		return nil, err
	}
	if rules := t.Rules(); len(rules) > 0 {
		desc.Hooks.Validate = Hook(rules)
	}
	return desc, nil
}

// Descriptors compiles every declared type, in document order.
func (d *Document) Descriptors() ([]*domain.TypeDescriptor, error) {
	out := make([]*domain.TypeDescriptor, 0, len(d.Types))
	for _, t := range d.Types {
		desc, err := t.Descriptor()
		if err != nil {
			return nil, err
		}
		out = append(out, desc)
	}
	return out, nil
}

// Check reports every structural problem in the document: malformed types,
// constraints on the wrong kind of field, instances whose values do not
// match their type, and drive rules pointing at unknown instances or
// non-numeric fields.
func (d *Document) Check() error {
	var errs []error
	add := func(key, reason string, value any) {
		errs = append(errs, &ValidationError{Key: key, Reason: reason, Value: value})
	}

	descs := make(map[string]*domain.TypeDescriptor, len(d.Types))
	for i, t := range d.Types {
		key := fmt.Sprintf("types[%d]", i)
		if _, dup := descs[t.Name]; dup {
			add(key, "duplicate type name", t.Name)
			continue
		}
		for j, f := range t.Fields {
			fkey := fmt.Sprintf("%s.fields[%d]", key, j)
			kind, err := domain.ParseKind(f.Type)
			if err != nil {
				continue // reported by Descriptor below
			}
			numeric := kind == domain.KindFloat || kind == domain.KindInt
			if (f.Min != nil || f.Max != nil) && !numeric {
				add(fkey, "min/max require a numeric field", f.Type)
			}
			if f.Min != nil && f.Max != nil && *f.Min > *f.Max {
				add(fkey, "min is greater than max", nil)
			}
			if (f.Required || len(f.OneOf) > 0) && kind != domain.KindString {
				add(fkey, "required/one_of require a string field", f.Type)
			}
		}
		desc, err := t.Descriptor()
		if err != nil {
			add(key, err.Error(), nil)
			continue
		}
		descs[t.Name] = desc
	}

	names := make(map[string]*domain.TypeDescriptor)
	for i, inst := range d.Instances {
		key := fmt.Sprintf("instances[%d]", i)
		desc, ok := descs[inst.Type]
		if !ok {
			add(key, "unknown type", inst.Type)
			continue
		}
		if _, err := desc.Conform(inst.Values); err != nil {
			add(key, err.Error(), nil)
		}
		if inst.Name == "" {
			continue
		}
		if _, dup := names[inst.Name]; dup {
			add(key, "duplicate instance name", inst.Name)
			continue
		}
		names[inst.Name] = desc
	}

	for i, dr := range d.Drive {
		key := fmt.Sprintf("drive[%d]", i)
		desc, ok := names[dr.Instance]
		if !ok {
			add(key, "unknown instance", dr.Instance)
			continue
		}
		f, ok := desc.Field(dr.Field)
		if !ok {
			add(key, "unknown field", dr.Field)
			continue
		}
		if f.Kind != domain.KindFloat && f.Kind != domain.KindInt {
			add(key, "drive field must be numeric", dr.Field)
		}
	}

	if len(errs) > 0 {
		return &AggregateError{Errors: errs}
	}
	return nil
}
