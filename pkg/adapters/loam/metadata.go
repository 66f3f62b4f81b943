package loam

import "github.com/aretw0/hangar/pkg/schema"

// TypeMetadata is the frontmatter of a type document. The document body
// becomes the type description.
type TypeMetadata struct {
	// Name defaults to the file name without extension.
	Name      string             `json:"name" mapstructure:"name"`
	Fields    []schema.FieldSpec `json:"fields" mapstructure:"fields"`
	Instances []InstanceMetadata `json:"instances" mapstructure:"instances"`
	Drive     []schema.DriveSpec `json:"drive" mapstructure:"drive"`
}

// InstanceMetadata declares an instance of the enclosing type.
type InstanceMetadata struct {
	Name   string         `json:"name" mapstructure:"name"`
	Values map[string]any `json:"values" mapstructure:"values"`
}
