package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/hangar/pkg/domain"
)

// GenerateMermaid produces a Mermaid flowchart of the registered types and
// the instances of each. It applies semantic styling:
// - Type: [[Subroutine]] listing its fields
// - Named instance: ([Stadium])
// - Unnamed instance: [Rectangle] labelled with its id
// Instances are coloured by state (valid, invalid) and linked to their type.
func GenerateMermaid(types []*domain.TypeDescriptor, instances []domain.Instance) string {
	var sb strings.Builder
	sb.WriteString("graph LR\n")

	for _, t := range types {
		fields := make([]string, len(t.Fields))
		for i, f := range t.Fields {
			fields[i] = fmt.Sprintf("%s: %s", f.Name, f.Kind)
		}
		fmt.Fprintf(&sb, "    %s[[\"%s <br/> %s\"]]\n",
			typeNodeID(t.Name), escapeLabel(t.Name), escapeLabel(strings.Join(fields, ", ")))
	}

	var valid, invalid []string
	for i := range instances {
		inst := &instances[i]
		id := instanceNodeID(inst.ID)

		opener, closer := "[", "]"
		if inst.Name != "" {
			opener, closer = "([", "])"
		}
		fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", id, opener, escapeLabel(inst.Label()), closer)

		arrow := "-->"
		if !inst.Defined {
			// Never defined: observers have not seen it yet.
			arrow = "-.->"
		}
		fmt.Fprintf(&sb, "    %s %s %s\n", id, arrow, typeNodeID(inst.Type))

		if inst.State == domain.StateValid {
			valid = append(valid, id)
		} else {
			invalid = append(invalid, id)
		}
	}

	if len(valid)+len(invalid) > 0 {
		sb.WriteString("\n    %% State Styles\n")
		// Force black text (color:#000) for high-contrast on light backgrounds, regardless of theme (Light/Dark)
		sb.WriteString("    classDef valid fill:#e8f5e9,stroke:#2e7d32,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef invalid fill:#ffebee,stroke:#c62828,stroke-width:2px,color:#000;\n")
		if len(valid) > 0 {
			fmt.Fprintf(&sb, "    class %s valid;\n", strings.Join(valid, ","))
		}
		if len(invalid) > 0 {
			fmt.Fprintf(&sb, "    class %s invalid;\n", strings.Join(invalid, ","))
		}
	}

	return sb.String()
}

func typeNodeID(name string) string {
	return "type_" + sanitizeMermaidID(name)
}

func instanceNodeID(id domain.ID) string {
	return "inst_" + id.String()
}

func escapeLabel(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	s = strings.ReplaceAll(s, " ", "_")
	return s
}
