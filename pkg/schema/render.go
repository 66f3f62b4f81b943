package schema

import (
	"fmt"
	"sort"
	"strings"
)

// Markdown renders the document as a Markdown reference: one section per
// type with a field table, followed by the declared instances and drive rules.
func (d *Document) Markdown() string {
	var b strings.Builder
	b.WriteString("# Types\n")

	for _, t := range d.Types {
		fmt.Fprintf(&b, "\n## %s\n\n", t.Name)
		if t.Description != "" {
			fmt.Fprintf(&b, "%s\n\n", t.Description)
		}
		b.WriteString("| Field | Type | Constraints |\n")
		b.WriteString("| --- | --- | --- |\n")
		rules := t.Rules()
		for _, f := range t.Fields {
			constraints := "-"
			if rs := rules[f.Name]; len(rs) > 0 {
				names := make([]string, len(rs))
				for i, r := range rs {
					names[i] = r.Name()
				}
				constraints = strings.Join(names, ", ")
			}
			fmt.Fprintf(&b, "| %s | %s | %s |\n", f.Name, f.Type, constraints)
		}
	}

	if len(d.Instances) > 0 {
		b.WriteString("\n# Instances\n\n")
		b.WriteString("| Name | Type | Values |\n")
		b.WriteString("| --- | --- | --- |\n")
		for _, inst := range d.Instances {
			name := inst.Name
			if name == "" {
				name = "-"
			}
			fmt.Fprintf(&b, "| %s | %s | %s |\n", name, inst.Type, formatValues(inst.Values))
		}
	}

	if len(d.Drive) > 0 {
		b.WriteString("\n# Drive\n\n")
		for _, dr := range d.Drive {
			fmt.Fprintf(&b, "- `%s.%s` %+g per tick\n", dr.Instance, dr.Field, dr.Delta)
		}
	}
	return b.String()
}

func formatValues(values map[string]any) string {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%v", k, values[k])
	}
	return strings.Join(parts, ", ")
}
