package graph_test

import (
	"strings"
	"testing"

	"github.com/aretw0/hangar/internal/presentation/graph"
	"github.com/aretw0/hangar/pkg/domain"
	"github.com/stretchr/testify/assert"
)

func TestGenerateMermaid(t *testing.T) {
	types := []*domain.TypeDescriptor{
		{
			Name: "Drone",
			Fields: []domain.Field{
				{Name: "altitude", Kind: domain.KindFloat},
				{Name: "status", Kind: domain.KindString},
			},
		},
		{Name: "ground-station", Fields: []domain.Field{{Name: "online", Kind: domain.KindBool}}},
	}

	tests := []struct {
		name      string
		instances []domain.Instance
		contains  []string
		excludes  []string
	}{
		{
			name: "Type Shape",
			contains: []string{
				"graph LR",
				`type_Drone[["Drone <br/> altitude: float, status: string"]]`,
				`type_ground_station[["ground-station <br/> online: bool"]]`,
			},
			excludes: []string{"classDef"},
		},
		{
			name: "Named Instance",
			instances: []domain.Instance{
				{ID: 1, Name: "my_drone", Type: "Drone", State: domain.StateValid, Defined: true},
			},
			contains: []string{
				`inst_1(["my_drone"])`,
				"inst_1 --> type_Drone",
				"class inst_1 valid;",
			},
		},
		{
			name: "Undefined Instance",
			instances: []domain.Instance{
				{ID: 7, Type: "Drone", State: domain.StateInvalid},
			},
			contains: []string{
				`inst_7["7"]`,
				"inst_7 -.-> type_Drone",
				"class inst_7 invalid;",
			},
			excludes: []string{"class inst_7 valid;"},
		},
		{
			name: "Grouped Styles",
			instances: []domain.Instance{
				{ID: 1, Type: "Drone", State: domain.StateValid, Defined: true},
				{ID: 2, Type: "Drone", State: domain.StateValid, Defined: true},
				{ID: 3, Name: `say "hi"`, Type: "Drone", State: domain.StateInvalid, Defined: true},
			},
			contains: []string{
				"class inst_1,inst_2 valid;",
				"class inst_3 invalid;",
				`inst_3(["say 'hi'"])`,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := graph.GenerateMermaid(types, tt.instances)
			for _, want := range tt.contains {
				assert.Contains(t, out, want)
			}
			for _, not := range tt.excludes {
				assert.False(t, strings.Contains(out, not), "unexpected %q in\n%s", not, out)
			}
		})
	}
}
