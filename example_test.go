package hangar_test

import (
	"context"
	"fmt"
	"log"

	"github.com/aretw0/hangar"
	"github.com/aretw0/hangar/pkg/domain"
	"github.com/aretw0/hangar/pkg/schema"
)

// Example reproduces the drone walkthrough: an invalid drone is kept but
// never defined, a valid one is defined and then flown down one unit.
func Example() {
	h := hangar.New()
	err := h.RegisterType(&domain.TypeDescriptor{
		Name: "Drone",
		Fields: []domain.Field{
			{Name: "altitude", Kind: domain.KindFloat},
			{Name: "latitude", Kind: domain.KindFloat},
			{Name: "longitude", Kind: domain.KindFloat},
		},
		Hooks: domain.TypeHooks{
			Validate: schema.Hook(schema.Schema{"altitude": {schema.Min(0)}}),
		},
	})
	if err != nil {
		log.Fatal(err)
	}

	_, err = h.Observe(domain.EventDefine|domain.EventUpdate).Type("Drone").
		Callback(func(_ context.Context, ev domain.Event) error {
			fmt.Printf("%s %s altitude=%g\n", ev.Kind, ev.Instance.Label(), ev.Instance.Float("altitude"))
			return nil
		})
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
	bad, _ := h.Create(ctx, "Drone", map[string]any{"altitude": -5, "latitude": 0, "longitude": 0})
	fmt.Println(bad.State, "-", bad.Reason)

	d, _ := h.Create(ctx, "Drone", map[string]any{"altitude": 37, "latitude": 122, "longitude": 0},
		hangar.WithName("my_drone"))
	_ = h.Update(ctx, d.ID, func(s *hangar.Scope) error {
		return s.Add("altitude", -1)
	})

	// Output:
	// invalid - field "altitude": must be >= 0 (got -5)
	// define my_drone altitude=37
	// update my_drone altitude=36
}
