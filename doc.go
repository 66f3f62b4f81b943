/*
Package hangar is an in-process registry of typed objects with lifecycle
hooks and event observation.

Types are declared once, with an ordered set of fields and optional hooks.
Instances of those types are created, validated, updated inside explicit
scopes and destroyed. Observers subscribe to Define, Update and Delete events,
optionally filtered by type.

# Lifecycle

Every instance starts out Constructing. The construct hook may initialise
fields, then the validate hook decides between Valid and Invalid. An Invalid
instance is still stored and returned, with a Reason. The first time an
instance is Valid, its define hook runs and a Define event is dispatched.

Updates happen inside a scope. Changes are invisible to readers until the
scope is closed, at which point the update hook runs, the instance is
validated again and an Update event is dispatched with the per-field changes.

# Usage

	package main

	import (
		"context"
		"fmt"

		"github.com/aretw0/hangar"
		"github.com/aretw0/hangar/pkg/domain"
		"github.com/aretw0/hangar/pkg/schema"
	)

	func main() {
		h := hangar.New()
		_ = h.RegisterType(&domain.TypeDescriptor{
			Name:   "Drone",
			Fields: []domain.Field{{Name: "altitude", Kind: domain.KindFloat}},
			Hooks: domain.TypeHooks{
				Validate: schema.Hook(schema.Schema{"altitude": {schema.Min(0)}}),
			},
		})

		h.Observe(domain.EventDefine | domain.EventUpdate).Type("Drone").
			Callback(func(_ context.Context, ev domain.Event) error {
				fmt.Println(ev.Kind, ev.Instance.Label(), ev.Instance.Float("altitude"))
				return nil
			})

		ctx := context.Background()
		d, _ := h.Create(ctx, "Drone", map[string]any{"altitude": 37}, hangar.WithName("my_drone"))
		_ = h.Update(ctx, d.ID, func(s *hangar.Scope) error {
			return s.Add("altitude", -1)
		})
	}

Hooks and observers run synchronously on the caller's goroutine and receive a
context marked with the instance being processed. Calling Destroy,
BeginUpdate or EndUpdate for that same instance with that context fails with
domain.ErrReentrantHookCall instead of deadlocking.
*/
package hangar
