/*
Package dsl provides a fluent Go API for declaring hangar types in code.

It is the programmatic counterpart of a schema document: fields, constraint
rules and lifecycle hooks are attached to a type with chained calls instead
of YAML, so hooks can be plain Go closures.

Example usage:

	b := dsl.New()

	b.Type("Drone").
		Describe("A quadcopter").
		Float("altitude", schema.Min(0)).
		String("status", schema.OneOf("idle", "flying")).
		OnDefine(func(ctx context.Context, inst *domain.Instance) {
			fmt.Println("ready:", inst.Label())
		})

	h := hangar.New()
	if err := b.Register(h); err != nil {
		log.Fatal(err)
	}
*/
package dsl
