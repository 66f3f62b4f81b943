// Package schema declares types, instances and drive rules in a YAML or JSON
// document and compiles them into domain type descriptors.
//
// A document looks like:
//
//	types:
//	  - name: Drone
//	    description: A flying drone
//	    fields:
//	      - {name: altitude, type: float, min: 0}
//	      - {name: callsign, type: string, required: true}
//	instances:
//	  - {type: Drone, name: my_drone, values: {altitude: 37, callsign: "alpha"}}
//	drive:
//	  - {instance: my_drone, field: altitude, delta: -1}
//
// Field constraints (min, max, required, one_of) become Rules. The rules of
// a type are checked by the validate hook of the compiled descriptor, which
// reports every failing field at once as an *AggregateError:
//
//	doc, err := schema.Load("hangar.yaml")
//	if err != nil {
//	    return err
//	}
//	descs, err := doc.Descriptors()
//
// Rules can also be used directly against code-defined types:
//
//	hook := schema.Hook(schema.Schema{
//	    "altitude": {schema.Min(0)},
//	})
package schema
