/*
Package domain contains the core models shared by every hangar package.

It defines what a type looks like (TypeDescriptor and its Fields), what a live
object looks like (Instance), the events observers receive, and the sentinel
errors returned by the registry, store and lifecycle engine. The package has
no I/O and no persistence; adapters depend on it, never the other way around.

# Key Entities

  - TypeDescriptor: name, ordered fields and optional lifecycle hooks of a type.
  - Instance: a snapshot of a live object (id, name, field values, state).
  - Event: a Define, Update or Delete notification carrying an Instance snapshot.
  - LifecycleHooks: engine-level callbacks used for logging and metrics.
*/
package domain
