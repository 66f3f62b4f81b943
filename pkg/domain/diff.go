package domain

import (
	"reflect"
	"sort"
)

// Change is the before/after value of one field across an update.
type Change struct {
	Field string `json:"field"`
	Old   any    `json:"old"`
	New   any    `json:"new"`
}

// Diff lists the fields whose values differ between before and after, in
// field name order. If before is nil every field of after is reported as new.
func Diff(before, after map[string]any) []Change {
	var changes []Change

	for k, newVal := range after {
		oldVal, exists := before[k]
		if before != nil && exists && reflect.DeepEqual(oldVal, newVal) {
			continue
		}
		if !exists {
			oldVal = nil
		}
		changes = append(changes, Change{Field: k, Old: oldVal, New: newVal})
	}

	// Removals only happen for instances decoded without a descriptor.
	for k, oldVal := range before {
		if _, exists := after[k]; !exists {
			changes = append(changes, Change{Field: k, Old: oldVal, New: nil})
		}
	}

	sort.Slice(changes, func(i, j int) bool { return changes[i].Field < changes[j].Field })
	return changes
}
