package domain

import (
	"context"
	"strings"
	"time"
)

// EventKind identifies what happened to an instance.
type EventKind uint8

const (
	// EventDefine fires once, the first time an instance becomes Valid.
	EventDefine EventKind = 1 << iota
	// EventUpdate fires every time an update scope closes.
	EventUpdate
	// EventDelete fires when a defined instance is destroyed.
	EventDelete
)

func (k EventKind) String() string {
	switch k {
	case EventDefine:
		return "define"
	case EventUpdate:
		return "update"
	case EventDelete:
		return "delete"
	default:
		return "unknown"
	}
}

// MarshalText encodes the kind by name.
func (k EventKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText decodes a kind name, or a mask such as "define|update".
func (k *EventKind) UnmarshalText(text []byte) error {
	mask, err := ParseEventMask(string(text))
	if err != nil {
		return err
	}
	*k = mask
	return nil
}

// EventMask is a set of event kinds.
type EventMask = EventKind

// EventAll matches every event kind.
const EventAll = EventDefine | EventUpdate | EventDelete

// Has reports whether the mask contains kind.
func (k EventKind) Has(kind EventKind) bool {
	return k&kind != 0
}

// ParseEventMask parses a list such as "define|update" or "define,update".
// "all" (or "*") selects every kind.
func ParseEventMask(s string) (EventMask, error) {
	var mask EventMask
	for _, part := range strings.FieldsFunc(s, func(r rune) bool { return r == '|' || r == ',' || r == ' ' }) {
		switch strings.ToLower(part) {
		case "define":
			mask |= EventDefine
		case "update":
			mask |= EventUpdate
		case "delete":
			mask |= EventDelete
		case "all", "*":
			mask |= EventAll
		default:
			return 0, &UnknownEventError{Name: part}
		}
	}
	return mask, nil
}

// UnknownEventError is returned by ParseEventMask.
type UnknownEventError struct {
	Name string
}

func (e *UnknownEventError) Error() string {
	return "unknown event kind: " + e.Name
}

// Event is delivered to observers. Instance is a snapshot taken after the
// mutation that triggered the event.
type Event struct {
	Kind      EventKind `json:"kind"`
	Instance  Instance  `json:"instance"`
	Changes   []Change  `json:"changes,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// InstanceEvent describes a lifecycle transition for engine-level hooks.
type InstanceEvent struct {
	Timestamp time.Time
	ID        ID
	Type      string
	State     InstanceState
	Reason    string
}

// DispatchEvent describes one observer dispatch round.
type DispatchEvent struct {
	Timestamp time.Time
	Kind      EventKind
	Type      string
	Delivered int
	Failed    int
}

// LifecycleHooks defines callbacks for engine observability (logging, metrics).
// They are distinct from per-type TypeHooks and must not call back into the engine.
type LifecycleHooks struct {
	OnCreate   func(context.Context, *InstanceEvent)
	OnDestroy  func(context.Context, *InstanceEvent)
	OnUpdate   func(context.Context, *InstanceEvent)
	OnDispatch func(context.Context, *DispatchEvent)
}

// MergeLifecycleHooks returns hooks that call each of the given hooks in order.
func MergeLifecycleHooks(all ...LifecycleHooks) LifecycleHooks {
	var merged LifecycleHooks
	for _, h := range all {
		merged.OnCreate = chainInstance(merged.OnCreate, h.OnCreate)
		merged.OnDestroy = chainInstance(merged.OnDestroy, h.OnDestroy)
		merged.OnUpdate = chainInstance(merged.OnUpdate, h.OnUpdate)
		merged.OnDispatch = chainDispatch(merged.OnDispatch, h.OnDispatch)
	}
	return merged
}

func chainInstance(a, b func(context.Context, *InstanceEvent)) func(context.Context, *InstanceEvent) {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return func(ctx context.Context, e *InstanceEvent) {
		a(ctx, e)
		b(ctx, e)
	}
}

func chainDispatch(a, b func(context.Context, *DispatchEvent)) func(context.Context, *DispatchEvent) {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return func(ctx context.Context, e *DispatchEvent) {
		a(ctx, e)
		b(ctx, e)
	}
}
