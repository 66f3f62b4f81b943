package runner

import (
	"context"

	"github.com/aretw0/hangar/pkg/domain"
)

// EventHandler defines how the runner presents what happens to instances.
// This allows switching between Text (CLI) and JSON (structured) modes.
type EventHandler interface {
	// Event presents one dispatched event. It runs inside the hangar's
	// dispatch, so it must not call back into the hangar.
	Event(ctx context.Context, ev domain.Event) error

	// SystemOutput presents a meta-message (start, stop, skipped drives).
	// This is distinct from event rendering.
	SystemOutput(ctx context.Context, msg string) error
}
