package cli

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"

	"github.com/aretw0/hangar/pkg/domain"
	"github.com/aretw0/hangar/pkg/observer"
	"github.com/aretw0/hangar/pkg/runner"
)

func debugHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnCreate: func(ctx context.Context, e *domain.InstanceEvent) {
			logger.DebugContext(ctx, "Create", "id", e.ID, "type", e.Type, "state", e.State)
		},
		OnUpdate: func(ctx context.Context, e *domain.InstanceEvent) {
			logger.DebugContext(ctx, "Update", "id", e.ID, "type", e.Type, "state", e.State)
		},
		OnDestroy: func(ctx context.Context, e *domain.InstanceEvent) {
			logger.DebugContext(ctx, "Destroy", "id", e.ID, "type", e.Type)
		},
		OnDispatch: func(ctx context.Context, e *domain.DispatchEvent) {
			if e.Failed > 0 {
				logger.WarnContext(ctx, "Dispatch (Failures)", "event", e.Kind.String(), "type", e.Type, "failed", e.Failed)
			}
		},
	}
}

// newHandler picks the event presentation for the options.
func newHandler(opts RunOptions) runner.EventHandler {
	out := opts.output()
	if opts.JSON {
		return runner.NewJSONHandler(out)
	}
	return runner.NewTextHandler(out)
}

func (o RunOptions) output() io.Writer {
	if o.Out != nil {
		return o.Out
	}
	return os.Stdout
}

// isDispatchOnly reports whether err carries only observer failures, which
// never undo the operation that produced them.
func isDispatchOnly(err error) bool {
	var dispatchErr *observer.DispatchError
	if !errors.As(err, &dispatchErr) {
		return false
	}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		for _, e := range joined.Unwrap() {
			if !errors.As(e, &dispatchErr) {
				return false
			}
		}
	}
	return true
}
