package runner

import (
	"log/slog"
	"time"

	"github.com/aretw0/hangar/pkg/domain"
	"github.com/aretw0/hangar/pkg/schema"
)

// DefaultInterval is the tick period used when none is configured.
const DefaultInterval = time.Second

// Option defines a functional option for configuring the Runner.
type Option func(*Runner)

// WithEngine configures the hangar the runner drives. Required.
func WithEngine(engine Engine) Option {
	return func(r *Runner) {
		r.engine = engine
	}
}

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		if logger != nil {
			r.Logger = logger
		}
	}
}

// WithHandler configures how events are presented. Without a handler the
// runner does not subscribe to the hangar.
func WithHandler(handler EventHandler) Option {
	return func(r *Runner) {
		r.Handler = handler
	}
}

// WithDrives sets the drives applied on every tick.
func WithDrives(drives []schema.DriveSpec) Option {
	return func(r *Runner) {
		r.Drives = drives
	}
}

// WithInterval sets the tick period.
func WithInterval(d time.Duration) Option {
	return func(r *Runner) {
		if d > 0 {
			r.Interval = d
		}
	}
}

// WithTicks stops the runner after n ticks. Zero runs until cancelled.
func WithTicks(n int) Option {
	return func(r *Runner) {
		r.Ticks = n
	}
}

// WithEvents restricts the events passed to the handler.
func WithEvents(mask domain.EventMask) Option {
	return func(r *Runner) {
		r.Mask = mask
	}
}

// WithTypeFilter restricts the events passed to the handler to one type.
func WithTypeFilter(name string) Option {
	return func(r *Runner) {
		r.TypeFilter = name
	}
}
