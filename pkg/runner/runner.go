package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/hangar"
	"github.com/aretw0/hangar/internal/logging"
	"github.com/aretw0/hangar/pkg/domain"
	"github.com/aretw0/hangar/pkg/observer"
	"github.com/aretw0/hangar/pkg/schema"
)

// Engine is the part of a hangar the runner needs. *hangar.Hangar satisfies it.
type Engine interface {
	Resolve(name string) (domain.Instance, error)
	Update(ctx context.Context, id domain.ID, fn func(*hangar.Scope) error) error
	Subscribe(mask domain.EventMask, typeFilter string, cb observer.Callback) (observer.Handle, error)
	Unsubscribe(h observer.Handle) error
}

// Runner applies drives to a hangar on a fixed interval.
type Runner struct {
	// Handler receives every matching event while Run is active.
	Handler EventHandler

	// Logger is used for internal debug logging.
	// If nil, a no-op logger is used.
	Logger *slog.Logger

	Drives     []schema.DriveSpec
	Interval   time.Duration
	Ticks      int
	Mask       domain.EventMask
	TypeFilter string

	engine Engine
}

// NewRunner creates a Runner with the given options.
func NewRunner(opts ...Option) *Runner {
	r := &Runner{
		Logger:   logging.NewNop(),
		Interval: DefaultInterval,
		Mask:     domain.EventAll,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run ticks until ctx is cancelled or the configured number of ticks has
// elapsed. Cancellation is a normal stop and returns nil. Drive failures that
// are not transient end the run with an error.
func (r *Runner) Run(ctx context.Context) error {
	if r.engine == nil {
		return errors.New("runner: no engine configured")
	}

	if r.Handler != nil {
		handle, err := r.engine.Subscribe(r.Mask, r.TypeFilter, r.Handler.Event)
		if err != nil {
			return fmt.Errorf("runner: subscribe: %w", err)
		}
		defer func() {
			if err := r.engine.Unsubscribe(handle); err != nil {
				r.Logger.Warn("runner: unsubscribe failed", "error", err)
			}
		}()
	}

	r.system(ctx, fmt.Sprintf("driving %d field(s) every %s", len(r.Drives), r.Interval))
	r.Logger.Debug("runner started", "drives", len(r.Drives), "interval", r.Interval, "ticks", r.Ticks)

	ticker := time.NewTicker(r.Interval)
	defer ticker.Stop()

	ticks := 0
	for r.Ticks == 0 || ticks < r.Ticks {
		select {
		case <-ctx.Done():
			r.system(context.WithoutCancel(ctx), fmt.Sprintf("stopped after %d tick(s)", ticks))
			r.Logger.Debug("runner cancelled", "ticks", ticks, "cause", context.Cause(ctx))
			return nil
		case <-ticker.C:
		}
		ticks++
		if err := r.Tick(ctx); err != nil {
			return err
		}
	}
	r.system(ctx, fmt.Sprintf("finished %d tick(s)", ticks))
	return nil
}

// Tick applies every drive once. A drive whose instance is gone or busy is
// skipped for this tick. Observer failures are logged, not returned.
func (r *Runner) Tick(ctx context.Context) error {
	for _, d := range r.Drives {
		inst, err := r.engine.Resolve(d.Instance)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				r.Logger.Warn("drive skipped: instance not found", "instance", d.Instance)
				continue
			}
			return fmt.Errorf("drive %s.%s: %w", d.Instance, d.Field, err)
		}

		err = r.engine.Update(ctx, inst.ID, func(s *hangar.Scope) error {
			return s.Add(d.Field, d.Delta)
		})
		var dispatchErr *observer.DispatchError
		switch {
		case err == nil:
		case errors.As(err, &dispatchErr):
			r.Logger.Debug("drive applied with observer failures", "instance", d.Instance, "error", err)
		case errors.Is(err, domain.ErrScopeAlreadyOpen), errors.Is(err, domain.ErrNotFound):
			r.Logger.Warn("drive skipped", "instance", d.Instance, "error", err)
		default:
			return fmt.Errorf("drive %s.%s: %w", d.Instance, d.Field, err)
		}
	}
	return nil
}

func (r *Runner) system(ctx context.Context, msg string) {
	if r.Handler == nil {
		return
	}
	if err := r.Handler.SystemOutput(ctx, msg); err != nil {
		r.Logger.Warn("runner: system output failed", "error", err)
	}
}
