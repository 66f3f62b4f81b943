package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/aretw0/hangar"
	"github.com/aretw0/hangar/internal/config"
	"github.com/aretw0/hangar/internal/logging"
	"github.com/aretw0/hangar/internal/presentation/tui"
	"github.com/aretw0/hangar/pkg/domain"
	"github.com/aretw0/hangar/pkg/observer"
	"github.com/aretw0/hangar/pkg/runner"
	"github.com/aretw0/hangar/pkg/schema"
)

// RunOptions contains all the configuration for the Run command.
type RunOptions struct {
	Config *config.Config
	Logger *slog.Logger
	JSON   bool
	Watch  bool
	Quiet  bool // suppress the banner
	Out    io.Writer
}

// Execute handles the 'run' command logic, dispatching to Session or Watch mode.
func Execute(ctx context.Context, opts RunOptions) error {
	if opts.Watch {
		return RunWatch(ctx, opts)
	}
	return RunSession(ctx, opts)
}

func (o *RunOptions) setDefaults() {
	if o.Logger == nil {
		o.Logger = logging.NewNop()
	}
}

// RunSession loads the schema once and drives it until ctx is cancelled or
// the configured number of ticks has elapsed.
func RunSession(ctx context.Context, opts RunOptions) error {
	opts.setDefaults()
	handler := newHandler(opts)
	if !opts.JSON && !opts.Quiet {
		tui.PrintBanner(opts.output(), hangar.Version)
	}
	return runIteration(ctx, opts, handler)
}

func runIteration(ctx context.Context, opts RunOptions, handler runner.EventHandler) error {
	cfg := opts.Config
	doc, err := LoadDocument(ctx, cfg.Schema)
	if err != nil {
		return err
	}

	stack, err := Build(ctx, cfg, opts.Logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := stack.Close(); err != nil {
			opts.Logger.Warn("Stack close failed", "error", err)
		}
	}()

	created, err := applyDocument(ctx, stack, doc, handler.Event, opts.Logger)
	if err != nil {
		return err
	}
	for _, inst := range created {
		if !inst.Valid() {
			_ = handler.SystemOutput(ctx, fmt.Sprintf("%s (%s) is invalid: %s",
				runner.SanitizeValue(inst.Label()), inst.Type, runner.SanitizeValue(inst.Reason)))
		}
	}

	r := runner.NewRunner(
		runner.WithEngine(stack.Hangar),
		runner.WithLogger(opts.Logger),
		runner.WithDrives(doc.Drive),
		runner.WithInterval(cfg.Drive.Interval),
		runner.WithTicks(cfg.Drive.Ticks),
		runner.WithHandler(handler),
	)
	return r.Run(ctx)
}

// applyDocument registers the document's types, attaches the mirror and
// creates the instances. onDefine, when set, sees the initial definitions.
// Observer failures are logged, not returned.
func applyDocument(ctx context.Context, stack *Stack, doc *schema.Document, onDefine observer.Callback, logger *slog.Logger) ([]domain.Instance, error) {
	h := stack.Hangar
	if err := h.ApplyTypes(doc); err != nil {
		return nil, err
	}
	if err := stack.AttachMirror(); err != nil {
		return nil, err
	}

	if onDefine != nil {
		handle, err := h.Subscribe(domain.EventDefine, "", onDefine)
		if err != nil {
			return nil, err
		}
		defer func() {
			if err := h.Unsubscribe(handle); err != nil {
				logger.Warn("Unsubscribe failed", "error", err)
			}
		}()
	}

	created, err := h.ApplyInstances(ctx, doc)
	if err != nil {
		if !isDispatchOnly(err) {
			return nil, err
		}
		logger.Warn("Observers failed during load", "error", err)
	}
	return created, nil
}
