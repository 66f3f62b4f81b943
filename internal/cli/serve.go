package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"

	"github.com/aretw0/hangar/internal/config"
	"github.com/aretw0/hangar/internal/logging"
	httpadapter "github.com/aretw0/hangar/pkg/adapters/http"
	"github.com/aretw0/hangar/pkg/runner"
	"github.com/aretw0/hangar/pkg/schema"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ServeOptions contains the configuration for the Serve command.
type ServeOptions struct {
	Config *config.Config
	Logger *slog.Logger
	// Drive applies the schema's drives in the background while serving.
	Drive bool
	// Listener overrides Config.HTTP.Addr.
	Listener net.Listener
}

// Serve exposes a hangar over HTTP until ctx is cancelled, then shuts the
// server down gracefully. The schema is optional: when the file does not
// exist the hangar starts empty.
func Serve(ctx context.Context, opts ServeOptions) error {
	cfg := opts.Config
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}

	stack, err := Build(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := stack.Close(); err != nil {
			logger.Warn("Stack close failed", "error", err)
		}
	}()

	var doc *schema.Document
	if _, statErr := os.Stat(cfg.Schema); statErr == nil {
		if doc, err = LoadDocument(ctx, cfg.Schema); err != nil {
			return err
		}
		if _, err := applyDocument(ctx, stack, doc, nil, logger); err != nil {
			return err
		}
		logger.Info("Schema loaded", "path", cfg.Schema, "types", len(doc.Types), "instances", len(doc.Instances))
	} else {
		logger.Warn("No schema loaded, serving an empty hangar", "path", cfg.Schema, "error", statErr)
		if err := stack.AttachMirror(); err != nil {
			return err
		}
	}

	r := chi.NewRouter()
	r.Handle("/metrics", promhttp.HandlerFor(stack.Registry, promhttp.HandlerOpts{}))
	r.Mount("/", httpadapter.NewHandler(stack.Hangar,
		httpadapter.WithLogger(logger),
		httpadapter.WithStreamBuffer(cfg.HTTP.StreamBuffer),
	))
	// Requests, event streams included, end when the server starts shutting down.
	runCtx, stop := context.WithCancel(ctx)
	defer stop()
	srv := &http.Server{
		Addr:        cfg.HTTP.Addr,
		Handler:     r,
		BaseContext: func(net.Listener) context.Context { return runCtx },
	}

	// Channel to listen for errors coming from the listener.
	serverErrors := make(chan error, 1)
	go func() {
		if opts.Listener != nil {
			logger.Info("Starting Hangar Server", "addr", opts.Listener.Addr().String())
			serverErrors <- srv.Serve(opts.Listener)
			return
		}
		logger.Info("Starting Hangar Server", "addr", srv.Addr)
		serverErrors <- srv.ListenAndServe()
	}()

	driveErrors := make(chan error, 1)
	if opts.Drive && doc != nil && len(doc.Drive) > 0 {
		go func() {
			driveErrors <- runner.NewRunner(
				runner.WithEngine(stack.Hangar),
				runner.WithLogger(logger),
				runner.WithDrives(doc.Drive),
				runner.WithInterval(cfg.Drive.Interval),
				runner.WithTicks(cfg.Drive.Ticks),
			).Run(runCtx)
		}()
	}

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case err := <-driveErrors:
		if err != nil {
			logger.Error("Drive stopped", "error", err)
		}
		<-ctx.Done()
	case <-ctx.Done():
	}

	logger.Info("Start shutdown")
	stop()
	// Give outstanding requests a deadline for completion.
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("Graceful shutdown did not complete", "timeout", cfg.HTTP.ShutdownTimeout, "error", err)
		if err := srv.Close(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	}
	logger.Info("Hangar Server stopped gracefully")
	return nil
}
