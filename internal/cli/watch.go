package cli

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/aretw0/hangar"
	"github.com/aretw0/hangar/internal/presentation/tui"
	"github.com/fsnotify/fsnotify"
)

// reloadDelay lets editors finish writing before the schema is read again.
const reloadDelay = 100 * time.Millisecond

// RunWatch runs the schema in development mode, starting over with a fresh
// hangar every time the schema file changes. A broken schema is reported and
// the watcher waits for the next change.
func RunWatch(ctx context.Context, opts RunOptions) error {
	opts.setDefaults()
	target, err := filepath.Abs(opts.Config.Schema)
	if err != nil {
		return err
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("error starting watcher: %w", err)
	}
	defer watcher.Close()
	// Editors often replace files, so the directory is watched, not the file.
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("error watching %s: %w", filepath.Dir(target), err)
	}

	handler := newHandler(opts)
	if !opts.JSON && !opts.Quiet {
		tui.PrintBanner(opts.output(), hangar.Version)
	}
	opts.Logger.Info("Starting Watcher", "path", target)
	changes := watchFile(ctx, watcher, target, opts.Logger)

	for {
		iterCtx, cancel := context.WithCancel(ctx)
		done := make(chan error, 1)
		go func() { done <- runIteration(iterCtx, opts, handler) }()

		select {
		case <-ctx.Done():
			cancel()
			<-done
			return nil
		case <-changes:
			cancel()
			<-done
		case err := <-done:
			cancel()
			if err != nil {
				_ = handler.SystemOutput(ctx, "error: "+err.Error())
			}
			_ = handler.SystemOutput(ctx, "waiting for changes")
			select {
			case <-ctx.Done():
				return nil
			case <-changes:
			}
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(reloadDelay):
		}
		// Drop the burst of events a single save produces.
		select {
		case <-changes:
		default:
		}
		opts.Logger.Info("Change detected, reloading", "path", target)
		_ = handler.SystemOutput(ctx, fmt.Sprintf("change detected in %s, reloading", filepath.Base(target)))
	}
}

// watchFile forwards changes to target as a coalescing signal.
func watchFile(ctx context.Context, watcher *fsnotify.Watcher, target string, logger *slog.Logger) <-chan struct{} {
	ch := make(chan struct{}, 1)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != target || !ev.Has(fsnotify.Write|fsnotify.Create|fsnotify.Rename) {
					continue
				}
				select {
				case ch <- struct{}{}:
				default:
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warn("Watcher error", "error", err)
			}
		}
	}()
	return ch
}
