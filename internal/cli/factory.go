package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/aretw0/hangar"
	"github.com/aretw0/hangar/internal/config"
	"github.com/aretw0/hangar/internal/logging"
	"github.com/aretw0/hangar/pkg/adapters/file"
	"github.com/aretw0/hangar/pkg/adapters/memory"
	redisadapter "github.com/aretw0/hangar/pkg/adapters/redis"
	"github.com/aretw0/hangar/pkg/adapters/sqlite"
	"github.com/aretw0/hangar/pkg/domain"
	"github.com/aretw0/hangar/pkg/metrics"
	"github.com/aretw0/hangar/pkg/mirror"
	"github.com/aretw0/hangar/pkg/persistence/middleware"
	"github.com/aretw0/hangar/pkg/ports"
	"github.com/prometheus/client_golang/prometheus"
)

// Stack is a hangar wired with metrics and, unless the store backend is
// "none", a mirror writing snapshots to the configured store.
type Stack struct {
	Hangar   *hangar.Hangar
	Mirror   *mirror.Mirror
	Registry *prometheus.Registry
	Logger   *slog.Logger

	closers []io.Closer
}

// Build creates a Stack from the config. The mirror is not attached until
// AttachMirror is called, so it can filter on types that are not registered yet.
func Build(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Stack, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	reg := prometheus.NewRegistry()
	collectors, err := metrics.New(reg)
	if err != nil {
		return nil, fmt.Errorf("error registering metrics: %w", err)
	}

	s := &Stack{
		Registry: reg,
		Logger:   logger,
		Hangar: hangar.New(
			hangar.WithLogger(logger),
			hangar.WithLifecycleHooks(domain.MergeLifecycleHooks(collectors.Hooks(), debugHooks(logger))),
		),
	}

	store, locker, closer, err := OpenStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if closer != nil {
		s.closers = append(s.closers, closer)
	}
	if store != nil {
		opts := []mirror.Option{
			mirror.WithLogger(logger),
			mirror.WithType(cfg.Store.Type),
			mirror.WithLockTTL(cfg.Store.LockTTL),
		}
		if locker != nil {
			opts = append(opts, mirror.WithLocker(locker))
		}
		s.Mirror = mirror.New(store, opts...)
	}
	return s, nil
}

// AttachMirror starts mirroring the hangar's events. It is a no-op without a store.
func (s *Stack) AttachMirror() error {
	if s.Mirror == nil {
		return nil
	}
	return s.Mirror.Attach(s.Hangar)
}

// Close detaches the mirror and closes the store.
func (s *Stack) Close() error {
	var errs []error
	if s.Mirror != nil {
		errs = append(errs, s.Mirror.Detach())
	}
	for _, c := range s.closers {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}

// OpenStore opens the snapshot store selected by cfg.Store.Backend and wraps
// it in the redact and encryption middleware when configured. The locker is
// only set for redis. All results are nil for the "none" backend.
func OpenStore(ctx context.Context, cfg *config.Config) (ports.SnapshotStore, ports.DistributedLocker, io.Closer, error) {
	store, locker, closer, err := openBackend(ctx, cfg)
	if err != nil || store == nil {
		return nil, nil, nil, err
	}
	mws, err := storeMiddleware(cfg)
	if err != nil {
		if closer != nil {
			_ = closer.Close()
		}
		return nil, nil, nil, err
	}
	return middleware.Chain(store, mws...), locker, closer, nil
}

func openBackend(ctx context.Context, cfg *config.Config) (ports.SnapshotStore, ports.DistributedLocker, io.Closer, error) {
	switch cfg.Store.Backend {
	case config.BackendNone:
		return nil, nil, nil, nil
	case config.BackendMemory:
		return memory.NewStore(), nil, nil, nil
	case config.BackendFile:
		return file.New(cfg.File.Dir), nil, nil, nil
	case config.BackendRedis:
		opts := []redisadapter.Option{redisadapter.WithPrefix(cfg.Redis.Prefix)}
		if cfg.Redis.TTL > 0 {
			opts = append(opts, redisadapter.WithTTL(cfg.Redis.TTL))
		}
		store := redisadapter.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, opts...)
		if err := store.Client().Ping(ctx).Err(); err != nil {
			_ = store.Close()
			return nil, nil, nil, fmt.Errorf("error connecting to redis at %s: %w", cfg.Redis.Addr, err)
		}
		return store, redisadapter.NewLocker(store.Client(), cfg.Redis.Prefix), store, nil
	case config.BackendSQLite:
		store, err := sqlite.Open(cfg.SQLite.Path)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("error opening sqlite store: %w", err)
		}
		return store, nil, store, nil
	default:
		return nil, nil, nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}

// storeMiddleware redacts before it encrypts, so masked values never reach
// the ciphertext.
func storeMiddleware(cfg *config.Config) ([]middleware.Middleware, error) {
	var mws []middleware.Middleware
	if len(cfg.Store.Redact) > 0 {
		redact, err := middleware.NewRedactMiddleware(cfg.Store.Redact)
		if err != nil {
			return nil, err
		}
		mws = append(mws, redact)
	}
	if cfg.Store.EncryptionKey != "" {
		active, err := middleware.ParseKey(cfg.Store.EncryptionKey)
		if err != nil {
			return nil, fmt.Errorf("store.encryption_key: %w", err)
		}
		enc := middleware.EncryptionConfig{ActiveKey: active}
		for _, k := range cfg.Store.FallbackKeys {
			key, err := middleware.ParseKey(k)
			if err != nil {
				return nil, fmt.Errorf("store.fallback_keys: %w", err)
			}
			enc.FallbackKeys = append(enc.FallbackKeys, key)
		}
		mws = append(mws, middleware.NewEncryptionMiddleware(enc))
	}
	return mws, nil
}
