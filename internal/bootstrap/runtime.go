// Package bootstrap wires configuration into a running marketplace:
// storage slot, persistence adapter, store, default admin and watchdog.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/afero"

	"skillswap/internal/cache"
	"skillswap/internal/config"
	"skillswap/internal/database"
	"skillswap/internal/engine"
	"skillswap/internal/observability"
	"skillswap/internal/persistence"
	"skillswap/internal/seed"
	"skillswap/internal/store"
	"skillswap/internal/watchdog"
)

// Options control runtime initialization behavior.
type Options struct {
	// Fs backs the file slot; nil means the OS filesystem.
	Fs afero.Fs
	// SkipWatchdog leaves ban enforcement to the store's eager check, for
	// one-shot commands.
	SkipWatchdog bool
}

// Runtime is an initialized marketplace.
type Runtime struct {
	Config   *config.Config
	Slot     persistence.Slot
	Adapter  *persistence.Adapter
	Store    *store.Store
	Watchdog *watchdog.Watchdog

	closeSlot func() error
	logger    *slog.Logger
}

// OpenSlot connects the storage backend cfg selects. The returned func
// releases the backend's connection.
func OpenSlot(ctx context.Context, cfg *config.Config, fs afero.Fs) (persistence.Slot, func() error, error) {
	noop := func() error { return nil }

	switch cfg.StorageDriver {
	case config.StorageFile:
		if fs == nil {
			fs = afero.NewOsFs()
		}
		return persistence.NewFileSlot(fs, cfg.StorageDir), noop, nil

	case config.StorageRedis:
		client, err := cache.Connect(ctx, cfg.RedisURL)
		if err != nil {
			return nil, nil, fmt.Errorf("redis storage: %w", err)
		}
		return persistence.NewRedisSlot(client), client.Close, nil

	case config.StorageSQL:
		db, err := database.Connect(cfg)
		if err != nil {
			return nil, nil, fmt.Errorf("sql storage: %w", err)
		}
		slot := persistence.NewDBSlot(db)
		if err := slot.Migrate(); err != nil {
			return nil, nil, fmt.Errorf("sql storage: %w", err)
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, nil, fmt.Errorf("sql storage: %w", err)
		}
		return slot, sqlDB.Close, nil

	default:
		return nil, nil, fmt.Errorf("unsupported STORAGE_DRIVER %q", cfg.StorageDriver)
	}
}

// InitRuntime opens storage, restores the persisted snapshot into a new
// store and seeds the default admin when the platform has no users.
func InitRuntime(ctx context.Context, cfg *config.Config, opts Options) (*Runtime, error) {
	slot, closeSlot, err := OpenSlot(ctx, cfg, opts.Fs)
	if err != nil {
		return nil, err
	}

	adapter := persistence.NewAdapter(slot, cfg.StorageKey)
	st := store.New(engine.Initial(), adapter)
	st.Dispatch(ctx, engine.LoadSnapshot{Partial: adapter.Load(ctx).AsPartial()})

	if cfg.SeedDefaultAdmin {
		seed.EnsureDefaultAdmin(ctx, st, cfg.DefaultAdminEmail)
	}

	rt := &Runtime{
		Config:    cfg,
		Slot:      slot,
		Adapter:   adapter,
		Store:     st,
		closeSlot: closeSlot,
		logger:    observability.Component("bootstrap"),
	}
	if !opts.SkipWatchdog {
		rt.Watchdog = watchdog.New(st, cfg.WatchdogInterval)
	}

	snap := st.Snapshot()
	rt.logger.InfoContext(ctx, "runtime initialized",
		slog.String("storage", slot.Backend()),
		slog.String("key", adapter.Key()),
		slog.Int("users", len(snap.Users)),
		slog.Int("swap_requests", len(snap.SwapRequests)),
	)
	return rt, nil
}

// Start launches the background watchdog.
func (r *Runtime) Start(ctx context.Context) {
	if r.Watchdog != nil {
		r.Watchdog.Start(ctx)
	}
}

// Shutdown stops the watchdog, flushes pending persistence and closes the
// storage connection.
func (r *Runtime) Shutdown(ctx context.Context) error {
	if r.Watchdog != nil {
		r.Watchdog.Stop()
	}
	if err := r.Store.Close(ctx); err != nil {
		return fmt.Errorf("flush store: %w", err)
	}
	if err := r.closeSlot(); err != nil {
		return fmt.Errorf("close storage: %w", err)
	}
	return nil
}
