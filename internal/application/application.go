// Package application wires the stores, services and converter together
// from configuration. Both the server and the CLI start from New.
package application

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JonMunkholm/xlport/internal/admin"
	"github.com/JonMunkholm/xlport/internal/bookmark"
	"github.com/JonMunkholm/xlport/internal/config"
	"github.com/JonMunkholm/xlport/internal/core"
	"github.com/JonMunkholm/xlport/internal/memento"
	"github.com/JonMunkholm/xlport/internal/sheet"
	"github.com/JonMunkholm/xlport/internal/todo"
)

// App holds the wired components.
type App struct {
	Registry   *core.Registry
	Converter  *core.Converter
	Bookmarks  *bookmark.Service
	ViewModels *memento.Bridge
	Todos      todo.Repository

	cfg    *config.Config
	logger *slog.Logger
	pool   *pgxpool.Pool
}

// New builds an App. With a database URL configured it connects to
// PostgreSQL and ensures the schema; otherwise items are kept in memory.
// Demo items are seeded into an empty store when cfg.Demo.Seed is set.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	a := &App{
		Registry:   core.NewRegistry(),
		Bookmarks:  bookmark.NewService(),
		ViewModels: memento.NewBridge(),
		cfg:        cfg,
		logger:     logger,
	}

	if cfg.Database.Enabled() {
		pool, err := OpenPool(ctx, &cfg.Database, logger)
		if err != nil {
			return nil, err
		}
		store := todo.NewPostgresStore(pool)
		if err := store.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, err
		}
		a.pool = pool
		a.Todos = store
	} else {
		logger.Info("no database configured, keeping items in memory")
		a.Todos = todo.NewMemoryStore()
	}

	if err := todo.Install(a.Todos, a.Bookmarks, a.ViewModels, a.Registry); err != nil {
		a.Close()
		return nil, fmt.Errorf("install todo module: %w", err)
	}

	a.Converter = core.NewConverter(
		core.WithResolver(a.Bookmarks),
		core.WithViewModels(a.ViewModels),
		core.WithLogger(logger),
		core.WithDefaultFormat(sheet.Format(strings.ToLower(cfg.Export.Format))),
		core.WithDefaultDateFormat(cfg.Export.DateFormat),
		core.WithTempDir(cfg.Export.TempDir),
	)

	if cfg.Demo.Seed {
		if _, err := a.Seed(ctx, false); err != nil {
			a.Close()
			return nil, err
		}
	}

	logger.Info("record types registered", "count", len(a.Registry.Keys()))
	return a, nil
}

// OpenPool connects to PostgreSQL with the configured pool limits and
// verifies the connection.
func OpenPool(ctx context.Context, cfg *config.DatabaseConfig, logger *slog.Logger) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}
	poolConfig.MaxConns = int32(cfg.MaxConns)
	poolConfig.MinConns = int32(cfg.MinConns)
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if u, err := url.Parse(cfg.URL); err == nil {
		logger.Info("connected to database", "name", strings.TrimPrefix(u.Path, "/"))
	} else {
		logger.Info("connected to database")
	}
	return pool, nil
}

// Seed loads the demo items. Without reset it does nothing when the store
// already has items; with reset the store is cleared first. It returns the
// number of items created.
func (a *App) Seed(ctx context.Context, reset bool) (int, error) {
	if reset {
		if err := admin.ResetAll(ctx, a.Todos.Reset); err != nil {
			return 0, err
		}
	} else {
		existing, err := a.Todos.List(ctx)
		if err != nil {
			return 0, fmt.Errorf("list items: %w", err)
		}
		if len(existing) > 0 {
			a.logger.Debug("store not empty, skipping seed", "items", len(existing))
			return 0, nil
		}
	}

	items, err := todo.Seed(ctx, a.Todos, a.cfg.Demo.Owner, time.Now())
	if err != nil {
		return 0, fmt.Errorf("seed items: %w", err)
	}
	a.logger.Info("seeded demo items", "count", len(items), "owner", a.cfg.Demo.Owner)
	return len(items), nil
}

// Close releases the database pool, if any.
func (a *App) Close() {
	if a.pool != nil {
		a.pool.Close()
	}
}
