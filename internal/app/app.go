// Package app wires configuration into the running services shared by the
// daemon and the CLI.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/felixgeelhaar/skillgap/internal/analysis"
	"github.com/felixgeelhaar/skillgap/internal/catalog"
	"github.com/felixgeelhaar/skillgap/internal/config"
	"github.com/felixgeelhaar/skillgap/internal/gap"
	"github.com/felixgeelhaar/skillgap/internal/skillgraph"
	"github.com/felixgeelhaar/skillgap/internal/storage/sqlite"
)

// App holds the wired services
type App struct {
	Holder    *skillgraph.Holder
	Refresher *catalog.Refresher
	Analysis  *analysis.Service

	db      *sqlite.DB
	closers []func(context.Context) error
}

// New opens storage and the catalog source described by cfg and performs
// the first catalog load. The background refresh loop is not started.
func New(ctx context.Context, cfg *config.LocalConfig) (*App, error) {
	a := &App{Holder: skillgraph.NewHolder()}

	store, err := a.openStore(ctx, cfg.Storage)
	if err != nil {
		a.Close(ctx)
		return nil, err
	}

	source, err := a.openSource(ctx, cfg.Catalog)
	if err != nil {
		a.Close(ctx)
		return nil, err
	}

	a.Refresher = catalog.NewRefresher(source, a.Holder, catalog.RefresherConfig{
		Interval:         time.Duration(cfg.Catalog.RefreshIntervalSeconds) * time.Second,
		MaxAttempts:      cfg.Catalog.MaxAttempts,
		FailureThreshold: cfg.Catalog.FailureThreshold,
		Logger:           slog.Default().With("component", "catalog"),
	})
	if _, err := a.Refresher.Refresh(ctx); err != nil {
		a.Close(ctx)
		return nil, fmt.Errorf("initial catalog load: %w", err)
	}

	engine, err := gap.NewEngine(cfg.Scoring)
	if err != nil {
		a.Close(ctx)
		return nil, fmt.Errorf("scoring policy: %w", err)
	}

	a.Analysis = analysis.NewService(engine, a.Holder, store, analysis.Config{
		MaxConcurrent: cfg.Analysis.MaxConcurrent,
		QueueTimeout:  time.Duration(cfg.Analysis.QueueTimeoutSeconds) * time.Second,
	})

	return a, nil
}

// openStore returns nil for the "none" driver
func (a *App) openStore(ctx context.Context, cfg config.StorageConfig) (analysis.ReportStore, error) {
	switch cfg.Driver {
	case "sqlite":
		db, err := a.sqlite(ctx, cfg.Path)
		if err != nil {
			return nil, err
		}
		return sqlite.NewReportStore(db), nil
	case "file":
		store, err := analysis.NewFileStore(cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("open report store: %w", err)
		}
		return store, nil
	case "none", "":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

func (a *App) openSource(ctx context.Context, cfg config.CatalogConfig) (catalog.Source, error) {
	switch cfg.Source {
	case "file":
		return catalog.NewFileSource(cfg.Path), nil
	case "sqlite":
		db, err := a.sqlite(ctx, cfg.Path)
		if err != nil {
			return nil, err
		}
		return sqlite.NewCatalogStore(db), nil
	case "postgres":
		pool, err := catalog.ConnectPostgres(ctx, cfg.Postgres.DSN)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func(context.Context) error {
			pool.Close()
			return nil
		})
		return catalog.NewPostgresSource(pool), nil
	case "neo4j":
		src, err := catalog.NewNeo4jSource(ctx, cfg.Neo4j.URI, cfg.Neo4j.Username, cfg.Neo4j.Password, cfg.Neo4j.Database)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, src.Close)
		return src, nil
	default:
		return nil, fmt.Errorf("unknown catalog source %q", cfg.Source)
	}
}

// sqlite opens and migrates the database once; storage and catalog share it
// when they point at the same file.
func (a *App) sqlite(ctx context.Context, path string) (*sqlite.DB, error) {
	if a.db != nil {
		return a.db, nil
	}

	db, err := OpenSQLite(ctx, path)
	if err != nil {
		return nil, err
	}
	a.db = db
	a.closers = append(a.closers, func(context.Context) error { return db.Close() })
	return db, nil
}

// OpenSQLite opens the database at path and applies migrations
func OpenSQLite(ctx context.Context, path string) (*sqlite.DB, error) {
	db, err := sqlite.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	return db, nil
}

// Close stops the refresher and releases connections
func (a *App) Close(ctx context.Context) error {
	if a.Refresher != nil {
		a.Refresher.Stop()
	}

	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
