// Package store selects and prepares the persistence backend for the import
// engine.
package store

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/agbanzy/pollingunits/internal/config"
	"github.com/agbanzy/pollingunits/internal/core"
	"github.com/agbanzy/pollingunits/internal/store/memstore"
	"github.com/agbanzy/pollingunits/internal/store/postgres"
	"github.com/agbanzy/pollingunits/internal/store/sqlite"
)

// Backend names accepted by STORE_BACKEND.
const (
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
	BackendMemory   = "memory"
)

// Backend is a core.Store that can also manage its own schema.
type Backend interface {
	core.Store
	InsertStates(ctx context.Context, states []core.State) (int64, error)
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}

var (
	_ Backend = (*postgres.Store)(nil)
	_ Backend = (*sqlite.Store)(nil)
	_ Backend = (*memstore.Store)(nil)
)

// Open connects the backend selected by cfg.Store.Backend.
func Open(ctx context.Context, cfg *config.Config) (Backend, error) {
	switch cfg.Store.Backend {
	case BackendPostgres:
		s, err := postgres.Open(ctx, postgres.PoolConfig{
			URL:             cfg.Database.URL,
			MaxConns:        cfg.Database.MaxConns,
			MinConns:        cfg.Database.MinConns,
			MaxConnLifetime: cfg.Database.MaxConnLifetime,
			MaxConnIdleTime: cfg.Database.MaxConnIdleTime,
		})
		if err != nil {
			return nil, err
		}
		return s, nil
	case BackendSQLite:
		s, err := sqlite.Open(cfg.Store.SQLitePath)
		if err != nil {
			return nil, err
		}
		return s, nil
	case BackendMemory:
		return memstore.New(), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}

// Prepare applies migrations and makes sure every state exists. It is safe
// to call on every start.
func Prepare(ctx context.Context, b Backend) error {
	if err := b.Migrate(ctx); err != nil {
		return err
	}
	n, err := b.InsertStates(ctx, NigerianStates)
	if err != nil {
		return fmt.Errorf("seed states: %w", err)
	}
	if n > 0 {
		slog.Info("states seeded", "count", n)
	}
	return nil
}
