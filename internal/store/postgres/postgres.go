// Package postgres implements the registry store on PostgreSQL with pgx.
//
// Every insert chunk is sent as one pgx.Batch. PostgreSQL runs a batch in an
// implicit transaction, so a chunk is written entirely or not at all, while
// earlier chunks stay committed.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/agbanzy/pollingunits/internal/core"
	"github.com/agbanzy/pollingunits/internal/store/migrations"
)

// DBTX is the subset of pgx shared by *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

// PoolConfig holds connection pool settings.
type PoolConfig struct {
	URL             string
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// Store reads and writes the hierarchy tables.
type Store struct {
	db   DBTX
	pool *pgxpool.Pool // nil when bound to a transaction
}

var _ core.Store = (*Store)(nil)

// New returns a store issuing statements through db.
func New(db DBTX) *Store {
	s := &Store{db: db}
	if pool, ok := db.(*pgxpool.Pool); ok {
		s.pool = pool
	}
	return s
}

// Open connects a pool and verifies it with a ping.
func Open(ctx context.Context, cfg PoolConfig) (*Store, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolConfig.MaxConns = int32(cfg.MaxConns)
	}
	if cfg.MinConns > 0 {
		poolConfig.MinConns = int32(cfg.MinConns)
	}
	if cfg.MaxConnLifetime > 0 {
		poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	}
	if cfg.MaxConnIdleTime > 0 {
		poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return New(pool), nil
}

// Pool returns the underlying pool, or nil for a transaction-bound store.
func (s *Store) Pool() *pgxpool.Pool {
	return s.pool
}

// WithTx returns a store whose statements run inside tx. The caller owns
// commit and rollback.
func (s *Store) WithTx(tx pgx.Tx) *Store {
	return &Store{db: tx}
}

// Begin starts a transaction on the pool.
func (s *Store) Begin(ctx context.Context) (pgx.Tx, error) {
	if s.pool == nil {
		return nil, errors.New("postgres store: nested transactions are not supported")
	}
	return s.pool.Begin(ctx)
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	if s.pool == nil {
		return nil
	}
	return s.pool.Ping(ctx)
}

// Close releases the pool. It is a no-op for transaction-bound stores.
func (s *Store) Close() error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}

// Migrate applies the embedded schema.
func (s *Store) Migrate(ctx context.Context) error {
	if s.pool == nil {
		return errors.New("postgres store: migrate requires a pool")
	}
	db := stdlib.OpenDBFromPool(s.pool)
	defer db.Close()

	_, err := migrations.Up(ctx, db, migrations.Postgres)
	return err
}

const (
	selectStatesSQL = `SELECT id, name FROM states ORDER BY name`
	selectLGAsSQL   = `SELECT id, name, code, state_id FROM lgas ORDER BY created_at, id`
	selectWardsSQL  = `SELECT id, name, code, lga_id FROM wards ORDER BY created_at, id`

	insertStateSQL = `INSERT INTO states (id, name) VALUES ($1, $2) ON CONFLICT DO NOTHING`
	insertLGASQL   = `INSERT INTO lgas (id, name, code, state_id) VALUES ($1, $2, $3, $4) ON CONFLICT DO NOTHING`
	insertWardSQL  = `INSERT INTO wards (id, name, code, lga_id) VALUES ($1, $2, $3, $4) ON CONFLICT DO NOTHING`
	insertUnitSQL  = `INSERT INTO polling_units (id, name, unit_code, ward_id, latitude, longitude)
VALUES ($1, $2, $3, $4, $5, $6) ON CONFLICT DO NOTHING`

	deleteUnitsSQL = `DELETE FROM polling_units`
	countUnitsSQL  = `SELECT COUNT(*) FROM polling_units`
)

func (s *Store) ListStates(ctx context.Context) ([]core.State, error) {
	rows, err := s.db.Query(ctx, selectStatesSQL)
	if err != nil {
		return nil, fmt.Errorf("list states: %w", err)
	}
	return pgx.CollectRows(rows, pgx.RowToStructByPos[core.State])
}

func (s *Store) ListLGAs(ctx context.Context) ([]core.LGA, error) {
	rows, err := s.db.Query(ctx, selectLGAsSQL)
	if err != nil {
		return nil, fmt.Errorf("list lgas: %w", err)
	}
	return pgx.CollectRows(rows, pgx.RowToStructByPos[core.LGA])
}

func (s *Store) ListWards(ctx context.Context) ([]core.Ward, error) {
	rows, err := s.db.Query(ctx, selectWardsSQL)
	if err != nil {
		return nil, fmt.Errorf("list wards: %w", err)
	}
	return pgx.CollectRows(rows, pgx.RowToStructByPos[core.Ward])
}

// InsertStates writes states, skipping existing ids.
func (s *Store) InsertStates(ctx context.Context, states []core.State) (int64, error) {
	return sendBatch(ctx, s.db, states, func(b *pgx.Batch, st core.State) {
		b.Queue(insertStateSQL, st.ID, st.Name)
	})
}

func (s *Store) InsertLGAs(ctx context.Context, lgas []core.LGA) (int64, error) {
	return sendBatch(ctx, s.db, lgas, func(b *pgx.Batch, l core.LGA) {
		b.Queue(insertLGASQL, l.ID, l.Name, l.Code, l.StateID)
	})
}

func (s *Store) InsertWards(ctx context.Context, wards []core.Ward) (int64, error) {
	return sendBatch(ctx, s.db, wards, func(b *pgx.Batch, w core.Ward) {
		b.Queue(insertWardSQL, w.ID, w.Name, w.Code, w.LGAID)
	})
}

func (s *Store) InsertPollingUnits(ctx context.Context, units []core.PollingUnit) (int64, error) {
	return sendBatch(ctx, s.db, units, func(b *pgx.Batch, u core.PollingUnit) {
		b.Queue(insertUnitSQL, u.ID, u.Name, u.UnitCode, u.WardID, u.Latitude, u.Longitude)
	})
}

func (s *Store) DeletePollingUnits(ctx context.Context) (int64, error) {
	tag, err := s.db.Exec(ctx, deleteUnitsSQL)
	if err != nil {
		return 0, fmt.Errorf("delete polling units: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (s *Store) CountPollingUnits(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRow(ctx, countUnitsSQL).Scan(&n); err != nil {
		return 0, fmt.Errorf("count polling units: %w", err)
	}
	return n, nil
}

// sendBatch queues one statement per item and sums the affected rows.
func sendBatch[T any](ctx context.Context, db DBTX, items []T, queue func(*pgx.Batch, T)) (int64, error) {
	if len(items) == 0 {
		return 0, nil
	}

	batch := &pgx.Batch{}
	for _, item := range items {
		queue(batch, item)
	}

	br := db.SendBatch(ctx, batch)

	var written int64
	for i := 0; i < len(items); i++ {
		tag, err := br.Exec()
		if err != nil {
			br.Close()
			return 0, err
		}
		written += tag.RowsAffected()
	}

	if err := br.Close(); err != nil {
		return 0, err
	}
	return written, nil
}
