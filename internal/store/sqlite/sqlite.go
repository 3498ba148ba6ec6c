// Package sqlite implements the registry store on an embedded SQLite file
// using the pure-Go modernc driver. It suits single-machine imports and
// tests that need real SQL semantics without a server.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/agbanzy/pollingunits/internal/core"
	"github.com/agbanzy/pollingunits/internal/store/migrations"
)

// maxVariables stays below SQLite's bound-parameter limit.
const maxVariables = 30000

// Store reads and writes the hierarchy tables.
type Store struct {
	db *sql.DB
}

var _ core.Store = (*Store)(nil)

// Open opens (creating if needed) the database file at path. The pool is
// limited to one connection: SQLite allows a single writer.
func Open(path string) (*Store, error) {
	dsn := path + "?_pragma=foreign_keys(1)&_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite %s: %w", path, err)
	}
	return New(db), nil
}

// New wraps an open database handle.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// DB exposes the underlying handle.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Ping checks the handle.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Migrate applies the embedded schema.
func (s *Store) Migrate(ctx context.Context) error {
	_, err := migrations.Up(ctx, s.db, migrations.SQLite)
	return err
}

func (s *Store) ListStates(ctx context.Context) ([]core.State, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name FROM states ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list states: %w", err)
	}
	defer rows.Close()

	var out []core.State
	for rows.Next() {
		var st core.State
		if err := rows.Scan(&st.ID, &st.Name); err != nil {
			return nil, fmt.Errorf("scan state: %w", err)
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

func (s *Store) ListLGAs(ctx context.Context) ([]core.LGA, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, code, state_id FROM lgas ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("list lgas: %w", err)
	}
	defer rows.Close()

	var out []core.LGA
	for rows.Next() {
		var l core.LGA
		if err := rows.Scan(&l.ID, &l.Name, &l.Code, &l.StateID); err != nil {
			return nil, fmt.Errorf("scan lga: %w", err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (s *Store) ListWards(ctx context.Context) ([]core.Ward, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, code, lga_id FROM wards ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("list wards: %w", err)
	}
	defer rows.Close()

	var out []core.Ward
	for rows.Next() {
		var w core.Ward
		if err := rows.Scan(&w.ID, &w.Name, &w.Code, &w.LGAID); err != nil {
			return nil, fmt.Errorf("scan ward: %w", err)
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

// InsertStates writes states, skipping existing ids.
func (s *Store) InsertStates(ctx context.Context, states []core.State) (int64, error) {
	return insertRows(ctx, s.db, "states", []string{"id", "name"}, states, func(st core.State) []any {
		return []any{st.ID, st.Name}
	})
}

func (s *Store) InsertLGAs(ctx context.Context, lgas []core.LGA) (int64, error) {
	return insertRows(ctx, s.db, "lgas", []string{"id", "name", "code", "state_id"}, lgas, func(l core.LGA) []any {
		return []any{l.ID, l.Name, l.Code, l.StateID}
	})
}

func (s *Store) InsertWards(ctx context.Context, wards []core.Ward) (int64, error) {
	return insertRows(ctx, s.db, "wards", []string{"id", "name", "code", "lga_id"}, wards, func(w core.Ward) []any {
		return []any{w.ID, w.Name, w.Code, w.LGAID}
	})
}

func (s *Store) InsertPollingUnits(ctx context.Context, units []core.PollingUnit) (int64, error) {
	cols := []string{"id", "name", "unit_code", "ward_id", "latitude", "longitude"}
	return insertRows(ctx, s.db, "polling_units", cols, units, func(u core.PollingUnit) []any {
		return []any{u.ID, u.Name, u.UnitCode, u.WardID, nullFloat(u.Latitude), nullFloat(u.Longitude)}
	})
}

func (s *Store) DeletePollingUnits(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM polling_units`)
	if err != nil {
		return 0, fmt.Errorf("delete polling units: %w", err)
	}
	return res.RowsAffected()
}

func (s *Store) CountPollingUnits(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM polling_units`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count polling units: %w", err)
	}
	return n, nil
}

// insertRows writes items with multi-row INSERT OR IGNORE statements. Each
// statement is atomic; rows are split only when the bound-parameter limit
// would be exceeded.
func insertRows[T any](ctx context.Context, db *sql.DB, table string, cols []string, items []T, values func(T) []any) (int64, error) {
	if len(items) == 0 {
		return 0, nil
	}
	if len(cols) == 0 {
		return 0, errors.New("insert: no columns")
	}

	perStmt := maxVariables / len(cols)
	var written int64

	for start := 0; start < len(items); start += perStmt {
		end := min(start+perStmt, len(items))
		part := items[start:end]

		args := make([]any, 0, len(part)*len(cols))
		for _, item := range part {
			args = append(args, values(item)...)
		}

		res, err := db.ExecContext(ctx, insertStatement(table, cols, len(part)), args...)
		if err != nil {
			return written, fmt.Errorf("insert %s: %w", table, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return written, fmt.Errorf("insert %s: %w", table, err)
		}
		written += n
	}
	return written, nil
}

func insertStatement(table string, cols []string, rows int) string {
	tuple := "(" + strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", ") + ")"

	var b strings.Builder
	b.WriteString("INSERT OR IGNORE INTO ")
	b.WriteString(table)
	b.WriteString(" (")
	b.WriteString(strings.Join(cols, ", "))
	b.WriteString(") VALUES ")
	for i := 0; i < rows; i++ {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(tuple)
	}
	return b.String()
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}
