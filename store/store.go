// Package store saves sheet records to PostgreSQL.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"kastelo.dev/xlsx2json"
)

// Store writes sheet records into a table. Every record written by the same
// Store carries the same run id.
type Store struct {
	db    *sqlx.DB
	table string
	run   uuid.UUID
}

var _ xlsx2json.Sink = (*Store)(nil)

// Open connects to the database at url. The table name may be schema
// qualified.
func Open(ctx context.Context, url, table string) (*Store, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", url)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	s, err := New(db, table)
	if err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func New(db *sqlx.DB, table string) (*Store, error) {
	quoted, err := quoteTable(table)
	if err != nil {
		return nil, err
	}
	return &Store{db: db, table: quoted, run: uuid.New()}, nil
}

func (s *Store) RunID() uuid.UUID {
	return s.run
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Migrate creates the table when it does not exist. The JSON columns use
// the json type, which keeps the documents as written, key order included.
func (s *Store) Migrate(ctx context.Context) error {
	query := `CREATE TABLE IF NOT EXISTS ` + s.table + ` (
		id BIGSERIAL PRIMARY KEY,
		run_id UUID NOT NULL,
		file_name TEXT NOT NULL,
		sheet_name TEXT NOT NULL,
		column_names_map JSON NOT NULL,
		file_json JSON NOT NULL,
		imported_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`
	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("create table %s: %w", s.table, err)
	}
	return nil
}

type row struct {
	RunID uuid.UUID `db:"run_id"`
	xlsx2json.SheetRecord
}

// Emit inserts rec.
func (s *Store) Emit(ctx context.Context, rec *xlsx2json.SheetRecord) error {
	query := `INSERT INTO ` + s.table + ` (run_id, file_name, sheet_name, column_names_map, file_json)
		VALUES (:run_id, :file_name, :sheet_name, :column_names_map, :file_json)`
	if _, err := s.db.NamedExecContext(ctx, query, row{RunID: s.run, SheetRecord: *rec}); err != nil {
		return fmt.Errorf("insert %s/%s: %w", rec.FileName, rec.SheetName, err)
	}
	return nil
}

// Count returns the number of records saved for file by this run.
func (s *Store) Count(ctx context.Context, file string) (int, error) {
	var n int
	query := `SELECT COUNT(*) FROM ` + s.table + ` WHERE run_id = $1 AND file_name = $2`
	if err := s.db.GetContext(ctx, &n, query, s.run, file); err != nil {
		return 0, err
	}
	return n, nil
}

func quoteTable(table string) (string, error) {
	parts := strings.Split(table, ".")
	if len(parts) > 2 {
		return "", fmt.Errorf("table name %q has too many parts", table)
	}
	for i, p := range parts {
		if p == "" {
			return "", errors.New("empty table name")
		}
		parts[i] = pq.QuoteIdentifier(p)
	}
	return strings.Join(parts, "."), nil
}
