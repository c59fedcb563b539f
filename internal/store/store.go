// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store persists named table snapshots in a SQLite database so a
// fetched table can be downloaded or exported in a later run.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/arxiv-table/pkg/types"
)

// ErrNotFound is returned by Load for an unknown snapshot name.
var ErrNotFound = errors.New("snapshot not found")

// Store manages the SQLite database.
type Store struct {
	db *sql.DB
}

// Snapshot describes one saved table.
type Snapshot struct {
	Name    string
	Rows    int
	SavedAt time.Time
}

// Open opens or creates the database at cfg.Path and creates the schema if
// it does not exist.
func Open(cfg types.StoreConfig) (*Store, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("store path is empty")
	}
	if dir := filepath.Dir(cfg.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating store directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", cfg.Path+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	var cols []string
	for _, c := range types.AllColumns {
		cols = append(cols, string(c)+" TEXT")
	}

	statements := []string{
		`CREATE TABLE IF NOT EXISTS snapshots (
			name TEXT PRIMARY KEY,
			columns TEXT NOT NULL,
			saved_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS records (
			snapshot TEXT NOT NULL REFERENCES snapshots(name) ON DELETE CASCADE,
			row_index INTEGER NOT NULL,
			present TEXT NOT NULL,
			` + strings.Join(cols, ",\n\t\t\t") + `,
			PRIMARY KEY (snapshot, row_index)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_records_id ON records(id)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Save stores t under name, replacing any snapshot with the same name.
func (s *Store) Save(ctx context.Context, name string, t types.Table) error {
	if name == "" {
		return fmt.Errorf("snapshot name is empty")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM records WHERE snapshot = ?`, name); err != nil {
		return fmt.Errorf("deleting old rows: %w", err)
	}

	columnsJSON, err := json.Marshal(t.Columns)
	if err != nil {
		return fmt.Errorf("encoding columns: %w", err)
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO snapshots (name, columns, saved_at) VALUES (?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET columns=excluded.columns, saved_at=excluded.saved_at`,
		name, string(columnsJSON), time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("upserting snapshot: %w", err)
	}

	colNames := make([]string, len(types.AllColumns))
	marks := make([]string, len(types.AllColumns))
	for i, c := range types.AllColumns {
		colNames[i] = string(c)
		marks[i] = "?"
	}
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO records (snapshot, row_index, present, `+strings.Join(colNames, ", ")+`)
		 VALUES (?, ?, ?, `+strings.Join(marks, ", ")+`)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for i, r := range t.Records {
		args, err := recordArgs(name, i, r)
		if err != nil {
			return fmt.Errorf("encoding row %d: %w", i, err)
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("inserting row %d: %w", i, err)
		}
	}

	return tx.Commit()
}

func recordArgs(name string, row int, r types.Record) ([]any, error) {
	present, err := json.Marshal(r.Columns())
	if err != nil {
		return nil, err
	}
	args := []any{name, row, string(present)}
	for _, c := range types.AllColumns {
		v, ok := r.Value(c)
		switch {
		case !ok:
			args = append(args, nil)
		case c.IsList():
			data, err := json.Marshal(v)
			if err != nil {
				return nil, err
			}
			args = append(args, string(data))
		default:
			args = append(args, v)
		}
	}
	return args, nil
}

// Load returns the snapshot saved under name.
func (s *Store) Load(ctx context.Context, name string) (types.Table, error) {
	var columnsJSON string
	err := s.db.QueryRowContext(ctx, `SELECT columns FROM snapshots WHERE name = ?`, name).Scan(&columnsJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return types.Table{}, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	if err != nil {
		return types.Table{}, fmt.Errorf("reading snapshot: %w", err)
	}

	colNames := make([]string, len(types.AllColumns))
	for i, c := range types.AllColumns {
		colNames[i] = string(c)
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT present, `+strings.Join(colNames, ", ")+` FROM records WHERE snapshot = ? ORDER BY row_index`, name)
	if err != nil {
		return types.Table{}, fmt.Errorf("querying rows: %w", err)
	}
	defer rows.Close()

	var records []types.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return types.Table{}, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return types.Table{}, fmt.Errorf("iterating rows: %w", err)
	}

	var columns []types.Column
	if err := json.Unmarshal([]byte(columnsJSON), &columns); err != nil {
		return types.Table{}, fmt.Errorf("decoding columns: %w", err)
	}
	return types.Table{Columns: columns, Records: records}, nil
}

func scanRecord(rows *sql.Rows) (types.Record, error) {
	var presentJSON string
	values := make([]sql.NullString, len(types.AllColumns))
	dest := []any{&presentJSON}
	for i := range values {
		dest = append(dest, &values[i])
	}
	if err := rows.Scan(dest...); err != nil {
		return types.Record{}, fmt.Errorf("scanning row: %w", err)
	}

	var present []types.Column
	if err := json.Unmarshal([]byte(presentJSON), &present); err != nil {
		return types.Record{}, fmt.Errorf("decoding present columns: %w", err)
	}
	has := make(map[types.Column]bool, len(present))
	for _, c := range present {
		has[c] = true
	}

	var rec types.Record
	for i, c := range types.AllColumns {
		if !has[c] {
			continue
		}
		if !c.IsList() {
			rec.Set(c, values[i].String)
			continue
		}
		var vs []string
		if values[i].Valid {
			if err := json.Unmarshal([]byte(values[i].String), &vs); err != nil {
				return types.Record{}, fmt.Errorf("decoding %s: %w", c, err)
			}
		}
		rec.SetList(c, vs)
	}
	return rec, nil
}

// List returns the saved snapshots ordered by name.
func (s *Store) List(ctx context.Context) ([]Snapshot, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT s.name, s.saved_at, count(r.row_index)
		 FROM snapshots s LEFT JOIN records r ON r.snapshot = s.name
		 GROUP BY s.name ORDER BY s.name`)
	if err != nil {
		return nil, fmt.Errorf("listing snapshots: %w", err)
	}
	defer rows.Close()

	var out []Snapshot
	for rows.Next() {
		var snap Snapshot
		var savedAt string
		if err := rows.Scan(&snap.Name, &savedAt, &snap.Rows); err != nil {
			return nil, fmt.Errorf("scanning snapshot: %w", err)
		}
		if snap.SavedAt, err = time.Parse(time.RFC3339Nano, savedAt); err != nil {
			return nil, fmt.Errorf("parsing saved_at of %q: %w", snap.Name, err)
		}
		out = append(out, snap)
	}
	return out, rows.Err()
}
