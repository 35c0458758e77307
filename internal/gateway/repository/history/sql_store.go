package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"infographic/internal/report"
)

// Dialect selects placeholder syntax. Queries are written with "?" and
// rebound for Postgres.
type Dialect int

const (
	SQLite Dialect = iota
	Postgres
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS history_items (
  id TEXT PRIMARY KEY,
  query TEXT NOT NULL,
  created_at BIGINT NOT NULL,
  report TEXT NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS idx_history_items_created_at ON history_items (created_at)`,
}

type SQLStore struct {
	db      *sql.DB
	dialect Dialect

	schemaMu    sync.Mutex
	schemaReady bool
}

func NewSQLStore(db *sql.DB, dialect Dialect) *SQLStore {
	return &SQLStore{db: db, dialect: dialect}
}

// OpenPostgres connects through the pgx stdlib driver.
func OpenPostgres(ctx context.Context, dsn string) (*SQLStore, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return nil, fmt.Errorf("postgres dsn is required")
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return NewSQLStore(db, Postgres), nil
}

// OpenSQLite opens path with modernc's pure Go driver. ":memory:" keeps a
// single connection so every query sees the same database.
func OpenSQLite(path string) (*SQLStore, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}
	return NewSQLStore(db, SQLite), nil
}

func (s *SQLStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// ensureSchema creates the table on first use. Failures are not remembered,
// so a canceled request does not break later ones.
func (s *SQLStore) ensureSchema(ctx context.Context) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("store is nil")
	}
	s.schemaMu.Lock()
	defer s.schemaMu.Unlock()
	if s.schemaReady {
		return nil
	}
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
	}
	s.schemaReady = true
	return nil
}

func (s *SQLStore) Append(ctx context.Context, item report.HistoryItem) error {
	if err := validateItem(item); err != nil {
		return err
	}
	if err := s.ensureSchema(ctx); err != nil {
		return err
	}
	raw, err := json.Marshal(item.Report)
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, s.rebind(`
INSERT INTO history_items (id, query, created_at, report)
VALUES (?, ?, ?, ?)
ON CONFLICT (id)
DO UPDATE SET query=excluded.query, created_at=excluded.created_at, report=excluded.report`),
		item.ID, item.Query, item.Timestamp, string(raw))
	if err != nil {
		return fmt.Errorf("insert history item: %w", err)
	}
	_, err = tx.ExecContext(ctx, s.rebind(`
DELETE FROM history_items WHERE id NOT IN (
  SELECT id FROM history_items ORDER BY created_at DESC, id DESC LIMIT ?
)`), report.MaxHistory)
	if err != nil {
		return fmt.Errorf("trim history: %w", err)
	}
	return tx.Commit()
}

func (s *SQLStore) List(ctx context.Context, limit int) ([]report.HistoryItem, error) {
	if err := s.ensureSchema(ctx); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, s.rebind(`SELECT id, query, created_at, report
FROM history_items ORDER BY created_at DESC, id DESC LIMIT ?`), clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	defer rows.Close()

	out := make([]report.HistoryItem, 0, 16)
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

func (s *SQLStore) Get(ctx context.Context, id string) (report.HistoryItem, error) {
	if err := s.ensureSchema(ctx); err != nil {
		return report.HistoryItem{}, err
	}
	row := s.db.QueryRowContext(ctx, s.rebind(`SELECT id, query, created_at, report
FROM history_items WHERE id = ?`), strings.TrimSpace(id))
	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return report.HistoryItem{}, ErrNotFound
	}
	return item, err
}

func (s *SQLStore) Delete(ctx context.Context, id string) error {
	if err := s.ensureSchema(ctx); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, s.rebind(`DELETE FROM history_items WHERE id = ?`), strings.TrimSpace(id))
	if err != nil {
		return fmt.Errorf("delete history item: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLStore) Clear(ctx context.Context) error {
	if err := s.ensureSchema(ctx); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `DELETE FROM history_items`)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (report.HistoryItem, error) {
	var (
		item report.HistoryItem
		raw  string
	)
	if err := row.Scan(&item.ID, &item.Query, &item.Timestamp, &raw); err != nil {
		return report.HistoryItem{}, err
	}
	var r report.Report
	if err := json.Unmarshal([]byte(raw), &r); err != nil {
		return report.HistoryItem{}, fmt.Errorf("decode report %s: %w", item.ID, err)
	}
	item.Report = &r
	return item, nil
}

// rebind rewrites "?" placeholders to "$n" for Postgres.
func (s *SQLStore) rebind(query string) string {
	if s.dialect != Postgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}
