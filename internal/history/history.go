// Package history records check runs in a SQL database so the CLI can show
// how a script's diagnostics changed over time.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Entry is one diagnostic of a recorded run.
type Entry struct {
	Code    string `json:"code"`
	Line    int    `json:"line"`
	Column  int    `json:"column"`
	Message string `json:"message"`
}

// Run is one check of one file.
type Run struct {
	ID          uuid.UUID `json:"id"`
	File        string    `json:"file"`
	CheckedAt   time.Time `json:"checked_at"`
	Statements  int       `json:"statements"`
	Diagnostics []Entry   `json:"diagnostics"`
}

// Store persists runs.
type Store struct {
	db     *sql.DB
	driver string
}

// Open connects to the database. driver is one of sqlite, mysql or postgres.
func Open(ctx context.Context, driver, dsn string) (*Store, error) {
	switch driver {
	case "sqlite", "mysql", "postgres":
	default:
		return nil, fmt.Errorf("unsupported history driver: %s", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", driver, err)
	}
	if driver == "sqlite" {
		// A single connection keeps :memory: databases alive between calls
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to %s database: %w", driver, err)
	}
	return &Store{db: db, driver: driver}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Migrate creates the tables if they do not exist yet.
func (s *Store) Migrate(ctx context.Context) error {
	text := "TEXT"
	if s.driver == "mysql" {
		// MySQL cannot index TEXT columns without a prefix length
		text = "VARCHAR(512)"
	}
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS harvest_runs (
			id VARCHAR(36) PRIMARY KEY,
			file ` + text + ` NOT NULL,
			checked_at BIGINT NOT NULL,
			statements INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS harvest_diagnostics (
			run_id VARCHAR(36) NOT NULL,
			seq INTEGER NOT NULL,
			code VARCHAR(32) NOT NULL,
			line INTEGER NOT NULL,
			col INTEGER NOT NULL,
			message ` + text + ` NOT NULL,
			PRIMARY KEY (run_id, seq)
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to migrate history: %w", err)
		}
	}
	return nil
}

// Record stores run, assigning an ID and timestamp when they are unset.
// The stored run is returned.
func (s *Store) Record(ctx context.Context, run Run) (Run, error) {
	if run.ID == uuid.Nil {
		run.ID = uuid.New()
	}
	if run.CheckedAt.IsZero() {
		run.CheckedAt = time.Now()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return run, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		s.rebind("INSERT INTO harvest_runs (id, file, checked_at, statements) VALUES (?, ?, ?, ?)"),
		run.ID.String(), run.File, run.CheckedAt.UnixNano(), run.Statements)
	if err != nil {
		return run, fmt.Errorf("failed to record run: %w", err)
	}

	insert := s.rebind("INSERT INTO harvest_diagnostics (run_id, seq, code, line, col, message) VALUES (?, ?, ?, ?, ?, ?)")
	for i, d := range run.Diagnostics {
		if _, err := tx.ExecContext(ctx, insert, run.ID.String(), i, d.Code, d.Line, d.Column, d.Message); err != nil {
			return run, fmt.Errorf("failed to record diagnostic: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return run, fmt.Errorf("failed to commit run: %w", err)
	}
	return run, nil
}

// Recent returns up to limit runs, newest first. An empty file returns runs
// for every file.
func (s *Store) Recent(ctx context.Context, file string, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 10
	}

	query := "SELECT id, file, checked_at, statements FROM harvest_runs"
	args := []any{}
	if file != "" {
		query += " WHERE file = ?"
		args = append(args, file)
	}
	query += " ORDER BY checked_at DESC LIMIT " + strconv.Itoa(limit)

	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}

	var runs []Run
	for rows.Next() {
		var (
			run     Run
			id      string
			checked int64
		)
		if err := rows.Scan(&id, &run.File, &checked, &run.Statements); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		run.ID, err = uuid.Parse(id)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("invalid run id %q: %w", id, err)
		}
		run.CheckedAt = time.Unix(0, checked)
		runs = append(runs, run)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range runs {
		if runs[i].Diagnostics, err = s.diagnostics(ctx, runs[i].ID); err != nil {
			return nil, err
		}
	}
	return runs, nil
}

func (s *Store) diagnostics(ctx context.Context, id uuid.UUID) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		s.rebind("SELECT code, line, col, message FROM harvest_diagnostics WHERE run_id = ? ORDER BY seq"),
		id.String())
	if err != nil {
		return nil, fmt.Errorf("failed to query diagnostics: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Code, &e.Line, &e.Column, &e.Message); err != nil {
			return nil, fmt.Errorf("failed to scan diagnostic: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// rebind rewrites ? placeholders to $n for postgres
func (s *Store) rebind(query string) string {
	if s.driver != "postgres" {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
