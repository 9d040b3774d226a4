package auditstore

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/GriffinCanCode/FileMaster/internal/domain/audit"
)

type migration struct {
	version int
	name    string
	sql     string
}

var migrations = []migration{
	{
		version: 1,
		name:    "create_security_events",
		sql: `
CREATE TABLE IF NOT EXISTS security_events (
  id          TEXT PRIMARY KEY,
  ts          TEXT NOT NULL,
  operation   TEXT NOT NULL,
  outcome     TEXT NOT NULL,
  reason      TEXT NOT NULL DEFAULT '',
  actor       TEXT NOT NULL DEFAULT '',
  requested   TEXT NOT NULL DEFAULT '',
  resolved    TEXT NOT NULL DEFAULT '',
  destination TEXT NOT NULL DEFAULT ''
)`,
	},
	{
		version: 2,
		name:    "index_security_events_ts",
		sql:     `CREATE INDEX IF NOT EXISTS idx_security_events_ts ON security_events(ts)`,
	},
	{
		version: 3,
		name:    "index_security_events_outcome",
		sql:     `CREATE INDEX IF NOT EXISTS idx_security_events_outcome ON security_events(outcome, ts)`,
	},
}

// SQLStore mirrors audit events into SQLite. Rows are only ever inserted.
type SQLStore struct {
	db *sql.DB
}

// OpenSQL opens the database at path, applying pending migrations.
func OpenSQL(ctx context.Context, path string) (*SQLStore, error) {
	if path == "" {
		return nil, ErrPathRequired
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrOpenDB, err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrOpenDB, err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := configure(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLStore{db: db}, nil
}

func configure(ctx context.Context, db *sql.DB) error {
	pragmas := []string{
		"PRAGMA busy_timeout = 15000",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA journal_mode = WAL",
	}
	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			return fmt.Errorf("%w: %s: %w", ErrConfigureDB, pragma, err)
		}
	}
	return nil
}

func migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS schema_migrations (
  version INTEGER PRIMARY KEY,
  name TEXT NOT NULL,
  applied_at TEXT NOT NULL
)`); err != nil {
		return fmt.Errorf("%w: %w", ErrApplyMigration, err)
	}

	for _, m := range migrations {
		var n int
		if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM schema_migrations WHERE version = ?`, m.version).Scan(&n); err != nil {
			return fmt.Errorf("%w: %w", ErrApplyMigration, err)
		}
		if n > 0 {
			continue
		}

		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("%w: begin %d %s: %w", ErrApplyMigration, m.version, m.name, err)
		}
		if _, err := tx.ExecContext(ctx, m.sql); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("%w: %d %s: %w", ErrApplyMigration, m.version, m.name, err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO schema_migrations(version, name, applied_at) VALUES (?, ?, ?)`,
			m.version, m.name, time.Now().UTC().Format(time.RFC3339Nano),
		); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("%w: record %d %s: %w", ErrApplyMigration, m.version, m.name, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("%w: commit %d %s: %w", ErrApplyMigration, m.version, m.name, err)
		}
	}
	return nil
}

// Record implements audit.Recorder.
func (s *SQLStore) Record(ctx context.Context, e audit.SecurityEvent) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO security_events(id, ts, operation, outcome, reason, actor, requested, resolved, destination)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Timestamp.UTC().Format(time.RFC3339Nano), e.Operation, string(e.Outcome),
		e.Reason, e.Actor, e.Requested, e.Resolved, e.Destination,
	)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInsertEvent, err)
	}
	return nil
}

// Filter narrows an audit query. Zero fields match everything.
type Filter struct {
	Operation string
	Outcome   audit.Outcome
	Actor     string
	Since     time.Time
	Limit     int
}

// DefaultQueryLimit applies when Filter.Limit is not set.
const DefaultQueryLimit = 100

// Query returns matching events, newest first.
func (s *SQLStore) Query(ctx context.Context, f Filter) ([]audit.SecurityEvent, error) {
	var (
		where []string
		args  []any
	)
	if f.Operation != "" {
		where = append(where, "operation = ?")
		args = append(args, f.Operation)
	}
	if f.Outcome != "" {
		where = append(where, "outcome = ?")
		args = append(args, string(f.Outcome))
	}
	if f.Actor != "" {
		where = append(where, "actor = ?")
		args = append(args, f.Actor)
	}
	if !f.Since.IsZero() {
		where = append(where, "ts >= ?")
		args = append(args, f.Since.UTC().Format(time.RFC3339Nano))
	}

	q := `SELECT id, ts, operation, outcome, reason, actor, requested, resolved, destination FROM security_events`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY id DESC LIMIT ?"
	args = append(args, limitOrDefault(f.Limit))

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrQueryEvents, err)
	}
	defer rows.Close()

	events := []audit.SecurityEvent{}
	for rows.Next() {
		var (
			e       audit.SecurityEvent
			ts      string
			outcome string
		)
		if err := rows.Scan(&e.ID, &ts, &e.Operation, &outcome, &e.Reason, &e.Actor, &e.Requested, &e.Resolved, &e.Destination); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrQueryEvents, err)
		}
		e.Outcome = audit.Outcome(outcome)
		if e.Timestamp, err = time.Parse(time.RFC3339Nano, ts); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrQueryEvents, err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrQueryEvents, err)
	}
	return events, nil
}

// Close closes the database.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

func limitOrDefault(n int) int {
	if n <= 0 {
		return DefaultQueryLimit
	}
	return n
}
